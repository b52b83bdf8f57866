package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/repository"
)

const (
	msgMissingOrderID = "Missing order ID"
	msgInvalidBody    = "Invalid JSON body"
	msgNoteRequired   = "Note content is required"
)

// CreateOrUpdateFromPeer upserts an order pushed by the peer. The body is
// kept verbatim as the order payload and its id becomes the external id.
func (s *Service) CreateOrUpdateFromPeer(ctx context.Context, raw []byte) (UpsertResult, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return UpsertResult{}, err
	}
	extID, ok := models.ParseExternalID(fields["id"])
	if !ok {
		return UpsertResult{}, invalid(msgMissingOrderID)
	}

	in := models.OrderInput{
		ExternalID: &extID,
		Status:     stringField(fields["status"]),
		Payload:    models.Payload(raw).Clone(),
		Notes:      s.peerNotes(fields["notes"]),
	}

	id, created, err := s.OrderStore.CreateOrUpdate(ctx, in)
	if err != nil {
		return UpsertResult{}, persistence("create or update order", err)
	}

	ord := s.refresh(ctx, id)
	evType := models.EventOrderMerged
	if created {
		evType = models.EventOrderCreated
	}
	s.emit(ctx, evType, ord, nil)

	logrus.WithFields(logrus.Fields{"order_id": id, "external_id": extID, "created": created}).
		Info("order received from peer")
	return UpsertResult{OrderID: id, StoreOrderID: extID, Created: created}, nil
}

// ApplyPeerUpdate merges a partial update for the order the peer knows by
// externalID. Updates from the peer are never pushed back.
func (s *Service) ApplyPeerUpdate(ctx context.Context, externalID int64, raw []byte) error {
	var upd models.RemoteUpdate
	if err := json.Unmarshal(raw, &upd); err != nil {
		return invalid(msgInvalidBody)
	}
	if upd.Status != nil {
		st := strings.TrimSpace(*upd.Status)
		if st == "" {
			upd.Status = nil
		} else if err := s.validateStatus(st); err != nil {
			return err
		} else {
			upd.Status = &st
		}
	}
	if upd.Note != nil {
		note, ok := s.fromPeer(*upd.Note)
		if ok {
			upd.Note = &note
		} else {
			upd.Note = nil
		}
	}

	ord, err := s.resolveExternal(ctx, externalID)
	if err != nil {
		return err
	}
	if err := s.OrderStore.MergeRemoteUpdate(ctx, ord.ID, upd); err != nil {
		return s.storeErr("merge peer update", err)
	}

	ord = s.refresh(ctx, ord.ID)
	if upd.Status != nil {
		s.emit(ctx, models.EventOrderStatusChanged, ord, nil)
	}
	if upd.Note != nil {
		s.emit(ctx, models.EventOrderNoteAdded, ord, upd.Note)
	}
	logrus.WithFields(logrus.Fields{
		"order_id":    ord.ID,
		"external_id": externalID,
		"status":      upd.Status != nil,
		"note":        upd.Note != nil,
	}).Info("peer update applied")
	return nil
}

// AddNoteFromPeer stores a note the peer posted on the notes endpoint and
// relays it back as a regular update. The relayed copy lands on the peer as a
// peer-origin note, which the peer does not push again.
func (s *Service) AddNoteFromPeer(ctx context.Context, externalID int64, req models.NoteRequest) (models.Note, SyncResult, error) {
	content, err := s.noteContent(req)
	if err != nil {
		return models.Note{}, SyncResult{}, err
	}

	ord, err := s.resolveExternal(ctx, externalID)
	if err != nil {
		return models.Note{}, SyncResult{}, err
	}

	note, err := s.OrderStore.AppendNote(ctx, ord.ID, models.Note{
		Content:        content,
		AddedBy:        s.peerLabel,
		IsCustomerNote: req.IsCustomerNote,
		Origin:         models.OriginLocal,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return models.Note{}, SyncResult{}, s.storeErr("append note", err)
	}
	ord = s.refresh(ctx, ord.ID)
	s.emit(ctx, models.EventOrderNoteAdded, ord, &note)

	res, err := s.PushUpdate(ctx, ord.ID, nil, &note)
	return note, res, err
}

// peerNotes decodes the notes of a pushed order. Notes that are empty once
// markup is stripped are dropped.
func (s *Service) peerNotes(raw json.RawMessage) []models.Note {
	if len(raw) == 0 {
		return nil
	}
	var notes []models.Note
	if err := json.Unmarshal(raw, &notes); err != nil {
		logrus.WithError(err).Debug("ignoring malformed notes in pushed order")
		return nil
	}
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if n, ok := s.fromPeer(n); ok {
			out = append(out, n)
		}
	}
	return out
}

func (s *Service) fromPeer(n models.Note) (models.Note, bool) {
	n.Content = models.SanitizeText(n.Content)
	if n.Content == "" {
		return models.Note{}, false
	}
	n.AddedBy = strings.TrimSpace(n.AddedBy)
	if n.AddedBy == "" {
		n.AddedBy = s.peerLabel
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.Origin = models.OriginPeer
	return n, true
}

func (s *Service) resolveExternal(ctx context.Context, externalID int64) (models.Order, error) {
	ord, err := s.OrderStore.FindByExternalID(ctx, externalID)
	if err != nil {
		return models.Order{}, s.storeErr("find order", err)
	}
	return ord, nil
}

func (s *Service) validateStatus(status string) error {
	return s.validate(models.StatusRequest{Status: status})
}

// noteContent sanitizes the note and checks what is left against the
// request rules.
func (s *Service) noteContent(req models.NoteRequest) (string, error) {
	req.Content = models.SanitizeText(req.Content)
	if req.Content == "" {
		return "", invalid(msgNoteRequired)
	}
	if err := s.validate(req); err != nil {
		return "", err
	}
	return req.Content, nil
}

func (s *Service) validate(v any) error {
	if err := s.v.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return invalid(humanizeValidationErrors(verrs))
		}
		return invalid(err.Error())
	}
	return nil
}

// storeErr maps repository errors onto service kinds.
func (s *Service) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicateExternalID):
		return ErrConflict
	default:
		return persistence(op, err)
	}
}

// refresh reloads the order into the read cache and returns it. A failed
// reload evicts the entry instead. Reload and put run under the order's cache
// lock, so the last snapshot written is never older than the last commit.
func (s *Service) refresh(ctx context.Context, id int64) models.Order {
	mu := s.cacheLock(id)
	mu.Lock()
	defer mu.Unlock()

	ord, err := s.OrderStore.Get(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("order_id", id).Warn("cache refresh failed")
		s.OrderCache.DeleteOrder(id)
		return models.Order{ID: id}
	}
	s.OrderCache.PutOrder(ord)
	return ord
}

func (s *Service) cacheLock(id int64) *sync.Mutex {
	return &s.cacheLocks[uint64(id)%uint64(len(s.cacheLocks))]
}

func (s *Service) emit(ctx context.Context, typ models.EventType, ord models.Order, note *models.Note) {
	if s.journal == nil {
		return
	}
	ev := models.Event{
		Type:       typ,
		OrderID:    ord.ID,
		ExternalID: ord.ExternalID,
		Status:     ord.Status,
		Node:       s.node,
		At:         s.now(),
	}
	if note != nil {
		ev.Note = note.Content
		ev.Origin = note.Origin
	}
	if err := s.journal.Publish(ctx, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"type": typ, "order_id": ord.ID}).Warn("journal publish failed")
	}
}

func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, invalid(msgInvalidBody)
	}
	return fields, nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
