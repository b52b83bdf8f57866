package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/repository/cache"
)

// CreateLocalOrder stores an order entered on this node. A payload id, when
// present, becomes the external id.
func (s *Service) CreateLocalOrder(ctx context.Context, raw []byte) (models.OrderView, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return models.OrderView{}, err
	}

	in := models.OrderInput{
		Status:  stringField(fields["status"]),
		Payload: models.Payload(raw).Clone(),
	}
	if in.Status != "" {
		if err := s.validateStatus(in.Status); err != nil {
			return models.OrderView{}, err
		}
	}
	if extID, ok := models.ParseExternalID(fields["id"]); ok {
		in.ExternalID = &extID
	}
	for _, n := range s.peerNotes(fields["notes"]) {
		n.Origin = models.OriginLocal
		in.Notes = append(in.Notes, n)
	}

	id, err := s.OrderStore.Create(ctx, in)
	if err != nil {
		return models.OrderView{}, s.storeErr("create order", err)
	}
	ord := s.refresh(ctx, id)
	s.emit(ctx, models.EventOrderCreated, ord, nil)
	return models.NewOrderView(ord), nil
}

// PublishOrder sends a local order to the peer and links the id the peer
// assigned to it.
func (s *Service) PublishOrder(ctx context.Context, id int64) (models.OrderView, SyncResult, error) {
	if s.peer == nil || !s.peer.Configured() {
		return models.OrderView{}, skipped(reasonNotConfigured), ErrNotConfigured
	}
	ord, err := s.load(ctx, id)
	if err != nil {
		return models.OrderView{}, SyncResult{}, err
	}

	payload, err := publishPayload(ord)
	if err != nil {
		return models.OrderView{}, SyncResult{}, invalid(err.Error())
	}

	res, peerID := s.peer.SendOrder(ctx, payload)
	out := fromClient(res)
	if !res.Delivered {
		return models.NewOrderView(ord), out, nil
	}

	if err := s.OrderStore.LinkExternalID(ctx, ord.ID, peerID); err != nil {
		return models.OrderView{}, out, s.storeErr("link external id", err)
	}
	ord = s.refresh(ctx, ord.ID)
	s.emit(ctx, models.EventOrderPublished, ord, nil)
	logrus.WithFields(logrus.Fields{"order_id": ord.ID, "external_id": peerID}).Info("order published to peer")
	return models.NewOrderView(ord), out, nil
}

// publishPayload rewrites the stored snapshot so that its id is the local
// internal id, which is what the peer will store as its external id.
func publishPayload(ord models.Order) ([]byte, error) {
	p, err := ord.Payload.WithField("id", ord.ID)
	if err != nil {
		return nil, err
	}
	if ord.Status != "" {
		if p, err = p.WithField("status", ord.Status); err != nil {
			return nil, err
		}
	}
	notes := make([]models.Note, 0, len(ord.Notes))
	for _, n := range ord.Notes {
		if n.Origin == models.OriginLocal {
			notes = append(notes, n)
		}
	}
	if p, err = p.WithField("notes", notes); err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus overwrites the status and pushes it when it changed.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (models.OrderView, SyncResult, error) {
	status = strings.TrimSpace(status)
	if err := s.validateStatus(status); err != nil {
		return models.OrderView{}, SyncResult{}, err
	}
	prev, err := s.OrderStore.UpdateStatus(ctx, id, status)
	if err != nil {
		return models.OrderView{}, SyncResult{}, s.storeErr("update status", err)
	}
	ord := s.refresh(ctx, id)

	if prev == status {
		return models.NewOrderView(ord), skipped(reasonUnchanged), nil
	}
	s.emit(ctx, models.EventOrderStatusChanged, ord, nil)

	res, err := s.PushUpdate(ctx, id, &status, nil)
	return models.NewOrderView(ord), res, err
}

func (s *Service) AddLocalNote(ctx context.Context, id int64, req models.NoteRequest, author string) (models.Note, SyncResult, error) {
	content, err := s.noteContent(req)
	if err != nil {
		return models.Note{}, SyncResult{}, err
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = s.node
	}

	note, err := s.OrderStore.AppendNote(ctx, id, models.Note{
		Content:        content,
		AddedBy:        author,
		IsCustomerNote: req.IsCustomerNote,
		Origin:         models.OriginLocal,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return models.Note{}, SyncResult{}, s.storeErr("append note", err)
	}
	ord := s.refresh(ctx, id)
	s.emit(ctx, models.EventOrderNoteAdded, ord, &note)

	res, err := s.PushUpdate(ctx, id, nil, &note)
	return note, res, err
}

// Resync pushes the current status again, whether or not it changed.
func (s *Service) Resync(ctx context.Context, id int64) (SyncResult, error) {
	ord, err := s.load(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}
	status := ord.Status
	return s.PushUpdate(ctx, id, &status, nil)
}

// GetOrder serves from the read cache and falls back to the store.
func (s *Service) GetOrder(ctx context.Context, id int64) (models.OrderView, error) {
	ord, err := s.OrderCache.GetOrder(id)
	if err == nil {
		return models.NewOrderView(ord), nil
	}
	var ce cache.ErrorHandler
	if !errors.As(err, &ce) || ce.StatusCode != http.StatusNotFound {
		logrus.WithError(err).WithField("order_id", id).Warn("order cache read failed")
	}

	mu := s.cacheLock(id)
	mu.Lock()
	defer mu.Unlock()
	ord, err = s.load(ctx, id)
	if err != nil {
		return models.OrderView{}, err
	}
	s.OrderCache.PutOrder(ord)
	return models.NewOrderView(ord), nil
}

func (s *Service) ListOrders(ctx context.Context) ([]models.OrderView, error) {
	orders, err := s.OrderStore.List(ctx)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	out := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, models.NewOrderView(o))
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id int64) (models.Order, error) {
	ord, err := s.OrderStore.Get(ctx, id)
	if err != nil {
		return models.Order{}, s.storeErr("get order", err)
	}
	return ord, nil
}
