package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/syncclient"
)

const (
	reasonNotConfigured = "not configured"
	reasonUnchanged     = "unchanged"
)

// SyncResult reports what happened to the outbound push that followed a
// local mutation. The mutation itself is never undone by a failed push.
type SyncResult struct {
	Delivered  bool   `json:"delivered"`
	Skipped    bool   `json:"skipped"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

func skipped(reason string) SyncResult { return SyncResult{Skipped: true, Reason: reason} }

func fromClient(res syncclient.Result) SyncResult {
	out := SyncResult{Delivered: res.Delivered, StatusCode: res.StatusCode}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// PushUpdate sends a status and/or note for order id to the peer. The peer
// addresses the order by our internal id, so only orders linked to a peer
// order are pushed. Anything else is skipped with a warning.
func (s *Service) PushUpdate(ctx context.Context, id int64, status *string, note *models.Note) (SyncResult, error) {
	ord, err := s.load(ctx, id)
	if err != nil {
		return SyncResult{}, err
	}

	log := logrus.WithField("order_id", id)
	if s.peer == nil || !s.peer.Configured() || !ord.HasExternalID() {
		log.WithField("linked", ord.HasExternalID()).Warn("push skipped: peer not configured for order")
		return skipped(reasonNotConfigured), nil
	}
	if note != nil && note.Origin == models.OriginPeer {
		log.Debug("push skipped: note came from the peer")
		note = nil
	}
	if status == nil && note == nil {
		return skipped(reasonUnchanged), nil
	}

	upd := models.RemoteUpdate{Status: status}
	if note != nil {
		n := *note
		upd.Note = &n
	}
	return fromClient(s.peer.SendUpdate(ctx, ord.ID, upd)), nil
}
