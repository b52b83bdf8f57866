// Package memory is an in-process OrderStore for tests and single-node runs.
// Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/repository"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*models.Order
	byExt  map[int64]int64
	now    func() time.Time
}

func NewStore() *Store {
	return &Store{
		orders: make(map[int64]*models.Order),
		byExt:  make(map[int64]int64),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.OrderStore = (*Store)(nil)

func clone(o *models.Order) models.Order {
	out := *o
	out.Payload = o.Payload.Clone()
	out.Notes = append([]models.Note(nil), o.Notes...)
	if o.ExternalID != nil {
		ext := *o.ExternalID
		out.ExternalID = &ext
	}
	return out
}

func (s *Store) FindByExternalID(_ context.Context, externalID int64) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byExt[externalID]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}
	return clone(s.orders[id]), nil
}

func (s *Store) Get(_ context.Context, id int64) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, repository.ErrNotFound
	}
	return clone(o), nil
}

func (s *Store) List(_ context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, clone(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) Create(_ context.Context, in models.OrderInput) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.ExternalID != nil {
		if _, dup := s.byExt[*in.ExternalID]; dup {
			return 0, repository.ErrDuplicateExternalID
		}
	}
	return s.insert(in), nil
}

func (s *Store) CreateOrUpdate(_ context.Context, in models.OrderInput) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.ExternalID != nil {
		if id, ok := s.byExt[*in.ExternalID]; ok {
			o := s.orders[id]
			o.Payload = in.Payload.Clone()
			if in.Status != "" {
				o.Status = in.Status
			}
			for _, n := range in.Notes {
				s.appendLocked(o, n)
			}
			o.UpdatedAt = s.now()
			return id, false, nil
		}
	}
	return s.insert(in), true, nil
}

func (s *Store) insert(in models.OrderInput) int64 {
	s.nextID++
	now := s.now()
	o := &models.Order{
		ID:        s.nextID,
		Status:    in.Status,
		Payload:   in.Payload.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.ExternalID != nil {
		ext := *in.ExternalID
		o.ExternalID = &ext
		s.byExt[ext] = o.ID
	}
	for _, n := range in.Notes {
		s.appendLocked(o, n)
	}
	s.orders[o.ID] = o
	return o.ID
}

func (s *Store) appendLocked(o *models.Order, n models.Note) models.Note {
	n.ID = 0
	n.OrderID = o.ID
	n.Seq = len(o.Notes) + 1
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if n.Origin == "" {
		n.Origin = models.OriginLocal
	}
	o.Notes = append(o.Notes, n)
	return n
}

func (s *Store) UpdateStatus(_ context.Context, id int64, status string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	prev := o.Status
	o.Status = status
	o.UpdatedAt = s.now()
	return prev, nil
}

func (s *Store) AppendNote(_ context.Context, id int64, note models.Note) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Note{}, repository.ErrNotFound
	}
	n := s.appendLocked(o, note)
	o.UpdatedAt = s.now()
	return n, nil
}

func (s *Store) MergeRemoteUpdate(_ context.Context, id int64, upd models.RemoteUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.Status != nil {
		o.Status = *upd.Status
	}
	if upd.Note != nil {
		s.appendLocked(o, *upd.Note)
	}
	o.UpdatedAt = s.now()
	return nil
}

func (s *Store) LinkExternalID(_ context.Context, id, externalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if owner, taken := s.byExt[externalID]; taken && owner != id {
		return repository.ErrDuplicateExternalID
	}
	if o.ExternalID != nil {
		delete(s.byExt, *o.ExternalID)
	}
	ext := externalID
	o.ExternalID = &ext
	s.byExt[ext] = id
	o.UpdatedAt = s.now()
	return nil
}
