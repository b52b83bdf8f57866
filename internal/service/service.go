package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/repository"
	"hub-order-sync/internal/syncclient"
)

// Order is everything the HTTP layer needs from the service.
type Order interface {
	CreateOrUpdateFromPeer(ctx context.Context, raw []byte) (UpsertResult, error)
	ApplyPeerUpdate(ctx context.Context, externalID int64, raw []byte) error
	AddNoteFromPeer(ctx context.Context, externalID int64, req models.NoteRequest) (models.Note, SyncResult, error)

	CreateLocalOrder(ctx context.Context, raw []byte) (models.OrderView, error)
	PublishOrder(ctx context.Context, id int64) (models.OrderView, SyncResult, error)
	SetStatus(ctx context.Context, id int64, status string) (models.OrderView, SyncResult, error)
	AddLocalNote(ctx context.Context, id int64, req models.NoteRequest, author string) (models.Note, SyncResult, error)
	Resync(ctx context.Context, id int64) (SyncResult, error)
	GetOrder(ctx context.Context, id int64) (models.OrderView, error)
	ListOrders(ctx context.Context) ([]models.OrderView, error)
}

// Peer is the outbound side of the sync channel.
type Peer interface {
	Configured() bool
	SendUpdate(ctx context.Context, ref int64, upd models.RemoteUpdate) syncclient.Result
	SendOrder(ctx context.Context, payload []byte) (syncclient.Result, int64)
}

// Journal receives an event for every applied mutation.
type Journal interface {
	Publish(ctx context.Context, ev models.Event) error
}

type UpsertResult struct {
	OrderID      int64 `json:"order_id"`
	StoreOrderID int64 `json:"store_order_id"`
	Created      bool  `json:"-"`
}

type Service struct {
	repository.OrderStore
	repository.OrderCache

	peer      Peer
	journal   Journal
	node      string
	peerLabel string
	v         *validator.Validate
	now       func() time.Time

	cacheLocks [32]sync.Mutex
}

type Option func(*Service)

func WithJournal(j Journal) Option { return func(s *Service) { s.journal = j } }

func WithNodeName(name string) Option { return func(s *Service) { s.node = name } }

// WithPeerLabel names the peer as the author of notes it sends.
func WithPeerLabel(label string) Option { return func(s *Service) { s.peerLabel = label } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo *repository.Repository, peer Peer, opts ...Option) *Service {
	s := &Service{
		OrderStore: repo.OrderStore,
		OrderCache: repo.OrderCache,
		peer:       peer,
		node:       "hub",
		peerLabel:  "peer",
		v:          validator.New(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ Order = (*Service)(nil)
