package repository

import (
	"context"
	"errors"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/repository/cache"
)

var (
	ErrNotFound            = errors.New("order not found")
	ErrDuplicateExternalID = errors.New("duplicate external id")
)

// OrderStore is the persistent keyed store for orders. Implementations run
// every read-then-write on one order as a single critical section.
type OrderStore interface {
	FindByExternalID(ctx context.Context, externalID int64) (models.Order, error)
	Get(ctx context.Context, id int64) (models.Order, error)
	List(ctx context.Context) ([]models.Order, error)

	Create(ctx context.Context, in models.OrderInput) (int64, error)
	CreateOrUpdate(ctx context.Context, in models.OrderInput) (id int64, created bool, err error)
	UpdateStatus(ctx context.Context, id int64, status string) (previous string, err error)
	AppendNote(ctx context.Context, id int64, note models.Note) (models.Note, error)
	MergeRemoteUpdate(ctx context.Context, id int64, upd models.RemoteUpdate) error
	LinkExternalID(ctx context.Context, id, externalID int64) error
}

type OrderCache interface {
	PutOrder(order models.Order)
	GetOrder(id int64) (models.Order, error)
	DeleteOrder(id int64)
}

type Repository struct {
	OrderStore
	OrderCache
}

func NewRepository(store OrderStore, kv cache.KV) *Repository {
	return &Repository{
		OrderStore: store,
		OrderCache: cache.NewOrderCache(kv),
	}
}
