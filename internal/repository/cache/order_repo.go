package cache

import (
	"fmt"
	"net/http"
	"strconv"

	"hub-order-sync/internal/models"
)

// OrderCacheRepo keeps order snapshots keyed by internal id.
type OrderCacheRepo struct {
	cch KV
}

func NewOrderCache(cch KV) *OrderCacheRepo {
	return &OrderCacheRepo{cch: cch}
}

func key(id int64) string { return strconv.FormatInt(id, 10) }

func (o *OrderCacheRepo) PutOrder(ord models.Order) {
	ord.Payload = ord.Payload.Clone()
	ord.Notes = append([]models.Note(nil), ord.Notes...)
	o.cch.Put(key(ord.ID), ord)
}

func (o *OrderCacheRepo) GetOrder(id int64) (models.Order, error) {
	v, ok := o.cch.Get(key(id))
	if !ok {
		return models.Order{}, NewErrorHandler(fmt.Errorf("order %d not found", id), http.StatusNotFound)
	}

	ord, ok := v.(models.Order)
	if !ok {
		return models.Order{},
			NewErrorHandler(fmt.Errorf("failed to convert order %d to its struct", id),
				http.StatusInternalServerError)
	}
	return ord, nil
}

func (o *OrderCacheRepo) DeleteOrder(id int64) {
	o.cch.Delete(key(id))
}
