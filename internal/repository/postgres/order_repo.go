package postgres

import (
	"context"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"hub-order-sync/internal/models"
	"hub-order-sync/internal/repository"
)

const uniqueViolation = "23505"

type OrderPostgresRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOrderPostgres(db *gorm.DB) *OrderPostgresRepo {
	return &OrderPostgresRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ repository.OrderStore = (*OrderPostgresRepo)(nil)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *OrderPostgresRepo) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.BeginTx(ctx, nil).
		Set("gorm:association_autocreate", false).
		Set("gorm:association_autoupdate", false)
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "begin tx")
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit().Error, "commit tx")
}

func withNotes(db *gorm.DB) *gorm.DB {
	return db.Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") })
}

func forUpdate(tx *gorm.DB) *gorm.DB { return tx.Set("gorm:query_option", "FOR UPDATE") }

// Reads do not take a context: jinzhu/gorm has no per-query context support
// outside transactions.

func (r *OrderPostgresRepo) FindByExternalID(_ context.Context, externalID int64) (models.Order, error) {
	var o models.Order
	err := withNotes(r.db).Where("external_id = ?", externalID).First(&o).Error
	return o, mapErr(err, "find order by external id")
}

func (r *OrderPostgresRepo) Get(_ context.Context, id int64) (models.Order, error) {
	var o models.Order
	err := withNotes(r.db).Where("id = ?", id).First(&o).Error
	return o, mapErr(err, "get order")
}

func (r *OrderPostgresRepo) List(_ context.Context) ([]models.Order, error) {
	var out []models.Order
	if err := withNotes(r.db).Order("id DESC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return out, nil
}

func mapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case gorm.IsRecordNotFoundError(err):
		return repository.ErrNotFound
	default:
		return errors.Wrap(err, op)
	}
}

func (r *OrderPostgresRepo) Create(ctx context.Context, in models.OrderInput) (int64, error) {
	var id int64
	err := r.inTx(ctx, func(tx *gorm.DB) error {
		var err error
		id, err = r.insert(tx, in)
		return err
	})
	if isUniqueViolation(err) {
		return 0, repository.ErrDuplicateExternalID
	}
	return id, err
}

// CreateOrUpdate locks the row for in.ExternalID and merges into it, or
// inserts a new order. When two first-time creates race, the loser hits the
// unique index and is replayed once as a merge.
func (r *OrderPostgresRepo) CreateOrUpdate(ctx context.Context, in models.OrderInput) (int64, bool, error) {
	id, created, err := r.upsert(ctx, in)
	if isUniqueViolation(err) {
		id, created, err = r.upsert(ctx, in)
	}
	return id, created, err
}

func (r *OrderPostgresRepo) upsert(ctx context.Context, in models.OrderInput) (id int64, created bool, err error) {
	err = r.inTx(ctx, func(tx *gorm.DB) error {
		if in.ExternalID != nil {
			var cur models.Order
			err := forUpdate(tx).Where("external_id = ?", *in.ExternalID).First(&cur).Error
			switch {
			case err == nil:
				id = cur.ID
				return r.merge(tx, cur.ID, in)
			case !gorm.IsRecordNotFoundError(err):
				return errors.Wrap(err, "lock order")
			}
		}
		var err error
		id, err = r.insert(tx, in)
		created = err == nil
		return err
	})
	return id, created, err
}

func (r *OrderPostgresRepo) insert(tx *gorm.DB, in models.OrderInput) (int64, error) {
	now := r.now()
	o := models.Order{
		ExternalID: in.ExternalID,
		Status:     in.Status,
		Payload:    in.Payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.Create(&o).Error; err != nil {
		return 0, errors.Wrap(err, "insert order")
	}
	for i, n := range in.Notes {
		if _, err := r.insertNote(tx, o.ID, i+1, n); err != nil {
			return 0, err
		}
	}
	return o.ID, nil
}

func (r *OrderPostgresRepo) merge(tx *gorm.DB, id int64, in models.OrderInput) error {
	fields := map[string]interface{}{"payload": in.Payload, "updated_at": r.now()}
	if in.Status != "" {
		fields["status"] = in.Status
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return errors.Wrap(err, "update order")
	}
	if len(in.Notes) == 0 {
		return nil
	}
	seq, err := lastSeq(tx, id)
	if err != nil {
		return err
	}
	for _, n := range in.Notes {
		seq++
		if _, err := r.insertNote(tx, id, seq, n); err != nil {
			return err
		}
	}
	return nil
}

func lastSeq(tx *gorm.DB, orderID int64) (int, error) {
	var seq int
	row := tx.Model(&models.Note{}).Where("order_id = ?", orderID).Select("COALESCE(MAX(seq), 0)").Row()
	if err := row.Scan(&seq); err != nil {
		return 0, errors.Wrap(err, "read note sequence")
	}
	return seq, nil
}

func (r *OrderPostgresRepo) insertNote(tx *gorm.DB, orderID int64, seq int, n models.Note) (models.Note, error) {
	n.ID = 0
	n.OrderID = orderID
	n.Seq = seq
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	if n.Origin == "" {
		n.Origin = models.OriginLocal
	}
	if err := tx.Create(&n).Error; err != nil {
		return models.Note{}, errors.Wrap(err, "insert note")
	}
	return n, nil
}

// lock loads the order row FOR UPDATE inside tx.
func lock(tx *gorm.DB, id int64) (models.Order, error) {
	var o models.Order
	err := forUpdate(tx).Where("id = ?", id).First(&o).Error
	return o, mapErr(err, "lock order")
}

func (r *OrderPostgresRepo) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	var prev string
	err := r.inTx(ctx, func(tx *gorm.DB) error {
		o, err := lock(tx, id)
		if err != nil {
			return err
		}
		prev = o.Status
		return errors.Wrap(tx.Model(&models.Order{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": status, "updated_at": r.now()}).Error, "update status")
	})
	return prev, err
}

func (r *OrderPostgresRepo) AppendNote(ctx context.Context, id int64, note models.Note) (models.Note, error) {
	var out models.Note
	err := r.inTx(ctx, func(tx *gorm.DB) error {
		if _, err := lock(tx, id); err != nil {
			return err
		}
		seq, err := lastSeq(tx, id)
		if err != nil {
			return err
		}
		out, err = r.insertNote(tx, id, seq+1, note)
		return err
	})
	return out, err
}

func (r *OrderPostgresRepo) MergeRemoteUpdate(ctx context.Context, id int64, upd models.RemoteUpdate) error {
	return r.inTx(ctx, func(tx *gorm.DB) error {
		if _, err := lock(tx, id); err != nil {
			return err
		}
		fields := map[string]interface{}{"updated_at": r.now()}
		if upd.Status != nil {
			fields["status"] = *upd.Status
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return errors.Wrap(err, "update order")
		}
		if upd.Note == nil {
			return nil
		}
		seq, err := lastSeq(tx, id)
		if err != nil {
			return err
		}
		_, err = r.insertNote(tx, id, seq+1, *upd.Note)
		return err
	})
}

func (r *OrderPostgresRepo) LinkExternalID(ctx context.Context, id, externalID int64) error {
	err := r.inTx(ctx, func(tx *gorm.DB) error {
		if _, err := lock(tx, id); err != nil {
			return err
		}
		return errors.Wrap(tx.Model(&models.Order{}).Where("id = ?", id).
			Updates(map[string]interface{}{"external_id": externalID, "updated_at": r.now()}).Error, "link external id")
	})
	if isUniqueViolation(err) {
		return repository.ErrDuplicateExternalID
	}
	return err
}
