package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Order struct {
	ID         int64     `json:"id"          gorm:"primary_key"`
	ExternalID *int64    `json:"external_id" gorm:"unique_index"`
	Status     string    `json:"status"      gorm:"type:text;not null;default:''"`
	Payload    Payload   `json:"payload"     gorm:"type:jsonb;not null"`
	Notes      []Note    `json:"notes"       gorm:"foreignkey:OrderID"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// HasExternalID reports whether the order is linked to a peer-side order.
func (o Order) HasExternalID() bool { return o.ExternalID != nil }

// OrderInput is what an upsert or a local create writes.
type OrderInput struct {
	ExternalID *int64
	Status     string
	Payload    Payload
	Notes      []Note
}

// RemoteUpdate is the partial update exchanged on PUT /orders/{id}. Nil
// fields are left alone.
type RemoteUpdate struct {
	Status *string `json:"status,omitempty"`
	Note   *Note   `json:"note,omitempty"`
}

func (u RemoteUpdate) Empty() bool { return u.Status == nil && u.Note == nil }

// Payload is an opaque JSON snapshot of the whole order. It is replaced as a
// value, never patched.
type Payload json.RawMessage

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(p).MarshalJSON()
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	if p == nil {
		return fmt.Errorf("models.Payload: UnmarshalJSON on nil pointer")
	}
	*p = append((*p)[:0], data...)
	return nil
}

func (p Payload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	return string(p), nil
}

func (p *Payload) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
	case []byte:
		*p = append(Payload(nil), v...)
	case string:
		*p = Payload(v)
	default:
		return fmt.Errorf("models.Payload: cannot scan %T", src)
	}
	return nil
}

// Clone returns an independent copy so callers cannot mutate a stored snapshot.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return append(Payload(nil), p...)
}

// WithField returns a copy of the payload object with key set to value.
func (p Payload) WithField(key string, value any) (Payload, error) {
	obj := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(p)) > 0 {
		if err := json.Unmarshal(p, &obj); err != nil {
			return nil, fmt.Errorf("payload is not a JSON object: %w", err)
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	obj[key] = raw
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return Payload(out), nil
}

// ParseExternalID accepts a JSON number or a numeric JSON string.
func ParseExternalID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
