package models

import "time"

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderMerged        EventType = "order.merged"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventOrderNoteAdded     EventType = "order.note_added"
	EventOrderPublished     EventType = "order.published"
)

// Event is one entry of the sync journal.
type Event struct {
	Type       EventType  `json:"type"`
	OrderID    int64      `json:"order_id"`
	ExternalID *int64     `json:"external_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Note       string     `json:"note,omitempty"`
	Origin     NoteOrigin `json:"origin,omitempty"`
	Node       string     `json:"node"`
	At         time.Time  `json:"at"`
}
