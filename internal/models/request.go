package models

import "encoding/json"

// NoteRequest is the body of POST /orders/{id}/notes.
type NoteRequest struct {
	Content        string `json:"content"          validate:"required,max=10000"`
	IsCustomerNote bool   `json:"is_customer_note"`
}

func (r *NoteRequest) UnmarshalJSON(data []byte) error {
	var wire struct {
		Content        string          `json:"content"`
		IsCustomerNote json.RawMessage `json:"is_customer_note"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = NoteRequest{Content: wire.Content, IsCustomerNote: truthy(wire.IsCustomerNote)}
	return nil
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,max=64"`
}

// OrderAck is the peer's answer to POST /orders.
type OrderAck struct {
	Success      bool   `json:"success"`
	OrderID      int64  `json:"order_id"`
	StoreOrderID int64  `json:"store_order_id"`
	Message      string `json:"message,omitempty"`
}
