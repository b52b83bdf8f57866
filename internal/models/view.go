package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ShippingLeadTime is added to an order's creation date to get its shipping date.
const ShippingLeadTime = 14 * 24 * time.Hour

type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// OrderView is the read model served to dashboards and the CLI.
type OrderView struct {
	ID             int64           `json:"id"`
	ExternalID     *int64          `json:"external_id"`
	Title          string          `json:"title"`
	Status         string          `json:"status"`
	Customer       json.RawMessage `json:"customer"`
	DateCreated    string          `json:"date_created"`
	ShippingDate   string          `json:"shipping_date"`
	LineItems      []LineItem      `json:"line_items"`
	Notes          []Note          `json:"notes"`
	PaymentMethod  string          `json:"payment_method"`
	ShippingMethod json.RawMessage `json:"shipping_method"`
	Total          decimal.Decimal `json:"total"`
}

type snapshot struct {
	DateCreated   string          `json:"date_created"`
	Customer      json.RawMessage `json:"customer"`
	LineItems     []LineItem      `json:"line_items"`
	PaymentMethod string          `json:"payment_method"`
	Shipping      json.RawMessage `json:"shipping"`
}

// NewOrderView projects an order and its payload snapshot. Unknown or
// malformed payload fields are left empty rather than failing the read.
func NewOrderView(o Order) OrderView {
	v := OrderView{
		ID:         o.ID,
		ExternalID: o.ExternalID,
		Title:      Title(o),
		Status:     o.Status,
		Notes:      o.Notes,
		Customer:   json.RawMessage("{}"),
		LineItems:  []LineItem{},
		Total:      decimal.Zero,
	}
	if v.Notes == nil {
		v.Notes = []Note{}
	}

	var s snapshot
	if len(o.Payload) > 0 && json.Unmarshal(o.Payload, &s) == nil {
		v.DateCreated = s.DateCreated
		v.ShippingDate = ShippingDate(s.DateCreated)
		v.PaymentMethod = s.PaymentMethod
		v.ShippingMethod = s.Shipping
		if len(s.Customer) > 0 {
			v.Customer = s.Customer
		}
		if s.LineItems != nil {
			v.LineItems = s.LineItems
		}
		for _, li := range v.LineItems {
			v.Total = v.Total.Add(li.Total)
		}
	}
	return v
}

func Title(o Order) string {
	if o.ExternalID != nil {
		return fmt.Sprintf("Order #%d", *o.ExternalID)
	}
	return fmt.Sprintf("Order #%d", o.ID)
}

// ShippingDate returns dateCreated plus ShippingLeadTime formatted as
// "2006-01-02 15:04:05", or "" if the date is empty or unparsable.
func ShippingDate(dateCreated string) string {
	t := parseTime(dateCreated)
	if t.IsZero() {
		return ""
	}
	return t.Add(ShippingLeadTime).Format(mysqlDateTime)
}
