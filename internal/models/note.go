package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/net/html"
)

type NoteOrigin string

const (
	// OriginLocal notes were written on this node and are pushed to the peer.
	OriginLocal NoteOrigin = "local"
	// OriginPeer notes arrived from the peer and are never pushed back.
	OriginPeer NoteOrigin = "peer"
)

type Note struct {
	ID             int64      `json:"-"                gorm:"primary_key"`
	OrderID        int64      `json:"-"                gorm:"not null;unique_index:ux_order_notes_seq"`
	Seq            int        `json:"-"                gorm:"not null;unique_index:ux_order_notes_seq"`
	Content        string     `json:"content"          gorm:"type:text;not null"`
	AddedBy        string     `json:"added_by"         gorm:"type:text"`
	IsCustomerNote bool       `json:"is_customer_note" gorm:"not null;default:false"`
	Origin         NoteOrigin `json:"origin"           gorm:"type:text;not null"`
	CreatedAt      time.Time  `json:"date"`
}

func (Note) TableName() string { return "order_notes" }

const mysqlDateTime = "2006-01-02 15:04:05"

// UnmarshalJSON accepts either a note object or a bare string holding the
// content, which is what older senders put in the "note" field.
func (n *Note) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var content string
		if err := json.Unmarshal(data, &content); err != nil {
			return err
		}
		*n = Note{Content: content}
		return nil
	}

	var wire struct {
		Content        string          `json:"content"`
		AddedBy        string          `json:"added_by"`
		Date           string          `json:"date"`
		IsCustomerNote json.RawMessage `json:"is_customer_note"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*n = Note{
		Content:        wire.Content,
		AddedBy:        wire.AddedBy,
		CreatedAt:      parseTime(wire.Date),
		IsCustomerNote: truthy(wire.IsCustomerNote),
	}
	return nil
}

// SanitizeText drops markup and surrounding whitespace from free text. Text
// is kept as written, so entities stay encoded and a stray "<" is escaped.
// Script and style bodies are dropped along with their tags.
func SanitizeText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	var inRaw bool
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if !inRaw {
				b.WriteString(strings.ReplaceAll(string(z.Raw()), "<", "&lt;"))
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); rawTextTag(name) {
				inRaw = true
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); rawTextTag(name) {
				inRaw = false
			}
		}
	}
}

func rawTextTag(name []byte) bool {
	return string(name) == "script" || string(name) == "style"
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", mysqlDateTime, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// truthy mirrors loose boolean flags: true, "1", "yes", 1.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "yes", "on":
			return true
		}
		return false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f != 0
	}
	return false
}
