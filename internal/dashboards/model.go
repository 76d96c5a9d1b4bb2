package dashboards

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"codm-backend/internal/docstore"
)

// Kind discriminates the two supported analysis shapes.
type Kind string

const (
	KindOverall  Kind = "overall"
	KindSeasonal Kind = "seasonal"
)

// ListLimit caps owner listings.
const ListLimit = 50

// Record is one stored analysis as returned by listings.
type Record struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	UserID    *string         `json:"userId"`
	Kind      Kind            `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
}

func fromDoc(rec docstore.Record) Record {
	return Record{
		ID:        rec.ID,
		Data:      rec.Data,
		UserID:    rec.UserID,
		Kind:      Kind(rec.Type),
		CreatedAt: rec.CreatedAt,
	}
}

// document is a shallow view of an analysis payload: only top-level keys are
// inspected, nested values stay opaque.
type document map[string]json.RawMessage

// parseDocument accepts a JSON object carrying either a profile or a
// seasonal_data field.
func parseDocument(data json.RawMessage) (document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidDocument
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !doc.has("profile") && !doc.has("seasonal_data") {
		return nil, ErrInvalidDocument
	}
	return doc, nil
}

func (d document) has(key string) bool {
	raw, ok := d[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// kind returns the explicit type when it names a known kind, otherwise it is
// inferred from seasonal_data.
func (d document) kind() Kind {
	if raw, ok := d["type"]; ok {
		var explicit string
		if err := json.Unmarshal(raw, &explicit); err == nil {
			// Any other explicit type, such as a legacy "season" value, is
			// ignored and the kind is inferred from seasonal_data below.
			switch Kind(explicit) {
			case KindOverall, KindSeasonal:
				return Kind(explicit)
			}
		}
	}
	if d.has("seasonal_data") {
		return KindSeasonal
	}
	return KindOverall
}
