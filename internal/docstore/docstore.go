// Package docstore is the document-store collaborator behind the dashboards
// gateway: named collections of JSON records keyed by opaque string ids.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Collection names shared by every backend.
const (
	UserAnalyses     = "userAnalyses"
	SharedDashboards = "sharedDashboards"
)

// ErrNotFound is returned by Get when the id is absent.
var ErrNotFound = errors.New("document not found")

// Record is one stored document.
type Record struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	UserID    *string         `json:"userId"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Owner returns the owner id, or "" for anonymous records.
func (r Record) Owner() string {
	if r.UserID == nil {
		return ""
	}
	return *r.UserID
}

// Collection is a keyed set of records with an owner index.
type Collection interface {
	Get(ctx context.Context, id string) (Record, error)
	// Set creates or replaces the record stored under rec.ID.
	Set(ctx context.Context, rec Record) error
	// Delete removes id; deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	// ListByUser returns the owner's records, newest first, at most limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)
	// Each visits every record in the collection.
	Each(ctx context.Context, fn func(Record) error) error
}

// Store hands out collections and owns the underlying connection.
type Store interface {
	Collection(name string) Collection
	Close() error
}

// StringPtr returns nil for an empty owner.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
