package dashboards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"codm-backend/internal/docstore"
	"codm-backend/internal/shared/metrics"
	"codm-backend/internal/shared/telemetry"
)

// Service is the persistence gateway over the shared and per-owner collections.
type Service struct {
	Shared docstore.Collection
	Owned  docstore.Collection
	Now    func() time.Time
	NewID  func() (string, error)

	mu   sync.Mutex
	last time.Time
}

// NewService constructs a Service from a store.
func NewService(store docstore.Store) *Service {
	return &Service{
		Shared: store.Collection(docstore.SharedDashboards),
		Owned:  store.Collection(docstore.UserAnalyses),
		Now:    time.Now,
		NewID:  NewID,
	}
}

// CreateShare stores data in the shared collection only. An empty ownerID
// produces an anonymous share.
func (s *Service) CreateShare(ctx context.Context, data json.RawMessage, ownerID string) (id string, err error) {
	defer func() { metrics.IncDashboardOp("create_share", metrics.Outcome(err)) }()

	rec, err := s.newRecord(data, ownerID)
	if err != nil {
		return "", err
	}
	if err := s.Shared.Set(ctx, rec); err != nil {
		return "", storageErr("write shared", err)
	}
	return rec.ID, nil
}

// SaveAnalysis stores the same record in both collections, per-owner copy
// first. The writes are not atomic; a failure between them leaves a listed
// record with no shared copy, which Reconcile copies back.
func (s *Service) SaveAnalysis(ctx context.Context, data json.RawMessage, ownerID string) (id string, err error) {
	defer func() { metrics.IncDashboardOp("save_analysis", metrics.Outcome(err)) }()

	if ownerID == "" {
		return "", ErrUnauthorized
	}
	rec, err := s.newRecord(data, ownerID)
	if err != nil {
		return "", err
	}
	if err := s.Owned.Set(ctx, rec); err != nil {
		return "", storageErr("write owned", err)
	}
	if err := s.Shared.Set(ctx, rec); err != nil {
		return "", storageErr("write shared", err)
	}
	return rec.ID, nil
}

// GetByID resolves a share link: shared collection first, then per-owner.
// Reads are not access-controlled.
func (s *Service) GetByID(ctx context.Context, id string) (data json.RawMessage, err error) {
	defer func() { metrics.IncDashboardOp("get", metrics.Outcome(err)) }()

	rec, _, err := s.find(ctx, id, s.Shared, s.Owned)
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

// ListByOwner returns up to ListLimit records newest first. When the owner has
// nothing in the per-owner collection the shared collection is queried
// instead; the two are never merged.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) (out []Record, err error) {
	defer func() { metrics.IncDashboardOp("list", metrics.Outcome(err)) }()

	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	recs, err := s.Owned.ListByUser(ctx, ownerID, ListLimit)
	if err != nil {
		return nil, storageErr("list owned", err)
	}
	if len(recs) == 0 {
		recs, err = s.Shared.ListByUser(ctx, ownerID, ListLimit)
		if err != nil {
			return nil, storageErr("list shared", err)
		}
	}

	out = make([]Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromDoc(rec))
	}
	return out, nil
}

// DeleteByID removes a record the requester owns. The copy in the other
// collection is removed best-effort; that failure is logged, never returned.
func (s *Service) DeleteByID(ctx context.Context, id, requesterID string) (err error) {
	defer func() { metrics.IncDashboardOp("delete", metrics.Outcome(err)) }()

	if requesterID == "" {
		return ErrUnauthorized
	}
	rec, primary, err := s.find(ctx, id, s.Owned, s.Shared)
	if err != nil {
		return err
	}
	if rec.UserID == nil || *rec.UserID != requesterID {
		return ErrForbidden
	}

	if err := primary.Delete(ctx, id); err != nil {
		return storageErr("delete", err)
	}

	other := s.Shared
	if primary == s.Shared {
		other = s.Owned
	}
	if err := other.Delete(ctx, id); err != nil {
		metrics.IncCleanupFailure()
		telemetry.Warn("dashboard.cleanup_failed", map[string]any{
			"dashboard_id": id,
			"error":        err,
		})
	}
	return nil
}

// find looks id up in each collection in order and reports where it was found.
func (s *Service) find(ctx context.Context, id string, order ...docstore.Collection) (docstore.Record, docstore.Collection, error) {
	if id == "" {
		return docstore.Record{}, nil, ErrNotFound
	}
	for _, col := range order {
		rec, err := col.Get(ctx, id)
		if err == nil {
			return rec, col, nil
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return docstore.Record{}, nil, storageErr("get", err)
		}
	}
	return docstore.Record{}, nil, ErrNotFound
}

func (s *Service) newRecord(data json.RawMessage, ownerID string) (docstore.Record, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return docstore.Record{}, err
	}
	newID := NewID
	if s.NewID != nil {
		newID = s.NewID
	}
	id, err := newID()
	if err != nil {
		return docstore.Record{}, fmt.Errorf("generate id: %w", err)
	}
	return docstore.Record{
		ID:        id,
		Data:      append(json.RawMessage(nil), data...),
		UserID:    docstore.StringPtr(ownerID),
		Type:      string(doc.kind()),
		CreatedAt: s.timestamp(),
	}, nil
}

// timestamp returns a UTC time no earlier than any previously issued.
func (s *Service) timestamp() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := now().UTC()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
