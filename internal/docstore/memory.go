package docstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps collections in process memory and is safe for concurrent use.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*MemoryCollection
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*MemoryCollection)}
}

// Collection returns the named collection, creating it on first use.
func (s *MemoryStore) Collection(name string) Collection {
	return s.memory(name)
}

func (s *MemoryStore) memory(name string) *MemoryCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &MemoryCollection{byID: make(map[string]Record)}
		s.collections[name] = c
	}
	return c
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// MemoryCollection is an in-memory Collection.
type MemoryCollection struct {
	mu   sync.RWMutex
	byID map[string]Record
}

func (c *MemoryCollection) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return clone(rec), nil
}

func (c *MemoryCollection) Set(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[rec.ID] = clone(rec)
	return nil
}

func (c *MemoryCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	return nil
}

func (c *MemoryCollection) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	out := make([]Record, 0)
	for _, rec := range c.byID {
		if rec.UserID != nil && *rec.UserID == userID {
			out = append(out, clone(rec))
		}
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *MemoryCollection) Each(ctx context.Context, fn func(Record) error) error {
	c.mu.RLock()
	snapshot := make([]Record, 0, len(c.byID))
	for _, rec := range c.byID {
		snapshot = append(snapshot, clone(rec))
	}
	c.mu.RUnlock()

	for _, rec := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of stored records.
func (c *MemoryCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func clone(rec Record) Record {
	out := rec
	if rec.Data != nil {
		out.Data = append([]byte(nil), rec.Data...)
	}
	if rec.UserID != nil {
		owner := *rec.UserID
		out.UserID = &owner
	}
	return out
}

var (
	_ Store      = (*MemoryStore)(nil)
	_ Collection = (*MemoryCollection)(nil)
)
