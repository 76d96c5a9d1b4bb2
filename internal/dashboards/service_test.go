package dashboards

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codm-backend/internal/docstore"
)

const (
	overallDoc  = `{"profile":{"name":"Ghost","level":150},"combatRecord":{"kd":1.8}}`
	seasonalDoc = `{"player_info":{"name":"Ghost"},"seasonal_data":[{"season":"S5"}]}`
)

type fixture struct {
	svc    *Service
	shared *docstore.MemoryCollection
	owned  *docstore.MemoryCollection
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	f := &fixture{
		shared: store.Collection(docstore.SharedDashboards).(*docstore.MemoryCollection),
		owned:  store.Collection(docstore.UserAnalyses).(*docstore.MemoryCollection),
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(store)
	f.svc.Now = func() time.Time {
		f.now = f.now.Add(time.Second)
		return f.now
	}
	return f
}

func sequentialIDs(ids ...string) func() (string, error) {
	return func() (string, error) {
		if len(ids) == 0 {
			return "", errors.New("out of ids")
		}
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
}

func TestSaveAnalysisRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user1")
	require.NoError(t, err)

	got, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, overallDoc, string(got))
}

func TestSaveAnalysisWritesBothCollections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SaveAnalysis(ctx, json.RawMessage(seasonalDoc), "user1")
	require.NoError(t, err)

	owned, err := f.owned.Get(ctx, id)
	require.NoError(t, err)
	shared, err := f.shared.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, owned, shared)
	assert.Equal(t, "user1", owned.Owner())
	assert.Equal(t, string(KindSeasonal), owned.Type)
}

func TestCreateShareAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateShare(ctx, json.RawMessage(overallDoc), "")
	require.NoError(t, err)

	got, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, overallDoc, string(got))

	rec, err := f.shared.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec.UserID)
	assert.Equal(t, 0, f.owned.Len())
}

func TestSaveAnalysisRequiresOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SaveAnalysis(context.Background(), json.RawMessage(overallDoc), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, f.shared.Len())
}

func TestInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty object":  `{}`,
		"array":         `[{"profile":{}}]`,
		"scalar":        `"profile"`,
		"null":          `null`,
		"null profile":  `{"profile":null}`,
		"unrelated key": `{"stats":{"kd":1}}`,
		"broken json":   `{"profile":`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			_, err := f.svc.SaveAnalysis(ctx, json.RawMessage(raw), "user1")
			assert.ErrorIs(t, err, ErrInvalidDocument)

			_, err = f.svc.CreateShare(ctx, json.RawMessage(raw), "")
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestKindInference(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want Kind
	}{
		{"profile only", `{"profile":{}}`, KindOverall},
		{"seasonal data", seasonalDoc, KindSeasonal},
		{"explicit type wins", `{"type":"overall","seasonal_data":[]}`, KindOverall},
		{"explicit seasonal", `{"type":"seasonal","profile":{}}`, KindSeasonal},
		{"unknown type ignored", `{"type":"ranked","seasonal_data":[]}`, KindSeasonal},
		{"unknown type without seasons", `{"type":"ranked","profile":{}}`, KindOverall},
		{"non-string type", `{"type":1,"profile":{}}`, KindOverall},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			id, err := f.svc.SaveAnalysis(ctx, json.RawMessage(tc.doc), "user1")
			require.NoError(t, err)

			rec, err := f.owned.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, string(tc.want), rec.Type)
		})
	}
}

func TestGetByIDFallsBackToOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.owned.Set(ctx, docstore.Record{
		ID:     "legacy1",
		Data:   json.RawMessage(overallDoc),
		UserID: docstore.StringPtr("user1"),
		Type:   string(KindOverall),
	}))

	got, err := f.svc.GetByID(ctx, "legacy1")
	require.NoError(t, err)
	assert.JSONEq(t, overallDoc, string(got))

	_, err = f.svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDPrefersShared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.owned.Set(ctx, docstore.Record{ID: "dup", Data: json.RawMessage(`{"profile":{"v":1}}`)}))
	require.NoError(t, f.shared.Set(ctx, docstore.Record{ID: "dup", Data: json.RawMessage(`{"profile":{"v":2}}`)}))

	got, err := f.svc.GetByID(ctx, "dup")
	require.NoError(t, err)
	assert.JSONEq(t, `{"profile":{"v":2}}`, string(got))
}

func TestDeleteByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user1")
	require.NoError(t, err)

	err = f.svc.DeleteByID(ctx, id, "otherUser")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.GetByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteByID(ctx, id, "user1"))
	_, err = f.svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, f.owned.Len())
	assert.Equal(t, 0, f.shared.Len())

	assert.ErrorIs(t, f.svc.DeleteByID(ctx, id, "user1"), ErrNotFound)
}

func TestDeleteByIDSharedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateShare(ctx, json.RawMessage(overallDoc), "user1")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteByID(ctx, id, "user1"))
	_, err = f.svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByIDAnonymousIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateShare(ctx, json.RawMessage(overallDoc), "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteByID(ctx, id, "user1"), ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteByID(ctx, id, ""), ErrUnauthorized)
}

func TestDeleteByIDSwallowsCleanupFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user1")
	require.NoError(t, err)

	f.svc.Shared = &failingCollection{Collection: f.shared, failDelete: true}
	require.NoError(t, f.svc.DeleteByID(ctx, id, "user1"))

	_, err = f.owned.Get(ctx, id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestListByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user1")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user2")
	require.NoError(t, err)

	recs, err := f.svc.ListByOwner(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, "user1", *rec.UserID)
		if i > 0 {
			assert.False(t, rec.CreatedAt.After(recs[i-1].CreatedAt))
		}
	}
	assert.Equal(t, ids[2], recs[0].ID)
}

func TestListByOwnerSharedFallbackIsNotMerged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shareID, err := f.svc.CreateShare(ctx, json.RawMessage(overallDoc), "user1")
	require.NoError(t, err)

	recs, err := f.svc.ListByOwner(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, shareID, recs[0].ID)

	savedID, err := f.svc.SaveAnalysis(ctx, json.RawMessage(seasonalDoc), "user1")
	require.NoError(t, err)

	recs, err = f.svc.ListByOwner(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, savedID, recs[0].ID)
	assert.Equal(t, KindSeasonal, recs[0].Kind)
}

func TestListByOwnerCapsResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < ListLimit+5; i++ {
		_, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user1")
		require.NoError(t, err)
	}

	recs, err := f.svc.ListByOwner(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, recs, ListLimit)
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	times := []time.Time{
		time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC),
		time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC),
	}
	f.svc.Now = func() time.Time {
		ts := times[0]
		times = times[1:]
		return ts
	}
	f.svc.NewID = sequentialIDs("first", "second")

	_, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user1")
	require.NoError(t, err)
	_, err = f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user1")
	require.NoError(t, err)

	first, err := f.owned.Get(ctx, "first")
	require.NoError(t, err)
	second, err := f.owned.Get(ctx, "second")
	require.NoError(t, err)
	assert.False(t, second.CreatedAt.Before(first.CreatedAt))
}

func TestStorageFailuresPropagate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Shared = &failingCollection{Collection: f.shared, failSet: true, failGet: true}

	_, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "user1")
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errBoom)

	_, err = f.svc.CreateShare(ctx, json.RawMessage(overallDoc), "")
	assert.ErrorIs(t, err, ErrStorage)

	_, err = f.svc.GetByID(ctx, "any")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestScenarioSaveGetListDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.NewID = sequentialIDs("abc123")

	id, err := f.svc.SaveAnalysis(ctx, json.RawMessage(overallDoc), "u1")
	require.NoError(t, err)
	require.Equal(t, "abc123", id)

	got, err := f.svc.GetByID(ctx, "abc123")
	require.NoError(t, err)
	assert.JSONEq(t, overallDoc, string(got))

	recs, err := f.svc.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "abc123", recs[0].ID)
	assert.Equal(t, KindOverall, recs[0].Kind)

	require.NoError(t, f.svc.DeleteByID(ctx, "abc123", "u1"))
	_, err = f.svc.GetByID(ctx, "abc123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewID()
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9a-f]{16}$`, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

var errBoom = errors.New("boom")

type failingCollection struct {
	docstore.Collection
	failGet    bool
	failSet    bool
	failDelete bool
}

func (c *failingCollection) Get(ctx context.Context, id string) (docstore.Record, error) {
	if c.failGet {
		return docstore.Record{}, errBoom
	}
	return c.Collection.Get(ctx, id)
}

func (c *failingCollection) Set(ctx context.Context, rec docstore.Record) error {
	if c.failSet {
		return errBoom
	}
	return c.Collection.Set(ctx, rec)
}

func (c *failingCollection) Delete(ctx context.Context, id string) error {
	if c.failDelete {
		return errBoom
	}
	return c.Collection.Delete(ctx, id)
}
