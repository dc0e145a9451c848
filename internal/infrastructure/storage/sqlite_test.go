package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketTagger/internal/domain"
)

func openTestStore(t *testing.T, ttl time.Duration) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "tagger.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndListRuns(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, 0)

	base := time.Date(2025, time.November, 8, 6, 0, 0, 0, time.UTC)
	older := domain.RunRecord{
		ID: "01A", Account: "default", StartedAt: base, FinishedAt: base.Add(time.Second),
		Articles: 3, Failed: 1, Actions: 3, Stats: domain.Stats{URLs: 2, Tags: 2},
	}
	newer := domain.RunRecord{
		ID: "01B", Account: "default", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second),
		Error: "fetch articles: boom",
	}

	require.NoError(t, store.SaveRun(ctx, older))
	require.NoError(t, store.SaveRun(ctx, newer))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer, runs[0])
	assert.Equal(t, older, runs[1])

	runs, err = store.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "01B", runs[0].ID)
}

func TestSaveRunUpserts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, 0)

	run := domain.RunRecord{ID: "01A", Account: "default", StartedAt: time.Unix(100, 0).UTC(), FinishedAt: time.Unix(101, 0).UTC()}
	require.NoError(t, store.SaveRun(ctx, run))

	run.Stats = domain.Stats{URLs: 5, Tags: 9}
	require.NoError(t, store.SaveRun(ctx, run))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.Stats{URLs: 5, Tags: 9}, runs[0].Stats)
}

func TestPageCache(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, time.Hour)

	now := time.Date(2025, time.November, 8, 6, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, ok := store.Get(ctx, "http://example.com")
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "http://example.com", []byte("first")))
	require.NoError(t, store.Set(ctx, "http://example.com", []byte("second")))

	body, ok := store.Get(ctx, "http://example.com")
	require.True(t, ok)
	assert.Equal(t, "second", string(body))

	now = now.Add(2 * time.Hour)
	_, ok = store.Get(ctx, "http://example.com")
	assert.False(t, ok)

	removed, err := store.PurgePages(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
