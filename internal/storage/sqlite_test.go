package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Artifacts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, &Artifact{Hash: "h1", Preview: "button", HTML: "<html>1</html>", BuildID: "b1"}))
	got, err := s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "button", got.Preview)
	assert.Equal(t, "<html>1</html>", got.HTML)
	assert.Equal(t, "b1", got.BuildID)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, s.Put(ctx, &Artifact{Hash: "h1", Preview: "button", HTML: "<html>2</html>"}))
	got, err = s.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "<html>2</html>", got.HTML)
}

func TestSQLiteStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.Put(ctx, &Artifact{Hash: "old", Preview: "a", HTML: "x", CreatedAt: old}))
	require.NoError(t, s.Put(ctx, &Artifact{Hash: "new", Preview: "b", HTML: "y"}))

	n, err := s.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "new")
	require.NoError(t, err)
}

func TestSQLiteStore_Builds(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.LastBuild(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	start := time.Now().Add(-time.Minute)
	require.NoError(t, s.RecordBuild(ctx, BuildRecord{ID: "first", StartedAt: start, FinishedAt: start.Add(time.Second), Pages: 3}))
	require.NoError(t, s.RecordBuild(ctx, BuildRecord{ID: "second", StartedAt: start, FinishedAt: start.Add(2 * time.Second), Pages: 4, Previews: 2, Failures: 1, CacheHits: 1}))

	last, err := s.LastBuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", last.ID)
	assert.Equal(t, 4, last.Pages)
	assert.Equal(t, 1, last.Failures)
	assert.Equal(t, start.Add(2*time.Second).UnixMilli(), last.FinishedAt.UnixMilli())
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "artifacts.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, &Artifact{Hash: "h", Preview: "p", HTML: "z"}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, "z", got.HTML)
}
