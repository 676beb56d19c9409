package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "evidence.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for _, table := range []string{"abstracts", "chunks", "index_meta"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveAbstracts(ctx, []domain.Abstract{{PMID: "1", Text: "kept"}}))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	abstracts, err := store.ListAbstracts(ctx)
	require.NoError(t, err)
	require.Len(t, abstracts, 1)
	assert.Equal(t, "kept", abstracts[0].Text)
}

func TestStore_SaveAndListAbstracts(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	fetched := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveAbstracts(ctx, []domain.Abstract{
		{PMID: "35000002", Text: "second", Topic: "COVID reinfection risk", FetchedAt: fetched},
		{PMID: "35000001", Text: "first", Topic: "COVID reinfection risk", FetchedAt: fetched},
	}))
	require.NoError(t, store.SaveAbstracts(ctx, []domain.Abstract{
		{PMID: "35000002", Text: "second, revised", Topic: "COVID vaccine effectiveness", FetchedAt: fetched},
	}))

	abstracts, err := store.ListAbstracts(ctx)
	require.NoError(t, err)
	require.Len(t, abstracts, 2)
	assert.Equal(t, "35000002", abstracts[0].PMID, "upsert keeps insertion order")
	assert.Equal(t, "second, revised", abstracts[0].Text)
	assert.Equal(t, "COVID vaccine effectiveness", abstracts[0].Topic)
	assert.True(t, fetched.Equal(abstracts[0].FetchedAt))
}

func TestStore_ReplaceAndGetChunks(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.ReplaceChunks(ctx, []domain.Chunk{
		{ID: "stale", PMID: "0", Content: "old", Embedding: []float32{9}},
	}))
	require.NoError(t, store.ReplaceChunks(ctx, []domain.Chunk{
		{ID: "a", PMID: "1", Content: "alpha", Position: 0, Embedding: []float32{0.25, -1.5, 3}},
		{ID: "b", PMID: "1", Content: "beta", Position: 1},
	}))

	chunks, err := store.GetChunks(ctx, []string{"b", "stale", "a"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "b", chunks[0].ID)
	assert.Nil(t, chunks[0].Embedding)
	assert.Equal(t, "a", chunks[1].ID)
	assert.Equal(t, "1", chunks[1].PMID)
	assert.Equal(t, []float32{0.25, -1.5, 3}, chunks[1].Embedding)

	none, err := store.GetChunks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_EachEmbedding(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.ReplaceChunks(ctx, []domain.Chunk{
		{ID: "a", PMID: "1", Content: "x", Embedding: []float32{1, 0}},
		{ID: "b", PMID: "1", Content: "y"},
		{ID: "c", PMID: "2", Content: "z", Embedding: []float32{0, 1}},
	}))

	got := map[string][]float32{}
	var order []string
	err := store.EachEmbedding(ctx, func(id string, emb []float32) error {
		got[id] = emb
		order = append(order, id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, order)
	assert.Equal(t, []float32{0, 1}, got["c"])

	stop := errors.New("stop")
	err = store.EachEmbedding(ctx, func(string, []float32) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, stats.Ready())
	assert.True(t, stats.BuiltAt.IsZero())

	require.NoError(t, store.SaveAbstracts(ctx, []domain.Abstract{{PMID: "1", Text: "t"}}))
	require.NoError(t, store.ReplaceChunks(ctx, []domain.Chunk{
		{ID: "a", PMID: "1", Content: "x", Embedding: []float32{1}},
		{ID: "b", PMID: "1", Content: "y"},
	}))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Abstracts)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 1, stats.Embedded)
	assert.True(t, stats.Ready())
	assert.WithinDuration(t, time.Now(), stats.BuiltAt, time.Minute)
}

func TestFloat32Blob_RoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 3.1415927, 1e-30}
	blob := float32SliceToBytes(in)
	assert.Len(t, blob, 20)
	assert.Equal(t, in, bytesToFloat32Slice(blob))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
