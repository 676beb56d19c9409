package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

func seededStore(t *testing.T) *memory.EvidenceStore {
	t.Helper()
	store := memory.NewEvidenceStore()
	err := store.ReplaceChunks(context.Background(), []domain.Chunk{
		{ID: "c1", PMID: "100", Content: "Hybrid immunity lowers reinfection risk.", Embedding: []float32{1, 0}},
		{ID: "c2", PMID: "200", Content: "Omicron escapes prior immunity.", Embedding: []float32{0, 1}},
		{ID: "c3", PMID: "300", Content: "Boosters restore neutralising titres.", Embedding: []float32{1, 1}},
	})
	require.NoError(t, err)
	return store
}

func TestRetriever_PreservesSimilarityOrder(t *testing.T) {
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "c2", Similarity: 0.91},
		{ChunkID: "c3", Similarity: 0.80},
		{ChunkID: "c1", Similarity: 0.42},
	}}
	r := NewRetriever(&mockEmbeddingService{embedding: []float32{0, 1}}, index, seededStore(t), 0)

	passages, err := r.Retrieve(context.Background(), "omicron reinfection", 0)

	require.NoError(t, err)
	require.Len(t, passages, 3, "k <= 0 uses the default of 3")
	assert.Equal(t, "c2", passages[0].ChunkID)
	assert.Equal(t, "200", passages[0].SourceID)
	assert.Equal(t, "Omicron escapes prior immunity.", passages[0].Text)
	assert.Equal(t, "c3", passages[1].ChunkID)
	assert.Equal(t, "c1", passages[2].ChunkID)
	for i := 1; i < len(passages); i++ {
		assert.GreaterOrEqual(t, passages[i-1].Similarity, passages[i].Similarity)
	}
}

func TestRetriever_RespectsK(t *testing.T) {
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "c1", Similarity: 0.9},
		{ChunkID: "c2", Similarity: 0.8},
		{ChunkID: "c3", Similarity: 0.7},
	}}
	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1, 0}}, index, seededStore(t), 3)

	passages, err := r.Retrieve(context.Background(), "booster", 1)

	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "c1", passages[0].ChunkID)
}

func TestRetriever_FewerChunksThanK(t *testing.T) {
	index := &mockVectorIndex{hits: []driven.VectorHit{{ChunkID: "c1", Similarity: 0.9}}}
	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1, 0}}, index, seededStore(t), 3)

	passages, err := r.Retrieve(context.Background(), "booster", 5)

	require.NoError(t, err)
	assert.Len(t, passages, 1)
}

func TestRetriever_SkipsChunksMissingFromStore(t *testing.T) {
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "gone", Similarity: 0.99},
		{ChunkID: "c1", Similarity: 0.5},
	}}
	r := NewRetriever(&mockEmbeddingService{embedding: []float32{1, 0}}, index, seededStore(t), 3)

	passages, err := r.Retrieve(context.Background(), "q", 2)

	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "c1", passages[0].ChunkID)
}

func TestRetriever_EmptyQuery(t *testing.T) {
	r := NewRetriever(nil, nil, nil, 3)

	passages, err := r.Retrieve(context.Background(), "   ", 3)

	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestRetriever_Errors(t *testing.T) {
	store := seededStore(t)
	hits := []driven.VectorHit{{ChunkID: "c1", Similarity: 1}}

	t.Run("no embedder", func(t *testing.T) {
		r := NewRetriever(nil, &mockVectorIndex{hits: hits}, store, 3)
		_, err := r.Retrieve(context.Background(), "q", 3)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("empty index", func(t *testing.T) {
		r := NewRetriever(&mockEmbeddingService{}, &mockVectorIndex{}, store, 3)
		_, err := r.Retrieve(context.Background(), "q", 3)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	})

	t.Run("embedding failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		r := NewRetriever(&mockEmbeddingService{err: cause}, &mockVectorIndex{hits: hits}, store, 3)
		_, err := r.Retrieve(context.Background(), "q", 3)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("search failure", func(t *testing.T) {
		cause := errors.New("dimension mismatch")
		idx := &mockVectorIndex{hits: hits, searchErr: cause}
		r := NewRetriever(&mockEmbeddingService{embedding: []float32{1}}, idx, store, 3)
		_, err := r.Retrieve(context.Background(), "q", 3)
		assert.ErrorIs(t, err, cause)
	})
}

func TestLoadVectorIndex(t *testing.T) {
	index := &mockVectorIndex{}

	n, err := LoadVectorIndex(context.Background(), seededStore(t), index)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{1, 1}, index.added["c3"])
}

func TestLoadVectorIndex_EmptyStore(t *testing.T) {
	_, err := LoadVectorIndex(context.Background(), memory.NewEvidenceStore(), &mockVectorIndex{})
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}
