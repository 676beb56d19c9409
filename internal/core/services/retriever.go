package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever finds literature passages nearest to a query.
type Retriever struct {
	embeddingService driven.EmbeddingService
	vectorIndex      driven.VectorIndex
	evidenceStore    driven.EvidenceStore
	defaultK         int
}

// NewRetriever creates a retriever. defaultK applies when Retrieve is
// called with k <= 0.
func NewRetriever(
	embeddingService driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
	evidenceStore driven.EvidenceStore,
	defaultK int,
) *Retriever {
	if defaultK <= 0 {
		defaultK = domain.DefaultTopK
	}
	return &Retriever{
		embeddingService: embeddingService,
		vectorIndex:      vectorIndex,
		evidenceStore:    evidenceStore,
		defaultK:         defaultK,
	}
}

// LoadVectorIndex fills index with every stored chunk embedding.
// An empty store yields ErrIndexNotFound.
func LoadVectorIndex(ctx context.Context, store driven.EvidenceStore, index driven.VectorIndex) (int, error) {
	logger.Section("Loading Vector Index")
	n := 0
	err := store.EachEmbedding(ctx, func(chunkID string, embedding []float32) error {
		if err := index.Add(ctx, chunkID, embedding); err != nil {
			return fmt.Errorf("add %s: %w", chunkID, err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("load vector index: %w", err)
	}
	if n == 0 {
		return 0, domain.ErrIndexNotFound
	}
	logger.Info("Vector index loaded: %d chunks, %d dimensions", n, index.Dimensions())
	return n, nil
}

// Retrieve embeds the query and returns up to k passages in decreasing
// similarity. Passages are not re-ranked or filtered.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.EvidencePassage, error) {
	if k <= 0 {
		k = r.defaultK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.EvidencePassage{}, nil
	}
	if r.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if r.vectorIndex == nil || r.evidenceStore == nil || r.vectorIndex.Len() == 0 {
		return nil, domain.ErrIndexNotFound
	}

	logger.Debug("Retrieve: query=%q, k=%d", query, k)
	embedding, err := r.embeddingService.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}

	hits, err := r.vectorIndex.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	chunks, err := r.evidenceStore.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate passages: %w", err)
	}
	byID := make(map[string]domain.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	passages := make([]domain.EvidencePassage, 0, len(hits))
	for _, h := range hits {
		c, ok := byID[h.ChunkID]
		if !ok {
			// Index and store disagree; skip rather than fail the request.
			logger.Warn("Chunk %s in index but not in store", h.ChunkID)
			continue
		}
		passages = append(passages, domain.EvidencePassage{
			SourceID:   c.PMID,
			ChunkID:    c.ID,
			Text:       c.Content,
			Similarity: h.Similarity,
		})
	}
	return passages, nil
}
