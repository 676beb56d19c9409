package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// Ensure EvidenceStore implements the interface.
var _ driven.EvidenceStore = (*EvidenceStore)(nil)

// EvidenceStore is an in-memory implementation of driven.EvidenceStore.
// Abstracts and chunks are kept in insertion order.
type EvidenceStore struct {
	mu        sync.RWMutex
	abstracts []domain.Abstract
	byPMID    map[string]int
	chunks    []domain.Chunk
	byChunkID map[string]int
	builtAt   time.Time
}

// NewEvidenceStore creates a new in-memory evidence store.
func NewEvidenceStore() *EvidenceStore {
	return &EvidenceStore{
		byPMID:    make(map[string]int),
		byChunkID: make(map[string]int),
	}
}

// SaveAbstracts inserts or replaces abstracts by PMID.
func (s *EvidenceStore) SaveAbstracts(_ context.Context, abstracts []domain.Abstract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range abstracts {
		if i, ok := s.byPMID[a.PMID]; ok {
			s.abstracts[i] = a
			continue
		}
		s.byPMID[a.PMID] = len(s.abstracts)
		s.abstracts = append(s.abstracts, a)
	}
	return nil
}

// ListAbstracts returns every stored abstract.
func (s *EvidenceStore) ListAbstracts(_ context.Context) ([]domain.Abstract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Abstract, len(s.abstracts))
	copy(out, s.abstracts)
	return out, nil
}

// ReplaceChunks discards all chunks and stores the given set.
func (s *EvidenceStore) ReplaceChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make([]domain.Chunk, len(chunks))
	copy(s.chunks, chunks)
	s.byChunkID = make(map[string]int, len(chunks))
	for i, c := range s.chunks {
		s.byChunkID[c.ID] = i
	}
	s.builtAt = time.Now().UTC()
	return nil
}

// GetChunks returns the chunks with the given IDs. Unknown IDs are skipped.
func (s *EvidenceStore) GetChunks(_ context.Context, ids []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.byChunkID[id]; ok {
			out = append(out, s.chunks[i])
		}
	}
	return out, nil
}

// EachEmbedding calls fn for every chunk that has an embedding.
func (s *EvidenceStore) EachEmbedding(ctx context.Context, fn func(string, []float32) error) error {
	s.mu.RLock()
	chunks := make([]domain.Chunk, len(s.chunks))
	copy(chunks, s.chunks)
	s.mu.RUnlock()

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(c.Embedding) == 0 {
			continue
		}
		if err := fn(c.ID, c.Embedding); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarises the store.
func (s *EvidenceStore) Stats(_ context.Context) (domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.IndexStats{
		Abstracts: len(s.abstracts),
		Chunks:    len(s.chunks),
		BuiltAt:   s.builtAt,
	}
	for _, c := range s.chunks {
		if len(c.Embedding) > 0 {
			stats.Embedded++
		}
	}
	return stats, nil
}

// Close is a no-op.
func (s *EvidenceStore) Close() error {
	return nil
}
