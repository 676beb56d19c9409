package driven

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// EvidenceStore persists the literature corpus: abstracts, their chunks
// and chunk embeddings.
type EvidenceStore interface {
	// SaveAbstracts upserts abstracts keyed by PMID.
	SaveAbstracts(ctx context.Context, abstracts []domain.Abstract) error

	// ListAbstracts returns every stored abstract in first-insertion order.
	ListAbstracts(ctx context.Context) ([]domain.Abstract, error)

	// ReplaceChunks deletes all chunks and stores the given ones.
	ReplaceChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks returns the chunks with the given IDs.
	// Unknown IDs are skipped.
	GetChunks(ctx context.Context, ids []string) ([]domain.Chunk, error)

	// EachEmbedding calls fn for every embedded chunk in insertion order.
	EachEmbedding(ctx context.Context, fn func(chunkID string, embedding []float32) error) error

	// Stats summarises the store.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}
