package driven

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// PostProcessor processes abstract text to produce chunks.
// PostProcessors are chained in a pipeline (e.g., chunking, cleaning).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes an abstract and returns chunks.
	// If the processor modifies chunks, it receives and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	Process(ctx context.Context, abstract *domain.Abstract, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the abstract through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, abstract *domain.Abstract) ([]domain.Chunk, error)
}
