package driving

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// IndexService builds the evidence index offline.
type IndexService interface {
	// Fetch downloads abstracts for each topic and stores them.
	// Returns the number of abstracts stored.
	Fetch(ctx context.Context, topics []string, maxPerTopic int) (int, error)

	// ImportCSV loads abstracts from a pmid,text CSV file.
	ImportCSV(ctx context.Context, path string) (int, error)

	// Build chunks and embeds every stored abstract, replacing the previous index.
	Build(ctx context.Context) (domain.IndexStats, error)

	// Stats summarises the current index.
	Stats(ctx context.Context) (domain.IndexStats, error)
}
