package driven

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// LiteratureSource searches and downloads biomedical abstracts.
type LiteratureSource interface {
	// Search returns up to max article identifiers matching the query.
	Search(ctx context.Context, query string, max int) ([]string, error)

	// FetchAbstracts downloads the abstracts for the given identifiers.
	// Articles without abstract text are omitted.
	FetchAbstracts(ctx context.Context, ids []string) ([]domain.Abstract, error)
}
