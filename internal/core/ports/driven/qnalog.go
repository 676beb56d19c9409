package driven

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// QueryLog is the append-only record of explanation questions and answers.
type QueryLog interface {
	// Append records one entry. It returns once the entry is durable, so
	// concurrent callers never lose each other's entries.
	Append(ctx context.Context, entry domain.QnALogEntry) error

	// Recent returns up to n of the newest entries, oldest first.
	// n <= 0 returns every entry.
	Recent(ctx context.Context, n int) ([]domain.QnALogEntry, error)

	// Close flushes pending entries and releases resources.
	Close() error
}
