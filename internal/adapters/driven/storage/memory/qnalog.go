package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// Ensure QueryLog implements the interface.
var _ driven.QueryLog = (*QueryLog)(nil)

// QueryLog is an in-memory implementation of driven.QueryLog for testing.
type QueryLog struct {
	mu      sync.RWMutex
	entries []domain.QnALogEntry
}

// NewQueryLog creates a new in-memory query log.
func NewQueryLog() *QueryLog {
	return &QueryLog{}
}

// Append records an entry.
func (l *QueryLog) Append(_ context.Context, entry domain.QnALogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Recent returns up to n of the newest entries, oldest first.
// n <= 0 returns every entry.
func (l *QueryLog) Recent(_ context.Context, n int) ([]domain.QnALogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := 0
	if n > 0 && n < len(l.entries) {
		start = len(l.entries) - n
	}
	out := make([]domain.QnALogEntry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out, nil
}

// Close is a no-op.
func (l *QueryLog) Close() error {
	return nil
}
