package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

func newTestLog(t *testing.T) *QueryLog {
	t.Helper()
	l, err := NewQueryLog(filepath.Join(t.TempDir(), "data", "qna_history.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e domain.QnALogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e), "line %d is valid JSON", n+1)
		n++
	}
	require.NoError(t, scanner.Err())
	return n
}

func TestQueryLog_AppendWritesOneLine(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)
	ts := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.Append(ctx, domain.QnALogEntry{Timestamp: ts, Question: "q", Answer: "a\nwith newline"}))

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t,
		`{"timestamp":"2025-02-01T09:00:00Z","question":"q","answer":"a\nwith newline"}`+"\n",
		string(raw))
}

func TestQueryLog_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	const n = 200
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Append(ctx, domain.NewQnALogEntry(fmt.Sprintf("q%d", i), "answer")))
		}()
	}
	wg.Wait()

	assert.Equal(t, n, countLines(t, l.Path()))
	all, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestQueryLog_Recent(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	empty, err := l.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	for i := range 5 {
		require.NoError(t, l.Append(ctx, domain.NewQnALogEntry(fmt.Sprintf("q%d", i), "a")))
	}

	last2, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, "q3", last2[0].Question)
	assert.Equal(t, "q4", last2[1].Question)

	all, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestQueryLog_RecentSkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "qna_history.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"timestamp":"2025-02-01T09:00:00Z","question":"ok","answer":"a"}`+"\n"+
			"garbage\n\n"), 0600))

	l, err := NewQueryLog(path)
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Append(ctx, domain.NewQnALogEntry("new", "b")))

	entries, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ok", entries[0].Question)
	assert.Equal(t, "new", entries[1].Question)
}

func TestQueryLog_ReopenAppends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "qna_history.jsonl")

	l, err := NewQueryLog(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, domain.NewQnALogEntry("first", "a")))
	require.NoError(t, l.Close())

	l, err = NewQueryLog(path)
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.Append(ctx, domain.NewQnALogEntry("second", "b")))

	assert.Equal(t, 2, countLines(t, path))
}

func TestQueryLog_AppendAfterClose(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "close is idempotent")

	err := l.Append(context.Background(), domain.NewQnALogEntry("q", "a"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQueryLog_AppendCancelledBeforeAccept(t *testing.T) {
	l := newTestLog(t)
	// Hold the file lock so the writer goroutine blocks on the first entry.
	l.mu.Lock()
	first := make(chan error, 1)
	go func() { first <- l.Append(context.Background(), domain.NewQnALogEntry("q1", "a")) }()

	// Give the writer time to accept q1 and block on the lock.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Append(ctx, domain.NewQnALogEntry("q2", "a"))
	assert.ErrorIs(t, err, context.Canceled)

	l.mu.Unlock()
	require.NoError(t, <-first)
	assert.Equal(t, 1, countLines(t, l.Path()))
}
