// Package jsonl provides a JSON Lines query log.
//
// Each question/answer pair is one line:
//
//	{"timestamp":"2025-02-01T09:00:00Z","question":"...","answer":"..."}
//
// A single goroutine owns the file handle. Append hands the entry to it and
// waits for the write and fsync, so concurrent requests never interleave
// or lose lines.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ensure QueryLog implements the interface.
var _ driven.QueryLog = (*QueryLog)(nil)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("query log closed")

// maxLineSize bounds a single log line; answers are a few KB.
const maxLineSize = 1 << 20

type appendRequest struct {
	entry domain.QnALogEntry
	done  chan error
}

// QueryLog appends entries to a JSON Lines file through one writer goroutine.
type QueryLog struct {
	path string
	file *os.File

	// mu keeps Recent from reading a half-written line.
	mu sync.RWMutex

	reqs      chan appendRequest
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewQueryLog opens (or creates) the log file at path and starts the writer.
func NewQueryLog(path string) (*QueryLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create query log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open query log: %w", err)
	}

	l := &QueryLog{
		path:    path,
		file:    f,
		reqs:    make(chan appendRequest),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Path returns the log file path.
func (l *QueryLog) Path() string {
	return l.path
}

// Append records one entry and returns once it is on disk.
func (l *QueryLog) Append(ctx context.Context, entry domain.QnALogEntry) error {
	req := appendRequest{entry: entry, done: make(chan error, 1)}
	select {
	case l.reqs <- req:
	case <-l.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted the write completes regardless of ctx.
	return <-req.done
}

// Recent returns up to n of the newest entries, oldest first. n <= 0
// returns every entry. Malformed lines are skipped.
func (l *QueryLog) Recent(ctx context.Context, n int) ([]domain.QnALogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open query log: %w", err)
	}
	defer f.Close()

	var entries []domain.QnALogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e domain.QnALogEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			logger.Warn("Skipping malformed query log line %d: %v", line, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read query log: %w", err)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	if entries == nil {
		entries = []domain.QnALogEntry{}
	}
	return entries, nil
}

// Close writes any accepted entries, stops the writer and closes the file.
func (l *QueryLog) Close() error {
	l.closeOnce.Do(func() {
		close(l.quit)
		<-l.stopped
		l.closeErr = l.file.Close()
	})
	return l.closeErr
}

func (l *QueryLog) run() {
	defer close(l.stopped)
	for {
		select {
		case req := <-l.reqs:
			req.done <- l.write(req.entry)
		case <-l.quit:
			// Serve senders that won the race with quit.
			for {
				select {
				case req := <-l.reqs:
					req.done <- l.write(req.entry)
				default:
					return
				}
			}
		}
	}
}

func (l *QueryLog) write(entry domain.QnALogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode query log entry: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("write query log: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync query log: %w", err)
	}
	return nil
}
