package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService reads and imports question/answer history.
type HistoryService struct {
	queryLog driven.QueryLog
}

// NewHistoryService creates a history service.
func NewHistoryService(queryLog driven.QueryLog) *HistoryService {
	return &HistoryService{queryLog: queryLog}
}

// Recent returns up to n of the newest entries, oldest first.
func (s *HistoryService) Recent(ctx context.Context, n int) ([]domain.QnALogEntry, error) {
	if s.queryLog == nil {
		return []domain.QnALogEntry{}, nil
	}
	return s.queryLog.Recent(ctx, n)
}

// legacyEntry is one record of the older JSON-array history file, whose
// timestamps carry no zone.
type legacyEntry struct {
	Timestamp string `json:"timestamp"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// ImportLegacy appends every record of a JSON-array history file.
func (s *HistoryService) ImportLegacy(ctx context.Context, path string) (int, error) {
	if s.queryLog == nil {
		return 0, fmt.Errorf("%w: query log", domain.ErrNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read legacy history: %w", err)
	}
	var entries []legacyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("%w: legacy history is not a JSON array: %v", domain.ErrInvalidInput, err)
	}

	n := 0
	for i, e := range entries {
		ts, err := ParseDate(e.Timestamp)
		if err != nil || ts == nil {
			logger.Warn("Legacy entry %d has unreadable timestamp %q, using import time", i, e.Timestamp)
			now := time.Now().UTC()
			ts = &now
		}
		entry := domain.QnALogEntry{Timestamp: *ts, Question: e.Question, Answer: e.Answer}
		if err := s.queryLog.Append(ctx, entry); err != nil {
			return n, fmt.Errorf("append legacy entry %d: %w", i, err)
		}
		n++
	}
	logger.Info("Imported %d legacy history entries from %s", n, path)
	return n, nil
}
