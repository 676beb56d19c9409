package mcp

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// mockExplanationService is a mock implementation of driving.ExplanationService.
type mockExplanationService struct {
	explanation *domain.Explanation
	withLabel   *domain.Label
}

func (m *mockExplanationService) Explain(_ context.Context, _ domain.PatientRecord) *domain.Explanation {
	return m.explanation
}

func (m *mockExplanationService) ExplainWithPrediction(
	_ context.Context, _ domain.PatientRecord, label *domain.Label,
) *domain.Explanation {
	m.withLabel = label
	return m.explanation
}

func (m *mockExplanationService) Chat(_ context.Context, _ string) *domain.Explanation {
	return m.explanation
}

// mockAssessmentService is a mock implementation of driving.AssessmentService.
type mockAssessmentService struct {
	assessment  *domain.Assessment
	explanation *domain.Explanation
	err         error
}

func (m *mockAssessmentService) Assess(_ context.Context, _ domain.PatientRecord) (*domain.Assessment, error) {
	return m.assessment, m.err
}

func (m *mockAssessmentService) ExplainIntegrated(_ context.Context, _ domain.PatientRecord) (*domain.Explanation, error) {
	return m.explanation, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	passages []domain.EvidencePassage
	gotK     int
	err      error
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, k int) ([]domain.EvidencePassage, error) {
	m.gotK = k
	return m.passages, m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	entries []domain.QnALogEntry
	gotN    int
	err     error
}

func (m *mockHistoryService) Recent(_ context.Context, n int) ([]domain.QnALogEntry, error) {
	m.gotN = n
	return m.entries, m.err
}

func (m *mockHistoryService) ImportLegacy(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats domain.IndexStats
	err   error
}

func (m *mockIndexService) Fetch(_ context.Context, _ []string, _ int) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) ImportCSV(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) Build(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIndexService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}
