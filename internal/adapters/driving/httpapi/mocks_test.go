package httpapi

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// mockAssessmentService is a mock implementation of driving.AssessmentService.
type mockAssessmentService struct {
	assessment *domain.Assessment
	err        error
	calls      int
}

func (m *mockAssessmentService) Assess(_ context.Context, _ domain.PatientRecord) (*domain.Assessment, error) {
	m.calls++
	return m.assessment, m.err
}

func (m *mockAssessmentService) ExplainIntegrated(_ context.Context, _ domain.PatientRecord) (*domain.Explanation, error) {
	return m.assessment.Explanation, m.err
}

// mockPredictionService is a mock implementation of driving.PredictionService.
type mockPredictionService struct {
	labels []domain.Label
	err    error
}

func (m *mockPredictionService) Predict(_ context.Context, _ []domain.PatientRecord) ([]domain.Label, error) {
	return m.labels, m.err
}

// mockExplanationService is a mock implementation of driving.ExplanationService.
type mockExplanationService struct {
	explanation *domain.Explanation
	question    string
}

func (m *mockExplanationService) Explain(_ context.Context, _ domain.PatientRecord) *domain.Explanation {
	return m.explanation
}

func (m *mockExplanationService) ExplainWithPrediction(
	_ context.Context, _ domain.PatientRecord, _ *domain.Label,
) *domain.Explanation {
	return m.explanation
}

func (m *mockExplanationService) Chat(_ context.Context, question string) *domain.Explanation {
	m.question = question
	return m.explanation
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	entries []domain.QnALogEntry
	limit   int
	err     error
}

func (m *mockHistoryService) Recent(_ context.Context, n int) ([]domain.QnALogEntry, error) {
	m.limit = n
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
