package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// MockPredictionService implements driving.PredictionService for CLI tests.
type MockPredictionService struct {
	PredictFunc func(ctx context.Context, records []domain.PatientRecord) ([]domain.Label, error)
}

func (m *MockPredictionService) Predict(ctx context.Context, records []domain.PatientRecord) ([]domain.Label, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, records)
	}
	labels := make([]domain.Label, len(records))
	for i := range records {
		labels[i] = domain.LabelNo
	}
	return labels, nil
}

// MockAssessmentService implements driving.AssessmentService for CLI tests.
type MockAssessmentService struct {
	AssessFunc func(ctx context.Context, record domain.PatientRecord) (*domain.Assessment, error)
	Integrated *domain.Explanation
}

func (m *MockAssessmentService) Assess(ctx context.Context, record domain.PatientRecord) (*domain.Assessment, error) {
	if m.AssessFunc != nil {
		return m.AssessFunc(ctx, record)
	}
	return &domain.Assessment{
		Prediction:      domain.LabelYes,
		Description:     "Unvaccinated with a severe first infection.",
		RiskFactors:     []string{"Unvaccinated"},
		Recommendations: []string{"Get vaccinated"},
	}, nil
}

func (m *MockAssessmentService) ExplainIntegrated(
	_ context.Context, _ domain.PatientRecord,
) (*domain.Explanation, error) {
	if m.Integrated != nil {
		return m.Integrated, nil
	}
	return &domain.Explanation{
		Provenance: domain.ProvenanceIntegrated,
		Text:       "integrated explanation",
		Assessment: domain.ParsedAssessment{RiskLevel: domain.RiskHigh, MLPrediction: "Yes"},
	}, nil
}

// MockExplanationService implements driving.ExplanationService for CLI tests.
type MockExplanationService struct {
	LastQuestion string
}

func (m *MockExplanationService) Explain(_ context.Context, _ domain.PatientRecord) *domain.Explanation {
	return &domain.Explanation{
		Provenance: domain.ProvenanceLiterature,
		Text:       "literature explanation",
		Assessment: domain.ParsedAssessment{RiskLevel: domain.RiskModerate},
		Passages: []domain.EvidencePassage{
			{SourceID: "11111111", ChunkID: "11111111-0"},
			{SourceID: "11111111", ChunkID: "11111111-1"},
			{SourceID: "22222222", ChunkID: "22222222-0"},
		},
	}
}

func (m *MockExplanationService) ExplainWithPrediction(
	ctx context.Context, patient domain.PatientRecord, _ *domain.Label,
) *domain.Explanation {
	return m.Explain(ctx, patient)
}

func (m *MockExplanationService) Chat(_ context.Context, question string) *domain.Explanation {
	m.LastQuestion = question
	return &domain.Explanation{
		Provenance: domain.ProvenanceChat,
		Text:       "chat answer",
		Passages:   []domain.EvidencePassage{{SourceID: "33333333"}},
	}
}

// MockHistoryService implements driving.HistoryService for CLI tests.
type MockHistoryService struct {
	Entries    []domain.QnALogEntry
	LastLimit  int
	ImportPath string
}

func (m *MockHistoryService) Recent(_ context.Context, n int) ([]domain.QnALogEntry, error) {
	m.LastLimit = n
	return m.Entries, nil
}

func (m *MockHistoryService) ImportLegacy(_ context.Context, path string) (int, error) {
	m.ImportPath = path
	return 4, nil
}

// MockIndexService implements driving.IndexService for CLI tests.
type MockIndexService struct {
	StatsResult domain.IndexStats
	FetchTopics []string
	FetchMax    int
	FetchErr    error
}

func (m *MockIndexService) Fetch(_ context.Context, topics []string, maxPerTopic int) (int, error) {
	m.FetchTopics = topics
	m.FetchMax = maxPerTopic
	return 7, m.FetchErr
}

func (m *MockIndexService) ImportCSV(_ context.Context, _ string) (int, error) {
	return 12, nil
}

func (m *MockIndexService) Build(_ context.Context) (domain.IndexStats, error) {
	return m.StatsResult, nil
}

func (m *MockIndexService) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.StatsResult, nil
}

// MockSettingsService implements driving.SettingsService for CLI tests.
type MockSettingsService struct {
	Settings     domain.AppSettings
	ArtifactsDir string
	DataDir      string
	ValidateErr  error
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.Settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.Settings = *settings
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.Embedding.Provider = provider
	m.Settings.Embedding.Model = model
	m.Settings.Embedding.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.Settings.LLM.Provider = provider
	m.Settings.LLM.Model = model
	m.Settings.LLM.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) SetAzure(_, _, _ string) error { return nil }

func (m *MockSettingsService) SetArtifactsDir(dir string) error {
	m.ArtifactsDir = dir
	return nil
}

func (m *MockSettingsService) SetDataDir(dir string) error {
	m.DataDir = dir
	return nil
}

func (m *MockSettingsService) Validate() error { return m.ValidateErr }

func (m *MockSettingsService) GetDefaults() domain.AppSettings { return domain.AppSettings{} }

func (m *MockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *MockSettingsService) ValidateLLMConfig() error { return nil }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	Prediction  *MockPredictionService
	Assessment  *MockAssessmentService
	Explanation *MockExplanationService
	History     *MockHistoryService
	Index       *MockIndexService
	Settings    *MockSettingsService
}

// setupTestServices installs mocks for every service and returns them with
// a cleanup function.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		Prediction:  &MockPredictionService{},
		Assessment:  &MockAssessmentService{},
		Explanation: &MockExplanationService{},
		History:     &MockHistoryService{},
		Index:       &MockIndexService{},
		Settings:    &MockSettingsService{},
	}
	SetServices(&Services{
		Settings:    ts.Settings,
		Prediction:  ts.Prediction,
		Assessment:  ts.Assessment,
		Explanation: ts.Explanation,
		History:     ts.History,
		Index:       ts.Index,
		MaxPerTopic: 25,
	})
	return ts, func() { SetServices(nil) }
}

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every changed flag to its default so tests do not
// leak flag values into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
