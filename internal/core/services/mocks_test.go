package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockScaler implements driven.FeatureScaler as an identity transform.
type mockScaler struct {
	names []string
	err   error
}

func (m *mockScaler) FeatureNames() []string {
	return m.names
}

func (m *mockScaler) Transform(row []float64) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(row))
	copy(out, row)
	return out, nil
}

// mockEncoders implements driven.CategoricalEncoders from a fixed table.
type mockEncoders map[string]map[string]int

func (m mockEncoders) Has(column string) bool {
	_, ok := m[column]
	return ok
}

func (m mockEncoders) Encode(column, value string) (int, bool) {
	code, ok := m[column][value]
	return code, ok
}

// mockClassifier implements driven.Classifier. When classes is nil every
// row is predicted as class 1.
type mockClassifier struct {
	classes  []int
	err      error
	features int
	rows     [][]float64
}

func (m *mockClassifier) Predict(rows [][]float64) ([]int, error) {
	m.rows = rows
	if m.err != nil {
		return nil, m.err
	}
	if m.classes != nil {
		return m.classes, nil
	}
	out := make([]int, len(rows))
	for i := range out {
		out[i] = 1
	}
	return out, nil
}

func (m *mockClassifier) NumFeatures() int {
	return m.features
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu         sync.Mutex
	embedding  []float32
	err        error
	batchCalls int
	maxBatch   int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.maxBatch = max(m.maxBatch, len(texts))
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if len(m.embedding) > 0 {
		return len(m.embedding)
	}
	return 2
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.err
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	searchErr error
	added     map[string][]float32
}

func (m *mockVectorIndex) Add(_ context.Context, chunkID string, embedding []float32) error {
	if m.added == nil {
		m.added = make(map[string][]float32)
	}
	m.added[chunkID] = embedding
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Len() int {
	return len(m.hits) + len(m.added)
}

func (m *mockVectorIndex) Dimensions() int {
	return 2
}

func (m *mockVectorIndex) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService and records every prompt.
type mockLLMService struct {
	response string
	err      error
	prompts  []string
	opts     []driven.GenerateOptions
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return m.err
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockRetriever implements driving.RetrievalService for testing.
type mockRetriever struct {
	passages []domain.EvidencePassage
	err      error
	queries  []string
	ks       []int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, k int) ([]domain.EvidencePassage, error) {
	m.queries = append(m.queries, query)
	m.ks = append(m.ks, k)
	if m.err != nil {
		return nil, m.err
	}
	return m.passages, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %s: %w", name, domain.ErrNotFound)
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockLiteratureSource implements driven.LiteratureSource from fixed tables.
type mockLiteratureSource struct {
	ids       map[string][]string
	searchErr error
	fetched   [][]string
}

func (m *mockLiteratureSource) Search(_ context.Context, query string, limit int) ([]string, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	ids := m.ids[query]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *mockLiteratureSource) FetchAbstracts(_ context.Context, ids []string) ([]domain.Abstract, error) {
	m.fetched = append(m.fetched, ids)
	out := make([]domain.Abstract, len(ids))
	for i, id := range ids {
		out[i] = domain.Abstract{PMID: id, Text: "Abstract of " + id}
	}
	return out, nil
}

// mockPipeline implements driven.PostProcessorPipeline with one chunk per abstract.
type mockPipeline struct {
	err error
}

func (m *mockPipeline) Process(_ context.Context, a *domain.Abstract) ([]domain.Chunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Chunk{{ID: "chunk-" + a.PMID, PMID: a.PMID, Content: a.Text}}, nil
}

// mockPredictionService implements driving.PredictionService for testing.
type mockPredictionService struct {
	labels []domain.Label
	err    error
}

func (m *mockPredictionService) Predict(_ context.Context, _ []domain.PatientRecord) ([]domain.Label, error) {
	return m.labels, m.err
}

// mockExplanationService implements driving.ExplanationService for testing.
type mockExplanationService struct {
	gotLabel *domain.Label
	called   bool
}

func (m *mockExplanationService) Explain(_ context.Context, _ domain.PatientRecord) *domain.Explanation {
	return &domain.Explanation{Provenance: domain.ProvenanceLiterature, Text: "literature"}
}

func (m *mockExplanationService) ExplainWithPrediction(
	_ context.Context, _ domain.PatientRecord, label *domain.Label,
) *domain.Explanation {
	m.called = true
	m.gotLabel = label
	return &domain.Explanation{Provenance: domain.ProvenanceIntegrated, Text: "integrated"}
}

func (m *mockExplanationService) Chat(_ context.Context, question string) *domain.Explanation {
	return &domain.Explanation{Provenance: domain.ProvenanceChat, Text: question}
}

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embedErr error
	llmErr   error
}

func (m *mockAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockAIValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

// examplePatient is the reference patient used across tests.
func examplePatient() domain.PatientRecord {
	return domain.PatientRecord{
		Age:                    45,
		Gender:                 "Male",
		Region:                 "North",
		PreexistingCondition:   "Diabetes",
		DateOfInfection:        "2023-04-15",
		COVIDStrain:            "Omicron",
		Symptoms:               "Moderate",
		Severity:               "Moderate",
		Hospitalized:           "Yes",
		HospitalAdmissionDate:  "2023-04-18",
		HospitalDischargeDate:  "2023-04-25",
		ICUAdmission:           "No",
		VentilatorSupport:      "No",
		Recovered:              "Yes",
		DateOfRecovery:         "2023-05-10",
		DateOfReinfection:      "2024-05-10",
		VaccinationStatus:      "Yes",
		VaccineType:            "Pfizer",
		DosesReceived:          2,
		DateOfLastDose:         "2023-01-15",
		LongCOVIDSymptoms:      "None",
		Occupation:             "Engineer",
		SmokingStatus:          "Former",
		BMI:                    25.3,
		RecoveryClassification: "Normal",
	}
}

// modelColumns is the full feature set in training order.
func modelColumns() []string {
	return []string{
		domain.ColAge,
		domain.ColGender,
		domain.ColRegion,
		domain.ColPreexistingCondition,
		domain.ColCOVIDStrain,
		domain.ColSymptoms,
		domain.ColSeverity,
		domain.ColHospitalized,
		domain.ColICUAdmission,
		domain.ColVentilatorSupport,
		domain.ColRecovered,
		domain.ColVaccinationStatus,
		domain.ColVaccineType,
		domain.ColDosesReceived,
		domain.ColLongCOVIDSymptoms,
		domain.ColOccupation,
		domain.ColSmokingStatus,
		domain.ColBMI,
		domain.ColRecoveryClassification,
		domain.ColRecoveryDuration,
		domain.ColTimeToReinfection,
		domain.ColReinfectedLater,
		domain.ColVaccineToInfectionDays,
		domain.ColHospitalStayDuration,
		domain.ColInfectedSoonAfterVaccine,
	}
}
