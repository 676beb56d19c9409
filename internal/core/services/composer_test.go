package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

const sampleAnswer = `I understand this is a worrying time.
Based on the research, the risk level is **Moderate**.
ML Prediction: Yes risk.
According to the evidence, waning immunity after two doses raises reinfection odds.`

func samplePassages() []domain.EvidencePassage {
	return []domain.EvidencePassage{
		{SourceID: "100", ChunkID: "c1", Text: "Waning immunity after 6 months.", Similarity: 0.9},
		{SourceID: "200", ChunkID: "c2", Text: "Diabetes worsens outcomes.", Similarity: 0.7},
	}
}

func recentEntries(t *testing.T, log driven.QueryLog) []domain.QnALogEntry {
	t.Helper()
	entries, err := log.Recent(context.Background(), 100)
	require.NoError(t, err)
	return entries
}

func TestComposer_Explain(t *testing.T) {
	llm := &mockLLMService{response: sampleAnswer}
	ret := &mockRetriever{passages: samplePassages()}
	log := memory.NewQueryLog()
	c := NewComposer(ret, llm, nil, log, 0)

	exp := c.Explain(context.Background(), examplePatient())

	require.NotNil(t, exp)
	assert.False(t, exp.Degraded())
	assert.Equal(t, domain.ProvenanceLiterature, exp.Provenance)
	assert.True(t, strings.HasPrefix(exp.Text, "[ RAG Medical Literature ]\n"))
	assert.Equal(t, domain.RiskModerate, exp.Assessment.RiskLevel)
	assert.Len(t, exp.Passages, 2)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Waning immunity after 6 months.\n\nDiabetes worsens outcomes.")
	assert.Contains(t, llm.prompts[0], BuildQuery(examplePatient()))
	assert.NotContains(t, llm.prompts[0], "{{")
	assert.Equal(t, 0.0, llm.opts[0].Temperature)
	assert.Equal(t, []int{domain.DefaultTopK}, ret.ks)

	entries := recentEntries(t, log)
	require.Len(t, entries, 1)
	assert.Equal(t, BuildQuery(examplePatient()), entries[0].Question)
	assert.Equal(t, exp.Text, entries[0].Answer)
}

func TestComposer_Explain_UnreachableLLM(t *testing.T) {
	llm := &mockLLMService{err: errors.New("dial tcp 127.0.0.1:11434: connection refused")}
	log := memory.NewQueryLog()
	c := NewComposer(&mockRetriever{passages: samplePassages()}, llm, nil, log, 3)

	exp := c.Explain(context.Background(), examplePatient())

	require.NotNil(t, exp)
	assert.True(t, exp.Degraded())
	assert.ErrorIs(t, exp.Err, domain.ErrProvider)
	assert.Contains(t, exp.Text, "RAG system error: ")
	assert.Contains(t, exp.Text, "connection refused")
	assert.True(t, strings.HasPrefix(exp.Text, domain.ProvenanceLiterature.Tag()))

	entries := recentEntries(t, log)
	require.Len(t, entries, 1, "a failed explanation is still logged exactly once")
	assert.Contains(t, entries[0].Answer, "RAG system error: ")
}

func TestComposer_Explain_RetrievalFailure(t *testing.T) {
	llm := &mockLLMService{response: sampleAnswer}
	log := memory.NewQueryLog()
	c := NewComposer(&mockRetriever{err: domain.ErrIndexNotFound}, llm, nil, log, 3)

	exp := c.Explain(context.Background(), examplePatient())

	assert.ErrorIs(t, exp.Err, domain.ErrIndexNotFound)
	assert.Empty(t, llm.prompts, "LLM must not be called without evidence")
	assert.Len(t, recentEntries(t, log), 1)
}

func TestComposer_NoLLM(t *testing.T) {
	c := NewComposer(&mockRetriever{}, nil, nil, nil, 3)

	exp := c.Explain(context.Background(), examplePatient())

	assert.ErrorIs(t, exp.Err, domain.ErrLLMUnavailable)
}

func TestComposer_EmptyCompletion(t *testing.T) {
	c := NewComposer(&mockRetriever{}, &mockLLMService{response: "  \n"}, nil, nil, 3)

	exp := c.Explain(context.Background(), examplePatient())

	assert.True(t, exp.Degraded())
}

func TestComposer_ExplainWithPrediction(t *testing.T) {
	llm := &mockLLMService{response: sampleAnswer}
	log := memory.NewQueryLog()
	c := NewComposer(&mockRetriever{passages: samplePassages()}, llm, nil, log, 3)
	label := domain.LabelYes

	exp := c.ExplainWithPrediction(context.Background(), examplePatient(), &label)

	assert.False(t, exp.Degraded())
	assert.Equal(t, domain.ProvenanceIntegrated, exp.Provenance)
	assert.True(t, strings.HasPrefix(exp.Text, "[ Integrated Analysis ]\n"))
	assert.Equal(t, "Yes", exp.Assessment.MLPrediction)
	assert.Contains(t, llm.prompts[0], "The ML model has predicted: Yes risk")

	entries := recentEntries(t, log)
	require.Len(t, entries, 1)
	assert.Equal(t, "ML: Yes - "+BuildQuery(examplePatient()), entries[0].Question)
}

func TestComposer_ExplainWithPrediction_UnknownLabel(t *testing.T) {
	llm := &mockLLMService{response: sampleAnswer}
	c := NewComposer(&mockRetriever{}, llm, nil, nil, 3)

	c.ExplainWithPrediction(context.Background(), examplePatient(), nil)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "ML Prediction: Unknown risk.")
}

func TestComposer_ExplainWithPrediction_Failure(t *testing.T) {
	log := memory.NewQueryLog()
	c := NewComposer(&mockRetriever{}, &mockLLMService{err: errors.New("401 unauthorized")}, nil, log, 3)
	label := domain.LabelNo

	exp := c.ExplainWithPrediction(context.Background(), examplePatient(), &label)

	assert.Contains(t, exp.Text, "Integration error: ")
	entries := recentEntries(t, log)
	require.Len(t, entries, 1)
	assert.Equal(t, BuildQuery(examplePatient()), entries[0].Question)
}

func TestComposer_Chat(t *testing.T) {
	llm := &mockLLMService{response: "Boosters restore protection for about four months."}
	log := memory.NewQueryLog()
	ret := &mockRetriever{passages: samplePassages()}
	c := NewComposer(ret, llm, nil, log, 3)

	exp := c.Chat(context.Background(), "  How long do boosters protect?  ")

	assert.False(t, exp.Degraded())
	assert.Equal(t, "Boosters restore protection for about four months.", exp.Text)
	assert.Equal(t, []string{"How long do boosters protect?"}, ret.queries)

	entries := recentEntries(t, log)
	require.Len(t, entries, 1)
	assert.Equal(t, "How long do boosters protect?", entries[0].Question)
}

func TestComposer_Chat_EmptyQuestion(t *testing.T) {
	llm := &mockLLMService{response: "x"}
	log := memory.NewQueryLog()
	c := NewComposer(&mockRetriever{}, llm, nil, log, 3)

	exp := c.Chat(context.Background(), "   ")

	assert.ErrorIs(t, exp.Err, domain.ErrInvalidInput)
	assert.Empty(t, llm.prompts)

	entries := recentEntries(t, log)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Question)
	assert.Equal(t, exp.Text, entries[0].Answer)
}

func TestComposer_Chat_Failure(t *testing.T) {
	log := memory.NewQueryLog()
	c := NewComposer(&mockRetriever{}, &mockLLMService{err: errors.New("timeout")}, nil, log, 3)

	exp := c.Chat(context.Background(), "Is Omicron milder?")

	assert.True(t, strings.HasPrefix(exp.Text, "Error generating response: "))
	assert.Len(t, recentEntries(t, log), 1)
}

func TestComposer_PromptStoreOverride(t *testing.T) {
	llm := &mockLLMService{response: "ok"}
	store := &mockPromptStore{prompts: map[string]string{
		driven.PromptChat: "Q={{question}} C={{context}}",
	}}
	c := NewComposer(&mockRetriever{passages: samplePassages()[:1]}, llm, nil, nil, 3)
	c.SetPromptStore(store)

	c.Chat(context.Background(), "why")
	c.Explain(context.Background(), examplePatient())

	require.Len(t, llm.prompts, 2)
	assert.Equal(t, "Q=why C=Waning immunity after 6 months.", llm.prompts[0])
	assert.Contains(t, llm.prompts[1], "Format response exactly", "missing prompt falls back to the built-in template")
}

func TestComposer_LogsDespiteCancelledContext(t *testing.T) {
	log := memory.NewQueryLog()
	c := NewComposer(&mockRetriever{}, &mockLLMService{response: "answer"}, nil, log, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.Chat(ctx, "question")

	assert.Len(t, recentEntries(t, log), 1)
}
