package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ensure Composer implements the interface.
var _ driving.ExplanationService = (*Composer)(nil)

// Visible error prefixes embedded in degraded explanations.
const (
	explainErrorPrefix    = "RAG system error: "
	integratedErrorPrefix = "Integration error: "
	chatErrorPrefix       = "Error generating response: "
)

// errEmptyCompletion is returned when the LLM answers with blank text.
var errEmptyCompletion = errors.New("language model returned an empty response")

// Composer builds literature-grounded explanations with an LLM.
// Provider failures never escape: they become a visible marker in the
// returned text, set Explanation.Err, and are still logged.
type Composer struct {
	retriever   driving.RetrievalService
	llmService  driven.LLMService
	promptStore driven.PromptStore
	queryLog    driven.QueryLog
	topK        int
}

// NewComposer creates an explanation composer.
// The promptStore and queryLog parameters are optional (can be nil).
func NewComposer(
	retriever driving.RetrievalService,
	llmService driven.LLMService,
	promptStore driven.PromptStore,
	queryLog driven.QueryLog,
	topK int,
) *Composer {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &Composer{
		retriever:   retriever,
		llmService:  llmService,
		promptStore: promptStore,
		queryLog:    queryLog,
		topK:        topK,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (c *Composer) SetPromptStore(store driven.PromptStore) {
	c.promptStore = store
}

// Explain answers from literature alone.
func (c *Composer) Explain(ctx context.Context, patient domain.PatientRecord) *domain.Explanation {
	logger.Section("Explain")
	query := BuildQuery(patient)
	prov := domain.ProvenanceLiterature

	text, passages, err := c.answer(ctx, driven.PromptExplain, query, "")
	if err != nil {
		msg := explainErrorPrefix + err.Error()
		c.record(ctx, query, msg)
		return degraded(prov, msg, err)
	}

	full := prov.Tag() + "\n" + text
	c.record(ctx, query, full)
	return &domain.Explanation{
		Provenance: prov,
		Text:       full,
		Assessment: ParseAssessment(text),
		Passages:   passages,
	}
}

// ExplainWithPrediction injects the classifier label into the prompt and
// the expected output. A nil label is rendered as Unknown.
func (c *Composer) ExplainWithPrediction(
	ctx context.Context, patient domain.PatientRecord, label *domain.Label,
) *domain.Explanation {
	logger.Section("Integrated Explain")
	query := BuildQuery(patient)
	prov := domain.ProvenanceIntegrated

	prediction := domain.LabelUnknown
	if label != nil && *label != "" {
		prediction = *label
	}
	logger.Debug("ML prediction: %s", prediction)

	text, passages, err := c.answer(ctx, driven.PromptExplainIntegrated, query, prediction.String())
	if err != nil {
		msg := integratedErrorPrefix + err.Error()
		c.record(ctx, query, msg)
		return degraded(prov, msg, err)
	}

	full := prov.Tag() + "\n" + text
	c.record(ctx, fmt.Sprintf("ML: %s - %s", prediction, query), full)
	return &domain.Explanation{
		Provenance: prov,
		Text:       full,
		Assessment: ParseAssessment(text),
		Passages:   passages,
	}
}

// Chat answers a free-form question. Chat answers carry no provenance tag.
func (c *Composer) Chat(ctx context.Context, question string) *domain.Explanation {
	logger.Section("Chat")
	question = strings.TrimSpace(question)
	prov := domain.ProvenanceChat

	if question == "" {
		err := fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
		msg := chatErrorPrefix + err.Error()
		c.record(ctx, question, msg)
		return &domain.Explanation{Provenance: prov, Text: msg, Err: err}
	}

	text, passages, err := c.answer(ctx, driven.PromptChat, question, "")
	if err != nil {
		msg := chatErrorPrefix + err.Error()
		c.record(ctx, question, msg)
		return degraded(prov, msg, err)
	}

	c.record(ctx, question, text)
	return &domain.Explanation{
		Provenance: prov,
		Text:       text,
		Assessment: domain.ParsedAssessment{Explanation: text},
		Passages:   passages,
	}
}

// answer retrieves evidence, renders the named prompt and calls the LLM
// at temperature 0.
func (c *Composer) answer(
	ctx context.Context, promptName, question, prediction string,
) (string, []domain.EvidencePassage, error) {
	if c.llmService == nil {
		return "", nil, domain.ErrLLMUnavailable
	}
	if c.retriever == nil {
		return "", nil, domain.ErrIndexNotFound
	}

	passages, err := c.retriever.Retrieve(ctx, question, c.topK)
	if err != nil {
		return "", nil, fmt.Errorf("retrieve evidence: %w", err)
	}
	logger.Debug("Retrieved %d passages", len(passages))

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	prompt := strings.NewReplacer(
		driven.PlaceholderContext, strings.Join(texts, "\n\n"),
		driven.PlaceholderQuestion, question,
		driven.PlaceholderPrediction, prediction,
	).Replace(c.template(promptName))

	resp, err := c.llmService.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0})
	if err != nil {
		return "", nil, fmt.Errorf("llm generate: %w", err)
	}
	resp = strings.TrimSpace(resp)
	if resp == "" {
		return "", nil, errEmptyCompletion
	}
	return resp, passages, nil
}

func (c *Composer) template(name string) string {
	if c.promptStore != nil {
		if p, err := c.promptStore.Load(name); err == nil && p != "" {
			return p
		}
		logger.Debug("Prompt %q unavailable, using built-in default", name)
	}
	return driven.DefaultPrompts()[name]
}

// record appends to the query log. Failures are logged, never returned.
func (c *Composer) record(ctx context.Context, question, answer string) {
	if c.queryLog == nil {
		return
	}
	// Entries must land even when the request is cancelled mid-flight.
	if err := c.queryLog.Append(context.WithoutCancel(ctx), domain.NewQnALogEntry(question, answer)); err != nil {
		logger.Warn("Query log append failed: %v", err)
	}
}

func degraded(prov domain.Provenance, msg string, cause error) *domain.Explanation {
	logger.Warn("Explanation degraded: %v", cause)
	text := msg
	if tag := prov.Tag(); tag != "" {
		text = tag + "\n" + msg
	}
	return &domain.Explanation{
		Provenance: prov,
		Text:       text,
		Assessment: domain.ParsedAssessment{Explanation: msg},
		Err:        fmt.Errorf("%w: %w", domain.ErrProvider, cause),
	}
}
