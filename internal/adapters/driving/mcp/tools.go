package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

const (
	defaultEvidenceK = 5
	maxEvidenceK     = 20
)

// PatientInput is the input schema for the patient tools.
type PatientInput struct {
	Patient domain.PatientRecord `json:"patient" jsonschema:"the patient's clinical and demographic record"`
}

// PredictOutput is the output schema for the predict_reinfection tool.
type PredictOutput struct {
	Prediction      string   `json:"reinfection_prediction"`
	Description     string   `json:"description"`
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
	RiskLevel       string   `json:"risk_level,omitempty"`
	Explanation     string   `json:"explanation,omitempty"`
}

// ExplainInput is the input schema for the explain_risk tool.
type ExplainInput struct {
	Patient        domain.PatientRecord `json:"patient" jsonschema:"the patient's clinical and demographic record"`
	WithPrediction bool                 `json:"with_prediction,omitempty" jsonschema:"include the model's prediction in the explanation"`
}

// ExplainOutput is the output schema for explanation tools.
type ExplainOutput struct {
	Provenance   string   `json:"provenance"`
	Text         string   `json:"text"`
	RiskLevel    string   `json:"risk_level,omitempty"`
	MLPrediction string   `json:"ml_prediction,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	Degraded     bool     `json:"degraded"`
}

// AskInput is the input schema for the ask_literature tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"a question about COVID-19 reinfection"`
}

// AskOutput is the output schema for the ask_literature tool.
type AskOutput struct {
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources,omitempty"`
	Degraded bool     `json:"degraded"`
}

// RetrieveInput is the input schema for the retrieve_evidence tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find similar literature passages for"`
	K     int    `json:"k,omitempty" jsonschema:"number of passages to return (default 5, max 20)"`
}

// RetrieveOutput is the output schema for the retrieve_evidence tool.
type RetrieveOutput struct {
	Passages []domain.EvidencePassage `json:"passages"`
	Count    int                      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "predict_reinfection",
		Description: "Predict whether a patient will be reinfected with COVID-19, with risk factors and a literature-grounded explanation",
	}, s.handlePredict)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "explain_risk",
		Description: "Explain a patient's reinfection risk from the medical literature",
	}, s.handleExplain)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_literature",
		Description: "Answer a question about COVID-19 reinfection from indexed PubMed abstracts",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_evidence",
		Description: "Return the PubMed passages most similar to a query",
	}, s.handleRetrieve)
}

// handlePredict handles the predict_reinfection tool invocation.
func (s *Server) handlePredict(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PatientInput,
) (*mcp.CallToolResult, PredictOutput, error) {
	if s.ports.Assessment == nil {
		return nil, PredictOutput{}, errNoModel
	}

	assessment, err := s.ports.Assessment.Assess(ctx, input.Patient)
	if err != nil {
		return nil, PredictOutput{}, err
	}

	output := PredictOutput{
		Prediction:      assessment.Prediction.String(),
		Description:     assessment.Description,
		RiskFactors:     orEmpty(assessment.RiskFactors),
		Recommendations: orEmpty(assessment.Recommendations),
	}
	if exp := assessment.Explanation; exp != nil {
		output.RiskLevel = string(exp.Assessment.RiskLevel)
		output.Explanation = exp.Text
	}
	return nil, output, nil
}

// handleExplain handles the explain_risk tool invocation.
func (s *Server) handleExplain(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExplainInput,
) (*mcp.CallToolResult, ExplainOutput, error) {
	if err := input.Patient.Validate(); err != nil {
		return nil, ExplainOutput{}, err
	}

	var exp *domain.Explanation
	if input.WithPrediction && s.ports.Assessment != nil {
		var err error
		exp, err = s.ports.Assessment.ExplainIntegrated(ctx, input.Patient)
		if err != nil {
			return nil, ExplainOutput{}, err
		}
	} else {
		exp = s.ports.Explanation.Explain(ctx, input.Patient)
	}

	return nil, toExplainOutput(exp), nil
}

// handleAsk handles the ask_literature tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	exp := s.ports.Explanation.Chat(ctx, input.Question)
	return nil, AskOutput{
		Answer:   exp.Text,
		Sources:  sourceIDs(exp.Passages),
		Degraded: exp.Degraded(),
	}, nil
}

// handleRetrieve handles the retrieve_evidence tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if s.ports.Retrieval == nil {
		return nil, RetrieveOutput{}, errNoIndex
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrieveOutput{}, errors.New("query is required")
	}

	k := input.K
	if k <= 0 {
		k = defaultEvidenceK
	}
	k = min(k, maxEvidenceK)

	passages, err := s.ports.Retrieval.Retrieve(ctx, input.Query, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	if passages == nil {
		passages = []domain.EvidencePassage{}
	}
	return nil, RetrieveOutput{Passages: passages, Count: len(passages)}, nil
}

func toExplainOutput(exp *domain.Explanation) ExplainOutput {
	if exp == nil {
		return ExplainOutput{}
	}
	return ExplainOutput{
		Provenance:   exp.Provenance.String(),
		Text:         exp.Text,
		RiskLevel:    string(exp.Assessment.RiskLevel),
		MLPrediction: exp.Assessment.MLPrediction,
		Sources:      sourceIDs(exp.Passages),
		Degraded:     exp.Degraded(),
	}
}

// sourceIDs returns the distinct PMIDs cited by passages, in order.
func sourceIDs(passages []domain.EvidencePassage) []string {
	seen := make(map[string]bool, len(passages))
	var ids []string
	for _, p := range passages {
		if p.SourceID == "" || seen[p.SourceID] {
			continue
		}
		seen[p.SourceID] = true
		ids = append(ids, p.SourceID)
	}
	return ids
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
