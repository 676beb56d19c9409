package domain

import "strings"

// Provenance tags where an explanation's content came from.
type Provenance string

// Explanation provenances.
const (
	// ProvenanceLiterature is an explanation grounded only in retrieved evidence.
	ProvenanceLiterature Provenance = "literature"

	// ProvenanceIntegrated combines the classifier label with retrieved evidence.
	ProvenanceIntegrated Provenance = "integrated"

	// ProvenanceChat is a free-form answer to a user question.
	ProvenanceChat Provenance = "chat"
)

// Tag returns the bracketed header prefixed to the explanation text.
// Chat answers carry no tag.
func (p Provenance) Tag() string {
	switch p {
	case ProvenanceLiterature:
		return "[ RAG Medical Literature ]"
	case ProvenanceIntegrated:
		return "[ Integrated Analysis ]"
	default:
		return ""
	}
}

// String returns the string representation.
func (p Provenance) String() string {
	return string(p)
}

// RiskLevel is the LLM's qualitative risk verdict.
type RiskLevel string

// Risk levels emitted by the explanation prompts.
const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// ParseRiskLevel matches s case-insensitively against the known levels.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	for _, l := range []RiskLevel{RiskLow, RiskModerate, RiskHigh} {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	return "", false
}

// ParsedAssessment is the structured reading of an explanation's text.
// When the LLM output lacks the expected markers only Explanation is set.
type ParsedAssessment struct {
	RiskLevel    RiskLevel `json:"risk_level,omitempty"`
	MLPrediction string    `json:"ml_prediction,omitempty"`
	Explanation  string    `json:"explanation"`
}

// Explanation is the composer's output. Err is set when a provider failed
// and Text then holds the visible error marker instead of model output.
type Explanation struct {
	Provenance Provenance        `json:"provenance"`
	Text       string            `json:"text"`
	Assessment ParsedAssessment  `json:"assessment"`
	Passages   []EvidencePassage `json:"passages,omitempty"`
	Err        error             `json:"-"`
}

// Degraded reports whether the explanation carries an error marker.
func (e *Explanation) Degraded() bool {
	return e != nil && e.Err != nil
}
