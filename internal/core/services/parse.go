package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

const evidenceMarker = "According to the evidence,"

var (
	riskLevelRe    = regexp.MustCompile(`(?i)\*\*\s*(low|moderate|high)\s*\*\*`)
	mlPredictionRe = regexp.MustCompile(`(?i)ML Prediction:\s*(.+?)\s+risk\.`)
)

// ParseAssessment reads the risk level, echoed ML prediction and evidence
// paragraph out of an explanation. Text that does not follow the expected
// format is returned whole as the explanation.
func ParseAssessment(text string) domain.ParsedAssessment {
	body := stripProvenanceTag(text)
	out := domain.ParsedAssessment{Explanation: body}

	if m := riskLevelRe.FindStringSubmatch(body); m != nil {
		out.RiskLevel, _ = domain.ParseRiskLevel(m[1])
	}
	if m := mlPredictionRe.FindStringSubmatch(body); m != nil {
		out.MLPrediction = strings.TrimSpace(m[1])
	}
	if i := strings.Index(body, evidenceMarker); i >= 0 {
		out.Explanation = strings.TrimSpace(body[i:])
	}
	return out
}

func stripProvenanceTag(text string) string {
	text = strings.TrimSpace(text)
	for _, p := range []domain.Provenance{domain.ProvenanceLiterature, domain.ProvenanceIntegrated} {
		if rest, ok := strings.CutPrefix(text, p.Tag()); ok {
			return strings.TrimSpace(rest)
		}
	}
	return text
}
