package driving

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// ExplanationService composes literature-grounded answers.
// None of its methods fail: provider errors become visible markers in the
// returned Explanation and are reported through Explanation.Err.
type ExplanationService interface {
	// Explain answers why a patient may be at risk from literature alone.
	Explain(ctx context.Context, patient domain.PatientRecord) *domain.Explanation

	// ExplainWithPrediction combines the classifier label with literature.
	// A nil label is rendered as Unknown.
	ExplainWithPrediction(ctx context.Context, patient domain.PatientRecord, label *domain.Label) *domain.Explanation

	// Chat answers a free-form question.
	Chat(ctx context.Context, question string) *domain.Explanation
}

// RetrievalService finds evidence passages for a query.
type RetrievalService interface {
	// Retrieve returns up to k passages, most similar first.
	Retrieve(ctx context.Context, query string, k int) ([]domain.EvidencePassage, error)
}

// HistoryService exposes the question/answer log.
type HistoryService interface {
	// Recent returns up to n of the newest entries, oldest first.
	Recent(ctx context.Context, n int) ([]domain.QnALogEntry, error)

	// ImportLegacy appends entries from a JSON-array history file.
	ImportLegacy(ctx context.Context, path string) (int, error)
}
