package driving

import (
	"context"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// PredictionService turns patient records into reinfection labels.
type PredictionService interface {
	// Predict returns one label per record, in input order.
	Predict(ctx context.Context, records []domain.PatientRecord) ([]domain.Label, error)
}

// AssessmentService produces the full per-patient answer served by the API.
type AssessmentService interface {
	// Assess predicts, narrates risk factors and explains the result.
	// Prediction failures are returned; explanation failures are carried
	// inside the returned Explanation.
	Assess(ctx context.Context, record domain.PatientRecord) (*domain.Assessment, error)

	// ExplainIntegrated explains with the predicted label, falling back to
	// Unknown when prediction fails. Returns ErrLLMUnavailable when no
	// explanation service is configured.
	ExplainIntegrated(ctx context.Context, record domain.PatientRecord) (*domain.Explanation, error)
}
