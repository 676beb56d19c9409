package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ensure Predictor implements the interface.
var _ driving.PredictionService = (*Predictor)(nil)

// Predictor runs the trained classifier over derived features.
type Predictor struct {
	deriver    *FeatureDeriver
	classifier driven.Classifier
}

// NewPredictor creates a predictor.
func NewPredictor(deriver *FeatureDeriver, classifier driven.Classifier) *Predictor {
	return &Predictor{
		deriver:    deriver,
		classifier: classifier,
	}
}

// Predict returns one label per record. Schema problems surface as
// ErrInvalidInput or ErrSchemaMismatch; classifier failures as *PredictionError.
func (p *Predictor) Predict(ctx context.Context, records []domain.PatientRecord) ([]domain.Label, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no patient records", domain.ErrInvalidInput)
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Section("Prediction")
	matrix, err := p.deriver.Derive(records)
	if err != nil {
		if errors.Is(err, domain.ErrSchemaMismatch) {
			return nil, err
		}
		return nil, domain.NewPredictionError(err)
	}

	rows := make([][]float64, len(matrix))
	want := p.classifier.NumFeatures()
	for i, v := range matrix {
		if want > 0 && len(v) != want {
			return nil, domain.NewPredictionError(fmt.Errorf(
				"row %d has %d features, classifier expects %d", i, len(v), want))
		}
		rows[i] = v
	}
	logger.Debug("derived %d rows of %d features", len(rows), want)

	classes, err := p.classifier.Predict(rows)
	if err != nil {
		return nil, domain.NewPredictionError(err)
	}
	if len(classes) != len(rows) {
		return nil, domain.NewPredictionError(fmt.Errorf(
			"classifier returned %d predictions for %d rows", len(classes), len(rows)))
	}

	labels := make([]domain.Label, len(classes))
	for i, c := range classes {
		labels[i] = domain.LabelFromClass(c)
	}
	logger.Debug("predictions: %v", labels)
	return labels, nil
}
