package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ensure Assessor implements the interface.
var _ driving.AssessmentService = (*Assessor)(nil)

// Thresholds for the rule-based risk narrative.
const (
	advancedAge         = 65
	obeseBMI            = 30.0
	minAdequateDoses    = 2
	recommendedDoses    = 3
	smokingStatusActive = "Current"
)

// Assessor composes prediction, risk narrative and explanation for one patient.
type Assessor struct {
	predictor driving.PredictionService
	composer  driving.ExplanationService
}

// NewAssessor creates an assessor. The composer is optional (can be nil),
// in which case assessments carry no explanation.
func NewAssessor(predictor driving.PredictionService, composer driving.ExplanationService) *Assessor {
	return &Assessor{
		predictor: predictor,
		composer:  composer,
	}
}

// Assess predicts the label and builds the narrative. Prediction errors are
// returned unchanged; the explanation degrades on its own.
func (a *Assessor) Assess(ctx context.Context, record domain.PatientRecord) (*domain.Assessment, error) {
	labels, err := a.predictor.Predict(ctx, []domain.PatientRecord{record})
	if err != nil {
		return nil, err
	}
	if len(labels) != 1 {
		return nil, domain.NewPredictionError(fmt.Errorf("expected 1 prediction, got %d", len(labels)))
	}
	label := labels[0]

	out := &domain.Assessment{
		Prediction:      label,
		Description:     Describe(record),
		RiskFactors:     RiskFactors(record),
		Recommendations: Recommendations(record),
	}
	if a.composer != nil {
		out.Explanation = a.composer.ExplainWithPrediction(ctx, record, &label)
	}
	return out, nil
}

// ExplainIntegrated explains with the classifier label when one can be
// produced. A failed prediction is logged and the explanation proceeds
// with an Unknown label.
func (a *Assessor) ExplainIntegrated(ctx context.Context, record domain.PatientRecord) (*domain.Explanation, error) {
	if a.composer == nil {
		return nil, domain.ErrLLMUnavailable
	}
	var label *domain.Label
	labels, err := a.predictor.Predict(ctx, []domain.PatientRecord{record})
	switch {
	case err != nil:
		logger.Warn("Prediction unavailable, explaining with Unknown label: %v", err)
	case len(labels) == 1:
		label = &labels[0]
	}
	return a.composer.ExplainWithPrediction(ctx, record, label), nil
}

// Describe summarises smoking, BMI and ICU history in one line.
func Describe(p domain.PatientRecord) string {
	parts := make([]string, 0, 3)
	if p.SmokingStatus == smokingStatusActive {
		parts = append(parts, "Smoker")
	} else {
		parts = append(parts, "Non-Smoker")
	}
	if p.BMI > obeseBMI {
		parts = append(parts, "High BMI")
	} else {
		parts = append(parts, "Normal BMI")
	}
	if p.ICUAdmission == "Yes" {
		parts = append(parts, "ICU history")
	} else {
		parts = append(parts, "No ICU history")
	}
	return strings.Join(parts, ", ")
}

// RiskFactors lists the patient attributes associated with reinfection risk.
func RiskFactors(p domain.PatientRecord) []string {
	var factors []string
	if p.Age > advancedAge {
		factors = append(factors, "Advanced age (65+)")
	}
	if p.PreexistingCondition != "" && p.PreexistingCondition != "None" {
		factors = append(factors, "Preexisting condition: "+p.PreexistingCondition)
	}
	if p.VaccinationStatus == "No" {
		factors = append(factors, "Not vaccinated")
	} else if p.DosesReceived < minAdequateDoses {
		factors = append(factors, "Inadequate vaccination (< 2 doses)")
	}
	if p.Severity == "High" || p.Severity == "Critical" {
		factors = append(factors, p.Severity+" severity of initial infection")
	}
	if p.BMI > obeseBMI {
		factors = append(factors, "Obesity (BMI > 30)")
	}
	if p.SmokingStatus == smokingStatusActive {
		factors = append(factors, "Current smoker")
	}
	if len(factors) == 0 {
		factors = append(factors, "No significant risk factors identified")
	}
	return factors
}

// Recommendations lists preventive advice for the patient.
func Recommendations(p domain.PatientRecord) []string {
	var recs []string
	if p.VaccinationStatus == "No" {
		recs = append(recs, "Consider getting vaccinated to reduce reinfection risk")
	} else if p.DosesReceived < recommendedDoses {
		recs = append(recs, "Consider getting additional vaccine doses as recommended")
	}
	if p.BMI > obeseBMI {
		recs = append(recs, "Managing weight can help reduce severity of COVID-19")
	}
	if p.SmokingStatus == smokingStatusActive {
		recs = append(recs, "Quitting smoking can improve outcomes")
	}
	return append(recs,
		"Continue practicing preventive measures (masks, hand hygiene, etc.)",
		"Monitor for symptoms and get tested if they develop",
	)
}
