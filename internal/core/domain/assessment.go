package domain

// Assessment is the full answer for one patient: the classifier label, a
// short narrative of risk indicators, rule-based risk factors and advice,
// and the integrated literature explanation.
type Assessment struct {
	Prediction      Label        `json:"reinfection_prediction"`
	Description     string       `json:"description"`
	RiskFactors     []string     `json:"risk_factors"`
	Recommendations []string     `json:"recommendations"`
	Explanation     *Explanation `json:"explanation,omitempty"`
}
