package driven

// FeatureScaler standardises model-ready rows. FeatureNames fixes the
// column order every FeatureVector must follow.
type FeatureScaler interface {
	// FeatureNames returns the ordered columns the scaler was fitted on.
	FeatureNames() []string

	// Transform scales one row in FeatureNames order.
	// The input row is not modified.
	Transform(row []float64) ([]float64, error)
}

// CategoricalEncoders map categorical values to the integer codes seen
// at training time.
type CategoricalEncoders interface {
	// Has reports whether a stored encoder exists for the column.
	Has(column string) bool

	// Encode returns the code for value and whether it was seen in training.
	Encode(column, value string) (int, bool)
}

// Classifier is the trained binary reinfection model.
type Classifier interface {
	// Predict returns 1 (reinfected) or 0 per row.
	Predict(rows [][]float64) ([]int, error)

	// NumFeatures is the row width the model expects.
	NumFeatures() int
}
