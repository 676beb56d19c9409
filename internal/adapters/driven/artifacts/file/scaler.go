package file

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// Ensure Scaler implements the interface.
var _ driven.FeatureScaler = (*Scaler)(nil)

// Scaler applies standard scaling: (x - mean) / scale per column.
type Scaler struct {
	names []string
	mean  []float64
	scale []float64
}

type scalerFile struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// NewScaler validates and builds a scaler. A zero scale is treated as 1,
// matching constant columns at fit time.
func NewScaler(names []string, mean, scale []float64) (*Scaler, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("scaler has no feature names")
	}
	if len(mean) != len(names) || len(scale) != len(names) {
		return nil, fmt.Errorf("scaler shape mismatch: %d names, %d means, %d scales",
			len(names), len(mean), len(scale))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, fmt.Errorf("scaler feature %q listed twice", n)
		}
		seen[n] = true
	}

	s := &Scaler{
		names: slices.Clone(names),
		mean:  slices.Clone(mean),
		scale: slices.Clone(scale),
	}
	for i, v := range s.scale {
		if v == 0 {
			s.scale[i] = 1
		}
	}
	return s, nil
}

// FeatureNames returns a copy of the fitted column order.
func (s *Scaler) FeatureNames() []string {
	return slices.Clone(s.names)
}

// Transform scales row into a new slice.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.names) {
		return nil, fmt.Errorf("scaler expects %d columns, got %d", len(s.names), len(row))
	}
	out := make([]float64, len(row))
	for i, x := range row {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out, nil
}
