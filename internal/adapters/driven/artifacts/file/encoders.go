package file

import (
	"slices"

	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// Ensure Encoders implements the interface.
var _ driven.CategoricalEncoders = (*Encoders)(nil)

// Encoders holds label encoders per column. A value's code is its index in
// the column's sorted class list.
type Encoders struct {
	codes map[string]map[string]int
}

// NewEncoders builds encoders from class lists. Classes are sorted and
// de-duplicated so codes match a label encoder fitted on the same values.
func NewEncoders(classes map[string][]string) *Encoders {
	e := &Encoders{codes: make(map[string]map[string]int, len(classes))}
	for col, values := range classes {
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		sorted = slices.Compact(sorted)

		m := make(map[string]int, len(sorted))
		for i, v := range sorted {
			m[v] = i
		}
		e.codes[col] = m
	}
	return e
}

// Has reports whether a stored encoder exists for the column.
func (e *Encoders) Has(column string) bool {
	_, ok := e.codes[column]
	return ok
}

// Encode returns the training code for value. Unseen values report false.
func (e *Encoders) Encode(column, value string) (int, bool) {
	m, ok := e.codes[column]
	if !ok {
		return 0, false
	}
	code, ok := m[value]
	return code, ok
}

// Columns returns the encoded column names, sorted.
func (e *Encoders) Columns() []string {
	cols := make([]string, 0, len(e.codes))
	for c := range e.codes {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}
