// Package tui provides an interactive terminal user interface for reinfect.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Explanation answers questions from the literature.
	Explanation driving.ExplanationService

	// History reads the question and answer log.
	History driving.HistoryService

	// Index reports evidence index statistics.
	Index driving.IndexService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	explanation driving.ExplanationService,
	history driving.HistoryService,
	index driving.IndexService,
) *Ports {
	return &Ports{
		Explanation: explanation,
		History:     history,
		Index:       index,
	}
}

// Validate ensures all required ports are set.
// History and Index are optional; their views report the missing service.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Explanation == nil {
		return ErrMissingExplanationService
	}
	return nil
}
