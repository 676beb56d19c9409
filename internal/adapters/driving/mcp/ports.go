package mcp

import (
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Explanation answers questions and explains patients from literature.
	Explanation driving.ExplanationService

	// Assessment predicts and explains a single patient.
	Assessment driving.AssessmentService

	// Retrieval searches the evidence index directly.
	Retrieval driving.RetrievalService

	// History exposes recent questions and answers.
	History driving.HistoryService

	// Index reports evidence index statistics.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Explanation == nil {
		return ErrMissingExplanationService
	}
	// Assessment and Retrieval degrade to tool errors when absent.
	return nil
}
