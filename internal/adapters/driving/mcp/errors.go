// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants predict reinfection risk and query the evidence
// corpus through tools.
package mcp

import "errors"

// ErrMissingExplanationService is returned when the explanation service is not provided.
var ErrMissingExplanationService = errors.New("mcp: explanation service is required")

// errNoModel is returned by prediction tools when no model is loaded.
var errNoModel = errors.New("no prediction model is loaded")

// errNoIndex is returned by retrieval when the evidence index is unavailable.
var errNoIndex = errors.New("evidence index is not available, run 'reinfect index build'")
