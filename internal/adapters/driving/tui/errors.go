package tui

import "errors"

// ErrMissingExplanationService is returned when the explanation service is not provided.
var ErrMissingExplanationService = errors.New("tui: explanation service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
