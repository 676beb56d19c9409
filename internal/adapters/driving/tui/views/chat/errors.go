package chat

import "errors"

// Error definitions for the chat view.
var (
	// ErrNoExplanationService indicates that no explanation service was provided.
	ErrNoExplanationService = errors.New("explanation service is required")
)
