package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchemaMismatch indicates a patient record cannot be turned into
	// model features, for example an unparseable date.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrIndexNotFound indicates the evidence index has not been built.
	// Run "reinfect index build" first.
	ErrIndexNotFound = errors.New("evidence index not found")

	// ErrPrediction indicates the classifier failed on well-formed features.
	ErrPrediction = errors.New("prediction failed")

	// ErrProvider indicates the embedding or LLM provider failed while
	// composing an explanation.
	ErrProvider = errors.New("provider error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Explanations and chat are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Evidence retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrArtifactsUnavailable indicates the scaler, encoders or classifier
	// could not be loaded.
	ErrArtifactsUnavailable = errors.New("model artifacts unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// SchemaMismatchError names the field and value that could not be converted.
type SchemaMismatchError struct {
	Field string
	Value string
	Err   error
}

func (e *SchemaMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema mismatch: field %s value %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("schema mismatch: field %s value %q", e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrSchemaMismatch and the underlying cause.
func (e *SchemaMismatchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchemaMismatch}
	}
	return []error{ErrSchemaMismatch, e.Err}
}

// PredictionError carries the classifier's original message.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string {
	return "prediction failed: " + e.Err.Error()
}

// Unwrap lets errors.Is match ErrPrediction and the underlying cause.
func (e *PredictionError) Unwrap() []error {
	return []error{ErrPrediction, e.Err}
}

// NewPredictionError wraps err as a PredictionError. A nil err yields nil.
func NewPredictionError(err error) error {
	if err == nil {
		return nil
	}
	var pe *PredictionError
	if errors.As(err, &pe) {
		return err
	}
	return &PredictionError{Err: err}
}
