// Package domain defines the core business entities for reinfect.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - PatientRecord: One patient's clinical profile
//   - FeatureVector: A model-ready row in scaler column order
//   - Label: The classifier's Yes/No verdict
//   - Abstract, Chunk, EvidencePassage: The literature evidence corpus
//   - Explanation: An LLM answer grounded in retrieved evidence
//   - QnALogEntry: One recorded question/answer pair
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
