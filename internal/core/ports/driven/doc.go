// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for prediction to function:
//
//   - FeatureScaler: Column order and standardisation
//   - CategoricalEncoders: Training-time category codes
//   - Classifier: The trained reinfection model
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Query and chunk embeddings. Without it, retrieval is disabled.
//   - VectorIndex: Similarity search over chunk embeddings.
//   - EvidenceStore: Abstract and chunk persistence.
//   - LLMService: Language model operations. Without it, explanations are disabled.
//   - PromptStore: Editable prompt templates. Without it, built-in prompts are used.
//   - QueryLog: Question/answer history.
//   - LiteratureSource: Abstract download for index builds.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
