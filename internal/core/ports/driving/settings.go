package driving

import "github.com/custodia-labs/reinfect/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment overrides applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetAzure configures the Azure endpoint, api-version and deployment
	// for both the LLM and embedding providers that use Azure.
	SetAzure(endpoint, apiVersion, deployment string) error

	// SetArtifactsDir sets the model artifact directory.
	SetArtifactsDir(dir string) error

	// SetDataDir sets the index and query log directory.
	SetDataDir(dir string) error

	// Validate checks that the settings can serve explanations.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
