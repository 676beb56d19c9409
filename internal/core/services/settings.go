package services

import (
	"fmt"
	"os"
	"slices"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedAPIVersion = "embedding.api_version"
	keyEmbedDeployment = "embedding.deployment"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMAPIVersion   = "llm.api_version"
	keyLLMDeployment   = "llm.deployment"
	keyArtifactsDir    = "artifacts.dir"
	keyDataDir         = "data.dir"
	keyRetrievalTopK   = "retrieval.top_k"
	keyChunkSize       = "index.chunk_size"
	keyChunkOverlap    = "index.chunk_overlap"
	keyEmbedBatchSize  = "index.embed_batch_size"
	keyEmbedWorkers    = "index.embed_workers"
	keyPubMedBaseURL   = "pubmed.base_url"
	keyPubMedAPIKey    = "pubmed.api_key"
	keyPubMedEmail     = "pubmed.email"
	keyPubMedMax       = "pubmed.max_per_topic"
	keyServerAddr      = "server.addr"
	keyServerCORS      = "server.cors_origins"
)

// Environment variables that override stored secrets and Azure settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvLLMAPIKey       = "REINFECT_LLM_API_KEY"
	EnvEmbeddingAPIKey = "REINFECT_EMBEDDING_API_KEY"
	EnvPubMedAPIKey    = "REINFECT_PUBMED_API_KEY"
	EnvAzureAPIKey     = "AZURE_API_KEY"
	EnvAzureEndpoint   = "AZURE_ENDPOINT"
	EnvAzureAPIVersion = "AZURE_API_VERSION"
	EnvAzureDeployment = "DEPLOYMENT_NAME"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup used for overrides.
func (s *SettingsService) SetEnvLookup(fn func(string) (string, bool)) {
	if fn == nil {
		fn = func(string) (string, bool) { return "", false }
	}
	s.lookupEnv = fn
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads settings from the config store only.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	cors := s.configStore.GetStringSlice(keyServerCORS)
	if len(cors) == 0 {
		cors = defaults.Server.CORSOrigins
	}

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			APIVersion: s.configStore.GetString(keyEmbedAPIVersion),
			Deployment: s.configStore.GetString(keyEmbedDeployment),
		},
		LLM: domain.LLMSettings{
			Provider:   s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:      s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:    s.configStore.GetString(keyLLMBaseURL),
			APIKey:     s.configStore.GetString(keyLLMAPIKey),
			APIVersion: s.configStore.GetString(keyLLMAPIVersion),
			Deployment: s.configStore.GetString(keyLLMDeployment),
		},
		Artifacts: domain.ArtifactSettings{
			Dir: s.getString(keyArtifactsDir, defaults.Artifacts.Dir),
		},
		Data: domain.DataSettings{
			Dir: s.getString(keyDataDir, defaults.Data.Dir),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
		},
		Index: domain.IndexSettings{
			ChunkSize:      s.getInt(keyChunkSize, defaults.Index.ChunkSize),
			ChunkOverlap:   s.getInt(keyChunkOverlap, defaults.Index.ChunkOverlap),
			EmbedBatchSize: s.getInt(keyEmbedBatchSize, defaults.Index.EmbedBatchSize),
			EmbedWorkers:   s.getInt(keyEmbedWorkers, defaults.Index.EmbedWorkers),
		},
		PubMed: domain.PubMedSettings{
			BaseURL:     s.getString(keyPubMedBaseURL, defaults.PubMed.BaseURL),
			APIKey:      s.configStore.GetString(keyPubMedAPIKey),
			Email:       s.configStore.GetString(keyPubMedEmail),
			MaxPerTopic: s.getInt(keyPubMedMax, defaults.PubMed.MaxPerTopic),
		},
		Server: domain.ServerSettings{
			Addr:        s.getString(keyServerAddr, defaults.Server.Addr),
			CORSOrigins: cors,
		},
	}
}

// applyEnv overlays environment secrets. When no LLM provider is stored
// and Azure credentials are present, Azure becomes the LLM provider.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v, ok := s.env(EnvLLMAPIKey); ok {
		settings.LLM.APIKey = v
	}
	if v, ok := s.env(EnvEmbeddingAPIKey); ok {
		settings.Embedding.APIKey = v
	}
	if v, ok := s.env(EnvPubMedAPIKey); ok {
		settings.PubMed.APIKey = v
	}

	azureKey, hasKey := s.env(EnvAzureAPIKey)
	endpoint, hasEndpoint := s.env(EnvAzureEndpoint)
	if settings.LLM.Provider == "" && hasKey && hasEndpoint {
		settings.LLM.Provider = domain.AIProviderAzure
		if settings.LLM.Model == "" {
			settings.LLM.Model = domain.DefaultLLMModels()[domain.AIProviderAzure]
		}
	}

	if settings.LLM.Provider == domain.AIProviderAzure {
		s.overlayAzure(&settings.LLM.APIKey, &settings.LLM.BaseURL,
			&settings.LLM.APIVersion, &settings.LLM.Deployment, azureKey, endpoint)
	}
	if settings.Embedding.Provider == domain.AIProviderAzure {
		// The deployment name belongs to the chat model, embeddings keep their own.
		var ignored string
		s.overlayAzure(&settings.Embedding.APIKey, &settings.Embedding.BaseURL,
			&settings.Embedding.APIVersion, &ignored, azureKey, endpoint)
	}
}

func (s *SettingsService) overlayAzure(apiKey, baseURL, apiVersion, deployment *string, key, endpoint string) {
	if key != "" {
		*apiKey = key
	}
	if endpoint != "" {
		*baseURL = endpoint
	}
	if v, ok := s.env(EnvAzureAPIVersion); ok {
		*apiVersion = v
	}
	if v, ok := s.env(EnvAzureDeployment); ok {
		*deployment = v
	}
}

func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	strs := []struct {
		key, val string
		secret   bool
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String(), false},
		{keyEmbedModel, settings.Embedding.Model, false},
		{keyEmbedBaseURL, settings.Embedding.BaseURL, false},
		{keyEmbedAPIKey, settings.Embedding.APIKey, true},
		{keyEmbedAPIVersion, settings.Embedding.APIVersion, false},
		{keyEmbedDeployment, settings.Embedding.Deployment, false},
		{keyLLMProvider, settings.LLM.Provider.String(), false},
		{keyLLMModel, settings.LLM.Model, false},
		{keyLLMBaseURL, settings.LLM.BaseURL, false},
		{keyLLMAPIKey, settings.LLM.APIKey, true},
		{keyLLMAPIVersion, settings.LLM.APIVersion, false},
		{keyLLMDeployment, settings.LLM.Deployment, false},
		{keyArtifactsDir, settings.Artifacts.Dir, false},
		{keyDataDir, settings.Data.Dir, false},
		{keyPubMedBaseURL, settings.PubMed.BaseURL, false},
		{keyPubMedAPIKey, settings.PubMed.APIKey, true},
		{keyPubMedEmail, settings.PubMed.Email, false},
		{keyServerAddr, settings.Server.Addr, false},
	}
	for _, kv := range strs {
		// Empty secrets never overwrite a stored key.
		if kv.secret && kv.val == "" {
			continue
		}
		if err := s.configStore.Set(kv.key, kv.val); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}

	ints := []struct {
		key string
		val int
	}{
		{keyRetrievalTopK, settings.Retrieval.TopK},
		{keyChunkSize, settings.Index.ChunkSize},
		{keyChunkOverlap, settings.Index.ChunkOverlap},
		{keyEmbedBatchSize, settings.Index.EmbedBatchSize},
		{keyEmbedWorkers, settings.Index.EmbedWorkers},
		{keyPubMedMax, settings.PubMed.MaxPerTopic},
	}
	for _, kv := range ints {
		if err := s.configStore.Set(kv.key, kv.val); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}

	if err := s.configStore.Set(keyServerCORS, settings.Server.CORSOrigins); err != nil {
		return fmt.Errorf("save %s: %w", keyServerCORS, err)
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate provider supports embeddings
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	settings.Embedding.BaseURL = providerBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.stored()
	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	settings.LLM.BaseURL = providerBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// providerBaseURL keeps a custom base URL for providers that need one.
func providerBaseURL(provider domain.AIProvider, current string) string {
	switch {
	case provider.IsLocal():
		// Local providers need a base URL
		if current == "" {
			return defaultOllamaURL
		}
		return current
	case provider == domain.AIProviderAzure:
		// Azure keeps the resource endpoint set via SetAzure.
		return current
	default:
		// Cloud providers don't need a custom base URL
		return ""
	}
}

// SetAzure configures the Azure resource endpoint, api-version and chat
// deployment for every Azure-backed provider.
func (s *SettingsService) SetAzure(endpoint, apiVersion, deployment string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: azure endpoint is required", domain.ErrInvalidInput)
	}

	settings := s.stored()
	if settings.LLM.Provider == domain.AIProviderAzure || settings.LLM.Provider == "" {
		settings.LLM.BaseURL = endpoint
		settings.LLM.APIVersion = apiVersion
		settings.LLM.Deployment = deployment
	}
	if settings.Embedding.Provider == domain.AIProviderAzure {
		settings.Embedding.BaseURL = endpoint
		settings.Embedding.APIVersion = apiVersion
	}
	return s.Save(settings)
}

// SetArtifactsDir sets the model artifact directory.
func (s *SettingsService) SetArtifactsDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: artifacts directory is required", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyArtifactsDir, dir)
}

// SetDataDir sets the index and query log directory.
func (s *SettingsService) SetDataDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: data directory is required", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyDataDir, dir)
}

// Validate checks that the settings can serve predictions and explanations.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Artifacts.Dir == "" {
		return fmt.Errorf("%w: artifacts directory is not set", domain.ErrArtifactsUnavailable)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: configure it with \"reinfect settings embedding\"", domain.ErrEmbeddingUnavailable)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: configure it with \"reinfect settings llm\"", domain.ErrLLMUnavailable)
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", domain.ErrInvalidInput)
	}
	if settings.Index.ChunkOverlap >= settings.Index.ChunkSize {
		return fmt.Errorf("%w: index.chunk_overlap must be smaller than index.chunk_size", domain.ErrInvalidInput)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// GetPipelineConfig returns the post-processor pipeline configuration.
// The chunker takes its window from the index settings unless the
// pipeline section overrides it.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	settings := s.stored()
	cfg.ProcessorConfigs["chunker"] = map[string]any{
		"chunk_size": settings.Index.ChunkSize,
		"overlap":    settings.Index.ChunkOverlap,
	}

	// Try to load processors list from config
	if processors := s.configStore.GetStringSlice("pipeline.processors"); len(processors) > 0 {
		cfg.Processors = processors
	}

	// Per-processor overrides merge over the defaults.
	for _, name := range cfg.Processors {
		override := s.loadProcessorConfig("pipeline." + name + ".")
		if len(override) == 0 {
			continue
		}
		existing := cfg.ProcessorConfigs[name]
		if existing == nil {
			existing = make(map[string]any)
		}
		for k, v := range override {
			existing[k] = v
		}
		cfg.ProcessorConfigs[name] = existing
	}

	return cfg
}

// loadProcessorConfig loads config keys with a given prefix into a map.
func (s *SettingsService) loadProcessorConfig(prefix string) map[string]any {
	cfg := make(map[string]any)

	// Keys understood by the registered processors.
	for _, key := range []string{"chunk_size", "overlap", "keep_math"} {
		if val, exists := s.configStore.Get(prefix + key); exists {
			cfg[key] = val
		}
	}

	return cfg
}
