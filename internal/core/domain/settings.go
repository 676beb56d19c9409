package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderAzure is an Azure OpenAI deployment.
	AIProviderAzure AIProvider = "azure"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderAzure:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderAzure
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderAzure:
		return "Azure OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama, or the Azure resource endpoint).
	BaseURL string

	// APIKey is the API key (for OpenAI/Azure).
	APIKey string

	// APIVersion is the Azure OpenAI api-version query parameter.
	APIVersion string

	// Deployment is the Azure deployment name. Falls back to Model.
	Deployment string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	if e.Provider == AIProviderAzure && e.BaseURL == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama, or the Azure resource endpoint).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic/Azure).
	APIKey string

	// APIVersion is the Azure OpenAI api-version query parameter.
	APIVersion string

	// Deployment is the Azure deployment name. Falls back to Model.
	Deployment string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	if l.Provider == AIProviderAzure && l.BaseURL == "" {
		return false
	}
	return true
}

// ArtifactSettings locates the trained model artifacts.
type ArtifactSettings struct {
	// Dir holds scaler.json, encoders.json and classifier.json.
	Dir string
}

// Artifact file names inside ArtifactSettings.Dir.
const (
	ScalerFile     = "scaler.json"
	EncodersFile   = "encoders.json"
	ClassifierFile = "classifier.json"
)

// DataSettings locates the evidence index and the query log.
type DataSettings struct {
	// Dir holds evidence.db and qna_history.jsonl.
	Dir string
}

// Data file names inside DataSettings.Dir.
const (
	EvidenceDBFile = "evidence.db"
	QueryLogFile   = "qna_history.jsonl"
)

// RetrievalSettings controls evidence retrieval.
type RetrievalSettings struct {
	// TopK is the number of passages handed to the LLM.
	TopK int
}

// IndexSettings controls the offline index build.
type IndexSettings struct {
	// ChunkSize is the chunk window in characters.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int

	// EmbedBatchSize is the number of chunks sent per embedding request.
	EmbedBatchSize int

	// EmbedWorkers is the number of concurrent embedding requests.
	EmbedWorkers int
}

// PubMedSettings configures the NCBI E-utilities client.
type PubMedSettings struct {
	// BaseURL is the E-utilities endpoint.
	BaseURL string

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string

	// Email identifies the caller to NCBI.
	Email string

	// MaxPerTopic caps abstracts fetched per topic.
	MaxPerTopic int
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// CORSOrigins are the browser origins allowed to call the API.
	CORSOrigins []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Artifacts locates the model artifacts.
	Artifacts ArtifactSettings

	// Data locates the index and query log.
	Data DataSettings

	// Retrieval holds retrieval settings.
	Retrieval RetrievalSettings

	// Index holds index build settings.
	Index IndexSettings

	// PubMed holds literature source settings.
	PubMed PubMedSettings

	// Server holds HTTP API settings.
	Server ServerSettings
}

// Default setting values.
const (
	DefaultTopK           = 3
	DefaultChunkSize      = 500
	DefaultChunkOverlap   = 50
	DefaultEmbedBatchSize = 32
	DefaultEmbedWorkers   = 4
	DefaultMaxPerTopic    = 100
	DefaultServerAddr     = ":8000"
	DefaultPubMedBaseURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultArtifactsDir   = "model"
	DefaultDataDir        = "data"
)

// DefaultCORSOrigins are the local front-end origins.
func DefaultCORSOrigins() []string {
	return []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"http://localhost:8501",
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured by default.
// Users must explicitly configure them via "reinfect settings".
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Artifacts: ArtifactSettings{Dir: DefaultArtifactsDir},
		Data:      DataSettings{Dir: DefaultDataDir},
		Retrieval: RetrievalSettings{TopK: DefaultTopK},
		Index: IndexSettings{
			ChunkSize:      DefaultChunkSize,
			ChunkOverlap:   DefaultChunkOverlap,
			EmbedBatchSize: DefaultEmbedBatchSize,
			EmbedWorkers:   DefaultEmbedWorkers,
		},
		PubMed: PubMedSettings{
			BaseURL:     DefaultPubMedBaseURL,
			MaxPerTopic: DefaultMaxPerTopic,
		},
		Server: ServerSettings{
			Addr:        DefaultServerAddr,
			CORSOrigins: DefaultCORSOrigins(),
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAzure,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderAzure,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderAzure:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderAzure:     "gpt-4o",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration.
// Chunks abstracts, then strips inline markup from each chunk.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "markup"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": DefaultChunkSize,
				"overlap":    DefaultChunkOverlap,
			},
		},
	}
}
