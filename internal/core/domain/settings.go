package domain

// AIProvider identifies an embedding provider.
type AIProvider string

// Supported embedding providers.
const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderAzure  AIProvider = "azure"
	AIProviderOllama AIProvider = "ollama"
)

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	// Provider selects the embedding backend.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider's default endpoint. Required for
	// azure; optional otherwise.
	BaseURL string

	// APIKey authenticates against the provider. Not used by ollama.
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// IsConfigured reports whether enough is set to create a service.
func (s *EmbeddingSettings) IsConfigured() bool {
	if s == nil || s.Provider == "" {
		return false
	}
	switch s.Provider {
	case AIProviderOllama:
		return true
	case AIProviderOpenAI:
		return s.APIKey != ""
	case AIProviderAzure:
		return s.APIKey != "" && s.BaseURL != ""
	default:
		return false
	}
}

// EmbeddingDimensions returns known model dimension defaults.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		"nomic-embed-text":       768,
		"all-minilm":             384,
		"mxbai-embed-large":      1024,
	}
}

// SearchSettings configures the managed search service used for the
// index, source and agent stages.
type SearchSettings struct {
	// Endpoint is the search service URL.
	Endpoint string

	// APIKey is the admin key.
	APIKey string
}

// IsConfigured reports whether the search service can be reached.
func (s *SearchSettings) IsConfigured() bool {
	return s != nil && s.Endpoint != "" && s.APIKey != ""
}
