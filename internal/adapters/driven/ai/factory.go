// Package ai provides factory functions for creating embedding service
// adapters from settings.
package ai

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	ollamaembed "github.com/prism-labs/prism-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/prism-labs/prism-cli/internal/adapters/driven/embedding/openai"
	"github.com/prism-labs/prism-cli/internal/core/domain"
	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings, false)

	case domain.AIProviderAzure:
		return createOpenAIEmbedding(settings, true)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// EmbeddingSettingsFromEnv builds embedding settings from the
// environment:
//
//	PRISM_EMBEDDING_PROVIDER    openai | azure | ollama (default openai)
//	PRISM_EMBEDDING_MODEL       model name
//	PRISM_EMBEDDING_DIMENSIONS  vector size override
//	PRISM_EMBEDDING_BASE_URL    endpoint override (required for azure)
//	OPENAI_API_KEY              key for openai
//	AZURE_OPENAI_API_KEY        key for azure
//	AZURE_OPENAI_ENDPOINT       endpoint for azure
func EmbeddingSettingsFromEnv() *domain.EmbeddingSettings {
	provider := domain.AIProvider(os.Getenv("PRISM_EMBEDDING_PROVIDER"))
	if provider == "" {
		provider = domain.AIProviderOpenAI
	}

	settings := &domain.EmbeddingSettings{
		Provider: provider,
		Model:    os.Getenv("PRISM_EMBEDDING_MODEL"),
		BaseURL:  os.Getenv("PRISM_EMBEDDING_BASE_URL"),
	}

	if raw := os.Getenv("PRISM_EMBEDDING_DIMENSIONS"); raw != "" {
		if dims, err := strconv.Atoi(raw); err == nil {
			settings.Dimensions = dims
		}
	}

	switch provider {
	case domain.AIProviderOpenAI:
		settings.APIKey = os.Getenv("OPENAI_API_KEY")
	case domain.AIProviderAzure:
		settings.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		if settings.BaseURL == "" {
			settings.BaseURL = os.Getenv("AZURE_OPENAI_ENDPOINT")
		}
	}

	return settings
}

// SearchSettingsFromEnv builds search service settings from
// AZURE_SEARCH_ENDPOINT and AZURE_SEARCH_API_KEY.
func SearchSettingsFromEnv() *domain.SearchSettings {
	return &domain.SearchSettings{
		Endpoint: os.Getenv("AZURE_SEARCH_ENDPOINT"),
		APIKey:   os.Getenv("AZURE_SEARCH_API_KEY"),
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI or Azure OpenAI embedding
// service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings, azure bool) (driven.EmbeddingService, error) {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:       settings.APIKey,
		BaseURL:      settings.BaseURL,
		Model:        settings.Model,
		Dimensions:   dimensions,
		UseAzureAuth: azure,
	})
}
