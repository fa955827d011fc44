// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"

	openaiembed "github.com/custodia-labs/groundwork/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/groundwork/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/custodia-labs/groundwork/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/groundwork/internal/adapters/driven/resilient"
	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
)

// OpenRouter attribution headers sent with every request.
const (
	openRouterReferer = "https://github.com/custodia-labs/groundwork"
	openRouterTitle   = "Groundwork"
)

// InitResult contains the AI services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService // Nil when not configured.
	LLMService       driven.LLMService       // Nil when not configured.
	Warnings         []string                // Non-fatal issues that left a service unset.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds both services from settings. Construction errors become
// warnings so commands that need only one service still run. With retry
// disabled each call is attempted once, but the breaker still applies.
func Init(settings *domain.AppSettings, retry bool) *InitResult {
	result := &InitResult{}
	if settings == nil {
		return result
	}

	retrySettings := settings.Retry
	if !retry {
		retrySettings.MaxAttempts = 1
	}

	embed, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("embeddings disabled: %v", err))
	}
	result.EmbeddingService = resilient.WrapEmbedding(embed,
		resilient.NewPolicy(settings.Embedding.Provider.String()+" embeddings", retrySettings))

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("generation disabled: %v", err))
	}
	result.LLMService = resilient.WrapLLM(llm,
		resilient.NewPolicy(settings.LLM.Provider.String(), retrySettings))

	return result
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.APIKey == "" {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderOpenRouter, domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: %s does not support embeddings, use openai",
			domain.ErrUnsupportedType, settings.Provider)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || settings.APIKey == "" {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderOpenRouter:
		return createOpenRouterLLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenRouterLLM reuses the OpenAI-compatible adapter against the
// OpenRouter gateway.
func createOpenRouterLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = openaillm.OpenRouterBaseURL
	}
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: baseURL,
		Model:   settings.Model,
		Service: domain.AIProviderOpenRouter.String(),
		Headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterTitle,
		},
	})
}

func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
