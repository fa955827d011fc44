package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOpenRouter is the OpenAI-compatible OpenRouter gateway.
	AIProviderOpenRouter AIProvider = "openrouter"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOpenRouter, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// SupportsEmbeddings returns true if the provider can produce embeddings.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI"
	case AIProviderOpenRouter:
		return "OpenRouter (OpenAI-compatible gateway)"
	case AIProviderAnthropic:
		return "Anthropic"
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

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the provider API key.
	APIKey string

	// BatchSize is the number of texts embedded per request.
	BatchSize int

	// BatchInterval is the minimum pause between batches.
	BatchInterval time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbeddings() && e.APIKey != ""
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generation model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the provider API key.
	APIKey string
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && l.APIKey != ""
}

// RetrievalSettings holds guardrail thresholds and selection defaults.
type RetrievalSettings struct {
	AskThreshold   float64
	DraftThreshold float64
	CiteThreshold  float64

	// AskTopK is the default number of chunks used to answer a question.
	AskTopK int
}

// RetrySettings controls retry and circuit breaking around provider calls.
type RetrySettings struct {
	// MaxAttempts bounds attempts per call, including the first. 1 disables retries.
	MaxAttempts int

	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay.
	MaxInterval time.Duration

	// BreakerFailures is the consecutive failure count that opens the breaker.
	BreakerFailures int

	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Retry     RetrySettings

	// DatabasePath is the sqlite database file. Empty selects the default location.
	DatabasePath string
}

// DefaultAppSettings returns settings with sensible defaults.
// API keys are never defaulted.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:      AIProviderOpenAI,
			Model:         DefaultEmbeddingModels()[AIProviderOpenAI],
			BatchSize:     64,
			BatchInterval: 200 * time.Millisecond,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenRouter,
			Model:    DefaultLLMModels()[AIProviderOpenRouter],
		},
		Retrieval: RetrievalSettings{
			AskThreshold:   DefaultAskThreshold,
			DraftThreshold: DefaultDraftThreshold,
			CiteThreshold:  DefaultCiteThreshold,
			AskTopK:        8,
		},
		Retry: RetrySettings{
			MaxAttempts:     3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     8 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOpenRouter,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:     "gpt-4o-mini",
		AIProviderOpenRouter: "anthropic/claude-sonnet-4",
		AIProviderAnthropic:  "claude-sonnet-4-20250514",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
