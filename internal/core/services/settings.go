package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedBatchSize     = "embedding.batch_size"
	keyEmbedBatchInterval = "embedding.batch_interval"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyAskThreshold       = "retrieval.ask_threshold"
	keyDraftThreshold     = "retrieval.draft_threshold"
	keyCiteThreshold      = "retrieval.cite_threshold"
	keyAskTopK            = "retrieval.ask_top_k"
	keyRetryAttempts      = "retry.max_attempts"
	keyRetryInitial       = "retry.initial_interval"
	keyRetryMax           = "retry.max_interval"
	keyBreakerFailures    = "retry.breaker_failures"
	keyBreakerCooldown    = "retry.breaker_cooldown"
	keyDatabasePath       = "storage.path"
)

// Environment variables holding credentials and model overrides.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvEmbedModel    = "OPENAI_EMBED_MODEL"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindDuration
	kindProvider
)

var settableKeys = map[string]keyKind{
	keyEmbedProvider:      kindProvider,
	keyEmbedModel:         kindString,
	keyEmbedBaseURL:       kindString,
	keyEmbedBatchSize:     kindInt,
	keyEmbedBatchInterval: kindDuration,
	keyLLMProvider:        kindProvider,
	keyLLMModel:           kindString,
	keyLLMBaseURL:         kindString,
	keyAskThreshold:       kindFloat,
	keyDraftThreshold:     kindFloat,
	keyCiteThreshold:      kindFloat,
	keyAskTopK:            kindInt,
	keyRetryAttempts:      kindInt,
	keyRetryInitial:       kindDuration,
	keyRetryMax:           kindDuration,
	keyBreakerFailures:    kindInt,
	keyBreakerCooldown:    kindDuration,
	keyDatabasePath:       kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// aiValidator is optional.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnvLookup replaces the environment lookup used for credentials.
func (s *SettingsService) SetEnvLookup(fn func(string) string) {
	if fn != nil {
		s.getenv = fn
	}
}

// Get retrieves current application settings.
// Credentials come from the environment first, then the config file.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:      s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:         s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:       s.configStore.GetString(keyEmbedBaseURL),
			BatchSize:     s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			BatchInterval: s.getDuration(keyEmbedBatchInterval, defaults.Embedding.BatchInterval),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
		},
		Retrieval: domain.RetrievalSettings{
			AskThreshold:   s.getFloat(keyAskThreshold, defaults.Retrieval.AskThreshold),
			DraftThreshold: s.getFloat(keyDraftThreshold, defaults.Retrieval.DraftThreshold),
			CiteThreshold:  s.getFloat(keyCiteThreshold, defaults.Retrieval.CiteThreshold),
			AskTopK:        s.getInt(keyAskTopK, defaults.Retrieval.AskTopK),
		},
		Retry: domain.RetrySettings{
			MaxAttempts:     s.getInt(keyRetryAttempts, defaults.Retry.MaxAttempts),
			InitialInterval: s.getDuration(keyRetryInitial, defaults.Retry.InitialInterval),
			MaxInterval:     s.getDuration(keyRetryMax, defaults.Retry.MaxInterval),
			BreakerFailures: s.getInt(keyBreakerFailures, defaults.Retry.BreakerFailures),
			BreakerCooldown: s.getDuration(keyBreakerCooldown, defaults.Retry.BreakerCooldown),
		},
		DatabasePath: s.configStore.GetString(keyDatabasePath),
	}

	if model := s.getenv(EnvEmbedModel); model != "" {
		settings.Embedding.Model = model
	}
	settings.Embedding.APIKey = s.credential(EnvOpenAIKey, keyEmbedAPIKey)

	// The generation model default follows the provider.
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])
	settings.LLM.APIKey = s.credential(llmKeyEnv(settings.LLM.Provider), keyLLMAPIKey)

	return settings, nil
}

// Save persists application settings. API keys are never written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedBatchInterval, settings.Embedding.BatchInterval.String()},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyAskThreshold, settings.Retrieval.AskThreshold},
		{keyDraftThreshold, settings.Retrieval.DraftThreshold},
		{keyCiteThreshold, settings.Retrieval.CiteThreshold},
		{keyAskTopK, settings.Retrieval.AskTopK},
		{keyRetryAttempts, settings.Retry.MaxAttempts},
		{keyRetryInitial, settings.Retry.InitialInterval.String()},
		{keyRetryMax, settings.Retry.MaxInterval.String()},
		{keyBreakerFailures, settings.Retry.BreakerFailures},
		{keyBreakerCooldown, settings.Retry.BreakerCooldown.String()},
		{keyDatabasePath, settings.DatabasePath},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates a single configuration key after checking its type.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		typed = f
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%w: %s must be a duration like 500ms", domain.ErrInvalidInput, key)
		}
		typed = value
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		typed = value
	default:
		typed = value
	}

	return s.configStore.Set(key, typed)
}

// SetLLMProvider configures the generation provider.
// An empty model selects the provider default.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	// Provider endpoints differ, a custom base URL does not carry over.
	settings.LLM.BaseURL = ""

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Validate checks that both providers are usable and values are in range.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := RequireEmbedding(settings); err != nil {
		return err
	}
	if err := RequireLLM(settings); err != nil {
		return err
	}

	r := settings.Retrieval
	for name, v := range map[string]float64{
		keyAskThreshold:   r.AskThreshold,
		keyDraftThreshold: r.DraftThreshold,
		keyCiteThreshold:  r.CiteThreshold,
	} {
		if v < -1 || v > 1 {
			return fmt.Errorf("%w: %s must be within [-1, 1], got %v", domain.ErrInvalidInput, name, v)
		}
	}
	if settings.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: %s must be at least 1", domain.ErrInvalidInput, keyRetryAttempts)
	}
	if settings.Embedding.BatchSize < 1 {
		return fmt.Errorf("%w: %s must be at least 1", domain.ErrInvalidInput, keyEmbedBatchSize)
	}
	return nil
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, settings.Embedding)
}

// ValidateLLMConfig pings the configured generation provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, settings.LLM)
}

// RequireEmbedding reports a configuration error when embeddings cannot be produced.
func RequireEmbedding(settings *domain.AppSettings) error {
	e := settings.Embedding
	if !e.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s cannot produce embeddings", domain.ErrUnsupportedType, e.Provider)
	}
	if e.APIKey == "" {
		return fmt.Errorf("%w: set %s for embeddings", domain.ErrMissingCredential, EnvOpenAIKey)
	}
	return nil
}

// RequireLLM reports a configuration error when generation is unavailable.
func RequireLLM(settings *domain.AppSettings) error {
	l := settings.LLM
	if !l.Provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrUnsupportedType, l.Provider)
	}
	if l.APIKey == "" {
		return fmt.Errorf("%w: set %s when using %s", domain.ErrMissingCredential, llmKeyEnv(l.Provider), l.Provider)
	}
	return nil
}

func llmKeyEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenRouter:
		return EnvOpenRouterKey
	case domain.AIProviderAnthropic:
		return EnvAnthropicKey
	default:
		return EnvOpenAIKey
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) credential(env, key string) string {
	if v := s.getenv(env); v != "" {
		return v
	}
	return s.configStore.GetString(key)
}

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

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
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
