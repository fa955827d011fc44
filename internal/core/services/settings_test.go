package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/groundwork/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/groundwork/internal/core/domain"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newTestSettings(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)
	svc.SetEnvLookup(envMap(env))
	return svc, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	svc, _ := newTestSettings(nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.InDelta(t, 0.25, settings.Retrieval.AskThreshold, 1e-9)
	assert.InDelta(t, 0.15, settings.Retrieval.DraftThreshold, 1e-9)
	assert.InDelta(t, 0.20, settings.Retrieval.CiteThreshold, 1e-9)
	assert.Equal(t, 3, settings.Retry.MaxAttempts)
	assert.Empty(t, settings.Embedding.APIKey)
}

func TestSettingsService_Get_EnvironmentCredentials(t *testing.T) {
	svc, store := newTestSettings(map[string]string{
		EnvOpenAIKey:     "sk-env",
		EnvOpenRouterKey: "or-env",
		EnvEmbedModel:    "text-embedding-3-large",
	})
	_ = store.Set(keyEmbedAPIKey, "sk-file")

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "or-env", settings.LLM.APIKey)
}

func TestSettingsService_Get_LLMModelFollowsProvider(t *testing.T) {
	svc, store := newTestSettings(map[string]string{EnvAnthropicKey: "ant"})
	_ = store.Set(keyLLMProvider, "anthropic")

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], settings.LLM.Model)
	assert.Equal(t, "ant", settings.LLM.APIKey)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	svc, store := newTestSettings(nil)
	_ = store.Set(keyEmbedProvider, "invalid_provider")
	_ = store.Set(keyRetryInitial, "soon")

	settings, err := svc.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Retry.InitialInterval, settings.Retry.InitialInterval)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	svc, store := newTestSettings(nil)

	settings := domain.DefaultAppSettings()
	settings.LLM.Provider = domain.AIProviderOpenAI
	settings.LLM.Model = "gpt-4o"
	settings.LLM.APIKey = "sk-secret"
	settings.Retrieval.DraftThreshold = 0.3
	settings.Retry.BreakerCooldown = time.Minute
	settings.DatabasePath = "/tmp/library.db"

	require.NoError(t, svc.Save(&settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, got.LLM.Provider)
	assert.Equal(t, "gpt-4o", got.LLM.Model)
	assert.InDelta(t, 0.3, got.Retrieval.DraftThreshold, 1e-9)
	assert.Equal(t, time.Minute, got.Retry.BreakerCooldown)
	assert.Equal(t, "/tmp/library.db", got.DatabasePath)

	// Keys are never written to the config file.
	_, exists := store.Get(keyLLMAPIKey)
	assert.False(t, exists)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"float", keyAskThreshold, "0.3", false},
		{"float rejects text", keyAskThreshold, "high", true},
		{"int", keyAskTopK, "12", false},
		{"int rejects float", keyAskTopK, "1.5", true},
		{"duration", keyRetryMax, "10s", false},
		{"duration rejects int", keyRetryMax, "10", true},
		{"provider", keyLLMProvider, "anthropic", false},
		{"provider rejects unknown", keyLLMProvider, "ollama", true},
		{"string", keyDatabasePath, "/data/lib.db", false},
		{"unknown key", "search.mode", "hybrid", true},
		{"api keys are not settable", keyLLMAPIKey, "sk", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestSettings(nil)
			err := svc.Set(tt.key, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}

	svc, _ := newTestSettings(nil)
	require.NoError(t, svc.Set(keyAskThreshold, "0.4"))
	got, err := svc.Get()
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got.Retrieval.AskThreshold, 1e-9)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	svc, store := newTestSettings(nil)
	_ = store.Set(keyLLMBaseURL, "http://proxy.local/v1")

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, ""))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, got.LLM.Provider)
	assert.Equal(t, domain.DefaultLLMModels()[domain.AIProviderAnthropic], got.LLM.Model)
	assert.Empty(t, got.LLM.BaseURL)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderOpenRouter, "openai/gpt-4o"))
	got, _ = svc.Get()
	assert.Equal(t, "openai/gpt-4o", got.LLM.Model)

	assert.Error(t, svc.SetLLMProvider(domain.AIProvider("bedrock"), ""))
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("missing embedding key", func(t *testing.T) {
		svc, _ := newTestSettings(map[string]string{EnvOpenRouterKey: "or"})
		assert.ErrorIs(t, svc.Validate(), domain.ErrMissingCredential)
	})

	t.Run("missing llm key", func(t *testing.T) {
		svc, _ := newTestSettings(map[string]string{EnvOpenAIKey: "sk"})
		err := svc.Validate()
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
		assert.Contains(t, err.Error(), EnvOpenRouterKey)
	})

	t.Run("embedding provider without embeddings", func(t *testing.T) {
		svc, store := newTestSettings(map[string]string{EnvOpenAIKey: "sk", EnvOpenRouterKey: "or"})
		_ = store.Set(keyEmbedProvider, "anthropic")
		assert.ErrorIs(t, svc.Validate(), domain.ErrUnsupportedType)
	})

	t.Run("threshold out of range", func(t *testing.T) {
		svc, store := newTestSettings(map[string]string{EnvOpenAIKey: "sk", EnvOpenRouterKey: "or"})
		_ = store.Set(keyCiteThreshold, 1.5)
		assert.ErrorIs(t, svc.Validate(), domain.ErrInvalidInput)
	})

	t.Run("configured", func(t *testing.T) {
		svc, _ := newTestSettings(map[string]string{EnvOpenAIKey: "sk", EnvOpenRouterKey: "or"})
		assert.NoError(t, svc.Validate())
	})
}

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embedErr error
	llmErr   error
	gotLLM   domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(_ context.Context, _ domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockAIValidator) ValidateLLM(_ context.Context, s domain.LLMSettings) error {
	m.gotLLM = s
	return m.llmErr
}

func TestSettingsService_ValidateRemote(t *testing.T) {
	svc, _ := newTestSettings(nil)
	assert.NoError(t, svc.ValidateEmbeddingConfig(context.Background()))
	assert.NoError(t, svc.ValidateLLMConfig(context.Background()))

	validator := &mockAIValidator{embedErr: errors.New("401"), llmErr: errors.New("404")}
	svc = NewSettingsService(memory.NewConfigStore(), validator)
	svc.SetEnvLookup(envMap(map[string]string{EnvOpenRouterKey: "or"}))

	assert.EqualError(t, svc.ValidateEmbeddingConfig(context.Background()), "401")
	assert.EqualError(t, svc.ValidateLLMConfig(context.Background()), "404")
	assert.Equal(t, "or", validator.gotLLM.APIKey)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc, _ := newTestSettings(nil)
	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}
