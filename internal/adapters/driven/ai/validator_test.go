package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

func pingServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	v := NewConfigValidator()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		err := v.ValidateEmbedding(ctx, domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("reachable", func(t *testing.T) {
		server := pingServer(t, http.StatusOK)
		err := v.ValidateEmbedding(ctx, domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			APIKey:   "sk",
			BaseURL:  server.URL,
		})
		assert.NoError(t, err)
	})

	t.Run("rejected key", func(t *testing.T) {
		server := pingServer(t, http.StatusUnauthorized)
		err := v.ValidateEmbedding(ctx, domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			APIKey:   "bad",
			BaseURL:  server.URL,
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		err := v.ValidateEmbedding(ctx, domain.EmbeddingSettings{Provider: domain.AIProviderOpenRouter, APIKey: "k"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	v := NewConfigValidator()
	ctx := context.Background()

	for _, provider := range domain.AllLLMProviders() {
		t.Run(provider.String(), func(t *testing.T) {
			ok := pingServer(t, http.StatusOK)
			require.NoError(t, v.ValidateLLM(ctx, domain.LLMSettings{
				Provider: provider,
				APIKey:   "k",
				BaseURL:  ok.URL,
			}))

			down := pingServer(t, http.StatusServiceUnavailable)
			err := v.ValidateLLM(ctx, domain.LLMSettings{
				Provider: provider,
				APIKey:   "k",
				BaseURL:  down.URL,
			})
			assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
			assert.True(t, domain.IsTransient(err))
		})
	}

	t.Run("missing key", func(t *testing.T) {
		err := v.ValidateLLM(ctx, domain.LLMSettings{Provider: domain.AIProviderAnthropic})
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})
}
