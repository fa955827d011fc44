package driven

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// AIConfigValidator checks provider configurations by contacting the provider.
type AIConfigValidator interface {
	// ValidateEmbedding builds the configured embedding client and pings it.
	// A missing API key is reported as domain.ErrMissingCredential.
	ValidateEmbedding(ctx context.Context, config domain.EmbeddingSettings) error

	// ValidateLLM builds the configured generation client and pings it.
	ValidateLLM(ctx context.Context, config domain.LLMSettings) error
}
