package resilient

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
)

// Ensure decorators implement the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.LLMService       = (*LLMService)(nil)
)

// EmbeddingService retries embedding calls under a Policy.
type EmbeddingService struct {
	next   driven.EmbeddingService
	policy *Policy
}

// WrapEmbedding decorates next. A nil next stays nil so callers keep
// seeing an unconfigured service.
func WrapEmbedding(next driven.EmbeddingService, policy *Policy) driven.EmbeddingService {
	if next == nil {
		return nil
	}
	return &EmbeddingService{next: next, policy: policy}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return do(ctx, s.policy, func(ctx context.Context) ([]float32, error) {
		return s.next.Embed(ctx, text)
	})
}

// EmbedBatch generates embeddings for multiple texts. A retried batch is
// resent whole.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return do(ctx, s.policy, func(ctx context.Context) ([][]float32, error) {
		return s.next.EmbedBatch(ctx, texts)
	})
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping is not retried so validation reports the first failure.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.next.Close() }

// LLMService retries chat calls under a Policy.
type LLMService struct {
	next   driven.LLMService
	policy *Policy
}

// WrapLLM decorates next. A nil next stays nil.
func WrapLLM(next driven.LLMService, policy *Policy) driven.LLMService {
	if next == nil {
		return nil
	}
	return &LLMService{next: next, policy: policy}
}

// Chat conducts a conversation and returns the reply text.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return do(ctx, s.policy, func(ctx context.Context) (string, error) {
		return s.next.Chat(ctx, messages, opts)
	})
}

// ModelName returns the wrapped service's model.
func (s *LLMService) ModelName() string { return s.next.ModelName() }

// Ping is not retried.
func (s *LLMService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the wrapped service.
func (s *LLMService) Close() error { return s.next.Close() }
