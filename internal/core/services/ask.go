package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskService answers questions from retrieved library evidence.
type AskService struct {
	retriever *Retriever
	embedder  driven.EmbeddingService
	synth     *Synthesizer
	settings  domain.RetrievalSettings
}

// NewAskService creates a new ask service.
func NewAskService(
	retriever *Retriever,
	embedder driven.EmbeddingService,
	synth *Synthesizer,
	settings domain.RetrievalSettings,
) *AskService {
	return &AskService{
		retriever: retriever,
		embedder:  embedder,
		synth:     synth,
		settings:  settings,
	}
}

// Ask embeds the question, retrieves evidence and answers from it.
// When the evidence is too weak the model is not called.
func (s *AskService) Ask(ctx context.Context, req driving.AskRequest) (*driving.AskResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Ask")
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	opts := req.Selection
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = s.settings.AskTopK
	}
	ev, err := s.retriever.Retrieve(ctx, domain.Query{
		Vector:  vec,
		Model:   s.embedder.ModelName(),
		ItemIDs: req.ItemIDs,
	}, opts, s.settings.AskThreshold)
	if err != nil {
		return nil, err
	}

	result := &driving.AskResult{Question: question, Evidence: ev}
	if ev.Insufficient {
		result.Answer = domain.AskInsufficientText
		return result, nil
	}

	result.Answer, result.Grounded, err = s.synth.Answer(ctx, question, ev)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RenderAnswer formats an ask result for display: the question, the
// answer and one "sources used" line per evidence chunk.
func RenderAnswer(res *driving.AskResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Q: %s\n\n%s\n", res.Question, res.Answer)
	if res.Evidence.Insufficient || len(res.Evidence.Candidates) == 0 {
		return b.String()
	}

	b.WriteString("\nSources used:\n")
	for _, c := range res.Evidence.Candidates {
		item := res.Evidence.Items[c.Chunk.ItemID]
		fmt.Fprintf(&b, "- %s %s [sim=%.3f]\n", item.Byline(), PageLabel(item, c.Chunk), c.Similarity)
	}
	return b.String()
}
