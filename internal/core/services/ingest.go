package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/groundwork/internal/chunker"
	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Embedding batch defaults.
const (
	DefaultBatchSize     = 64
	DefaultBatchInterval = 200 * time.Millisecond
)

// IngestService extracts, chunks, embeds and stores source files.
type IngestService struct {
	items    driven.ItemStore
	chunks   driven.ChunkStore
	pages    driven.PageSource
	embedder driven.EmbeddingService
	chunker  *chunker.Processor

	batchSize int
	limiter   *rate.Limiter
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchInterval sets the minimum pause between embedding requests.
// Zero disables pacing.
func WithBatchInterval(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithChunker replaces the default chunker.
func WithChunker(p *chunker.Processor) IngestOption {
	return func(s *IngestService) {
		if p != nil {
			s.chunker = p
		}
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	items driven.ItemStore,
	chunks driven.ChunkStore,
	pages driven.PageSource,
	embedder driven.EmbeddingService,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		items:     items,
		chunks:    chunks,
		pages:     pages,
		embedder:  embedder,
		chunker:   chunker.New(),
		batchSize: DefaultBatchSize,
		limiter:   rate.NewLimiter(rate.Every(DefaultBatchInterval), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest loads one file. The item row is written before embedding starts
// and chunks are saved batch by batch, so a failed run leaves the
// batches that completed.
func (s *IngestService) Ingest(
	ctx context.Context, req driving.IngestRequest, progress func(driving.IngestProgress),
) (*driving.IngestResult, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, fmt.Errorf("%w: source file is required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if !s.pages.Supports(req.Path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(req.Path))
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		base := filepath.Base(req.Path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	logger.Section("Extract")
	pages, err := s.pages.Pages(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	for i := range pages {
		pages[i].Text = chunker.NormalizeWhitespace(pages[i].Text)
	}

	chunks := s.chunker.Chunk(0, pages)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no extractable text in %s", domain.ErrEmptyInput, req.Path)
	}
	logger.Info("Pages: %d, chunks built: %d", len(pages), len(chunks))

	item := &domain.Item{
		Title:         title,
		Author:        strings.TrimSpace(req.Author),
		Year:          req.Year,
		DisplayOffset: req.DisplayOffset,
		CreatedAt:     time.Now(),
	}
	id, err := s.items.SaveItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}
	item.ID = id
	for i := range chunks {
		chunks[i].ItemID = id
	}

	logger.Section("Embed")
	model := s.embedder.ModelName()
	for start := 0; start < len(chunks); start += s.batchSize {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		end := min(start+s.batchSize, len(chunks))
		if err := s.embedBatch(ctx, chunks[start:end], model); err != nil {
			return nil, fmt.Errorf("item %d, chunks %d-%d: %w", id, start, end-1, err)
		}
		batch := start/s.batchSize + 1
		logger.Debug("Embedded batch %d (%d chunks)", batch, end-start)
		if progress != nil {
			progress(driving.IngestProgress{Batch: batch, Done: end, Total: len(chunks)})
		}
	}

	return &driving.IngestResult{Item: *item, Pages: len(pages), Chunks: len(chunks)}, nil
}

func (s *IngestService) embedBatch(ctx context.Context, batch []domain.Chunk, model string) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(batch) {
		return fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingMismatch, len(vecs), len(batch))
	}
	for i := range batch {
		batch[i].Embedding = vecs[i]
		batch[i].EmbeddingModel = model
	}
	if err := s.chunks.SaveChunks(ctx, batch); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	return nil
}
