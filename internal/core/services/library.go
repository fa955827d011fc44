package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// DefaultVerifySamples is the number of chunks shown by Verify.
const DefaultVerifySamples = 5

// LibraryService reports on ingested items.
type LibraryService struct {
	items  driven.ItemStore
	chunks driven.ChunkStore
}

// NewLibraryService creates a new library service.
func NewLibraryService(items driven.ItemStore, chunks driven.ChunkStore) *LibraryService {
	return &LibraryService{items: items, chunks: chunks}
}

// List returns every item with its chunk statistics.
func (s *LibraryService) List(ctx context.Context) ([]domain.ItemStats, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	out := make([]domain.ItemStats, 0, len(items))
	for _, item := range items {
		stats, err := s.chunks.Stats(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("stats for item %d: %w", item.ID, err)
		}
		stats.Item = item
		out = append(out, *stats)
	}
	return out, nil
}

// Get returns one item with its statistics.
func (s *LibraryService) Get(ctx context.Context, id int64) (*domain.ItemStats, error) {
	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.chunks.Stats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("stats for item %d: %w", id, err)
	}
	stats.Item = *item
	return stats, nil
}

// Verify samples n chunks of an item so printed page numbers can be
// checked against the source.
func (s *LibraryService) Verify(ctx context.Context, id int64, n int) ([]driving.PageSample, error) {
	if n <= 0 {
		n = DefaultVerifySamples
	}
	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunks.SampleChunks(ctx, id, n)
	if err != nil {
		return nil, fmt.Errorf("sample chunks: %w", err)
	}

	out := make([]driving.PageSample, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, driving.PageSample{
			Chunk:        c,
			PrintedStart: item.PrintedPage(c.PageStart),
			PrintedEnd:   item.PrintedPage(c.PageEnd),
		})
	}
	return out, nil
}
