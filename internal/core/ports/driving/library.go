package driving

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// PageSample is one chunk shown for page-attribution checks.
type PageSample struct {
	Chunk domain.Chunk

	// PrintedStart and PrintedEnd apply the item's display offset.
	PrintedStart int
	PrintedEnd   int
}

// LibraryService exposes what has been ingested.
type LibraryService interface {
	// List returns every item with its stored chunk statistics.
	List(ctx context.Context) ([]domain.ItemStats, error)

	// Get returns one item with its statistics.
	Get(ctx context.Context, id int64) (*domain.ItemStats, error)

	// Verify returns n random chunks of an item with physical and printed pages.
	Verify(ctx context.Context, id int64, n int) ([]PageSample, error)
}
