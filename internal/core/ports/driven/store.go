package driven

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// ItemStore persists ingested items.
// Items are append-only.
type ItemStore interface {
	// SaveItem inserts an item and returns its assigned ID.
	SaveItem(ctx context.Context, item *domain.Item) (int64, error)

	// GetItem retrieves an item by ID.
	// Returns domain.ErrNotFound if the item does not exist.
	GetItem(ctx context.Context, id int64) (*domain.Item, error)

	// ListItems returns all items ordered by ID.
	ListItems(ctx context.Context) ([]domain.Item, error)
}

// ChunkStore persists chunks and their embeddings.
type ChunkStore interface {
	// SaveChunks inserts a batch of chunks atomically.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// ListChunks returns chunks for the given items, or every chunk when
	// itemIDs is empty. Chunks are ordered by item then page.
	ListChunks(ctx context.Context, itemIDs []int64) ([]domain.Chunk, error)

	// SampleChunks returns up to n random chunks of one item.
	SampleChunks(ctx context.Context, itemID int64, n int) ([]domain.Chunk, error)

	// Stats summarises the stored chunks of one item.
	Stats(ctx context.Context, itemID int64) (*domain.ItemStats, error)
}
