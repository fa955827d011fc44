package memory

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
)

// Ensure LibraryStore implements the interfaces.
var (
	_ driven.ItemStore  = (*LibraryStore)(nil)
	_ driven.ChunkStore = (*LibraryStore)(nil)
)

// LibraryStore is an in-memory implementation of driven.ItemStore and
// driven.ChunkStore.
type LibraryStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]domain.Item
	chunks map[int64][]domain.Chunk
}

// NewLibraryStore creates a new in-memory library store.
func NewLibraryStore() *LibraryStore {
	return &LibraryStore{
		nextID: 1,
		items:  make(map[int64]domain.Item),
		chunks: make(map[int64][]domain.Chunk),
	}
}

// SaveItem stores an item and assigns it the next ID.
func (s *LibraryStore) SaveItem(_ context.Context, item *domain.Item) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *item
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.items[stored.ID] = stored
	s.nextID++
	return stored.ID, nil
}

// GetItem retrieves an item by ID.
func (s *LibraryStore) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

// ListItems returns all items ordered by ID.
func (s *LibraryStore) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SaveChunks appends chunks. Every chunk must belong to a stored item.
func (s *LibraryStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if _, ok := s.items[c.ItemID]; !ok {
			return domain.ErrNotFound
		}
	}
	for _, c := range chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		s.chunks[c.ItemID] = append(s.chunks[c.ItemID], c)
	}
	return nil
}

// ListChunks returns chunks for the given items, or all chunks.
func (s *LibraryStore) ListChunks(_ context.Context, itemIDs []int64) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := itemIDs
	if len(ids) == 0 {
		for id := range s.chunks {
			ids = append(ids, id)
		}
	}
	ids = append([]int64(nil), ids...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []domain.Chunk
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, s.chunks[id]...)
	}
	return result, nil
}

// SampleChunks returns up to n random chunks of one item.
func (s *LibraryStore) SampleChunks(_ context.Context, itemID int64, n int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.items[itemID]; !ok {
		return nil, domain.ErrNotFound
	}
	pool := append([]domain.Chunk(nil), s.chunks[itemID]...)
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n < len(pool) {
		pool = pool[:n]
	}
	return pool, nil
}

// Stats summarises the stored chunks of one item.
func (s *LibraryStore) Stats(_ context.Context, itemID int64) (*domain.ItemStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	stats := &domain.ItemStats{Item: item}
	for _, c := range s.chunks[itemID] {
		stats.Chunks++
		if c.PageEnd > stats.Pages {
			stats.Pages = c.PageEnd
		}
		if stats.EmbeddingModel == "" {
			stats.EmbeddingModel = c.EmbeddingModel
		}
	}
	return stats, nil
}
