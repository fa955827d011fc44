package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

// createTestItem stores an item and returns its ID.
func createTestItem(t *testing.T, store *Store, title string) int64 {
	t.Helper()
	id, err := store.ItemStore().SaveItem(context.Background(), &domain.Item{
		Title:         title,
		Author:        "Hale",
		Year:          1988,
		DisplayOffset: -4,
	})
	require.NoError(t, err)
	return id
}

func section(s string) *string { return &s }

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path/library.db")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "path", "library.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	assert.FileExists(t, path)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"items", "chunks"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	first, err := NewStore(path)
	require.NoError(t, err)
	createTestItem(t, first, "Treaties")
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()

	items, err := second.ItemStore().ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store := setupTestStore(t)

	var fkEnabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled, "foreign keys should be enabled")
}

// ==================== ItemStore Tests ====================

func TestItemStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	item := &domain.Item{Title: "Treaties", Author: "Hale", Year: 1988, DisplayOffset: -4}
	id, err := store.ItemStore().SaveItem(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, id, item.ID)
	assert.False(t, item.CreatedAt.IsZero())

	got, err := store.ItemStore().GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Treaties", got.Title)
	assert.Equal(t, "Hale", got.Author)
	assert.Equal(t, 1988, got.Year)
	assert.Equal(t, -4, got.DisplayOffset)
}

func TestItemStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.ItemStore().GetItem(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemStore_ListOrdered(t *testing.T) {
	store := setupTestStore(t)
	a := createTestItem(t, store, "A")
	b := createTestItem(t, store, "B")

	items, err := store.ItemStore().ListItems(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a, items[0].ID)
	assert.Equal(t, b, items[1].ID)
	assert.Less(t, a, b)
}

// ==================== ChunkStore Tests ====================

func TestChunkStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, store, "Treaties")

	chunks := []domain.Chunk{
		{
			ID: "c1", ItemID: id, Section: section("Chapter 1"), PageStart: 1, PageEnd: 2,
			Text: "alpha", Embedding: []float32{0.5, -1.25, 3}, EmbeddingModel: "m", TokenCount: 2,
		},
		{ID: "c2", ItemID: id, PageStart: 3, PageEnd: 3, Text: "beta"},
	}
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, chunks))

	got, err := store.ChunkStore().ListChunks(ctx, nil)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[0], got[0])
	assert.Nil(t, got[1].Section)
	assert.Nil(t, got[1].Embedding)
	assert.Equal(t, "beta", got[1].Text)
}

func TestChunkStore_SaveChunks_UnknownItem(t *testing.T) {
	store := setupTestStore(t)

	err := store.ChunkStore().SaveChunks(context.Background(), []domain.Chunk{
		{ID: "x", ItemID: 42, PageStart: 1, PageEnd: 1, Text: "orphan"},
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_SaveChunks_Atomic(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, store, "Treaties")

	err := store.ChunkStore().SaveChunks(ctx, []domain.Chunk{
		{ID: "dup", ItemID: id, PageStart: 1, PageEnd: 1, Text: "one"},
		{ID: "dup", ItemID: id, PageStart: 2, PageEnd: 2, Text: "two"},
	})
	require.Error(t, err)

	got, err := store.ChunkStore().ListChunks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChunkStore_ListChunks_Filter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a := createTestItem(t, store, "A")
	b := createTestItem(t, store, "B")
	c := createTestItem(t, store, "C")
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, []domain.Chunk{
		{ID: "a2", ItemID: a, PageStart: 2, PageEnd: 2, Text: "a2"},
		{ID: "a1", ItemID: a, PageStart: 1, PageEnd: 1, Text: "a1"},
		{ID: "b1", ItemID: b, PageStart: 1, PageEnd: 1, Text: "b1"},
		{ID: "c1", ItemID: c, PageStart: 1, PageEnd: 1, Text: "c1"},
	}))

	got, err := store.ChunkStore().ListChunks(ctx, []int64{c, a})

	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, ch := range got {
		ids[i] = ch.ID
	}
	assert.Equal(t, []string{"a1", "a2", "c1"}, ids)
}

func TestChunkStore_CorruptEmbedding(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, store, "A")
	_, err := store.db.Exec(`INSERT INTO chunks (id, item_id, page_start, page_end, text, embedding)
		VALUES ('bad', ?, 1, 1, 'x', ?)`, id, []byte{1, 2, 3})
	require.NoError(t, err)

	_, err = store.ChunkStore().ListChunks(ctx, nil)

	assert.ErrorIs(t, err, domain.ErrCorruptEmbedding)
}

func TestChunkStore_SampleAndStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	id := createTestItem(t, store, "Treaties")
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, []domain.Chunk{
		{ID: "1", ItemID: id, PageStart: 1, PageEnd: 2, Text: "x"},
		{ID: "2", ItemID: id, PageStart: 3, PageEnd: 7, Text: "y", Embedding: []float32{1}, EmbeddingModel: "m"},
		{ID: "3", ItemID: id, PageStart: 8, PageEnd: 9, Text: "z", Embedding: []float32{1}, EmbeddingModel: "m"},
	}))

	sample, err := store.ChunkStore().SampleChunks(ctx, id, 2)
	require.NoError(t, err)
	assert.Len(t, sample, 2)

	all, err := store.ChunkStore().SampleChunks(ctx, id, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stats, err := store.ChunkStore().Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Chunks)
	assert.Equal(t, 9, stats.Pages)
	assert.Equal(t, "m", stats.EmbeddingModel)
	assert.Equal(t, "Treaties", stats.Item.Title)
}

func TestChunkStore_StatsEmptyItem(t *testing.T) {
	store := setupTestStore(t)
	id := createTestItem(t, store, "Empty")

	stats, err := store.ChunkStore().Stats(context.Background(), id)

	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
	assert.Zero(t, stats.Pages)
	assert.Empty(t, stats.EmbeddingModel)
}

func TestChunkStore_UnknownItem(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.ChunkStore().SampleChunks(ctx, 7, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.ChunkStore().Stats(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
