package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/groundwork/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/groundwork/internal/core/domain"
)

func TestLibraryService_List(t *testing.T) {
	store := memory.NewLibraryStore()
	a := seedItem(t, store, "A", chunkSpec{sim: 0.1, page: 3}, chunkSpec{sim: 0.2, page: 41})
	b := seedItem(t, store, "B")

	stats, err := NewLibraryService(store, store).List(context.Background())

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, a, stats[0].Item.ID)
	assert.Equal(t, 2, stats[0].Chunks)
	assert.Equal(t, 41, stats[0].Pages)
	assert.Equal(t, mockEmbedModel, stats[0].EmbeddingModel)
	assert.Equal(t, b, stats[1].Item.ID)
	assert.Zero(t, stats[1].Chunks)
}

func TestLibraryService_Get(t *testing.T) {
	store := memory.NewLibraryStore()
	id := seedItem(t, store, "A", chunkSpec{sim: 0.1})
	svc := NewLibraryService(store, store)

	stats, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "A", stats.Item.Title)

	_, err = svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLibraryService_Verify(t *testing.T) {
	store := memory.NewLibraryStore()
	id, err := store.SaveItem(context.Background(), &domain.Item{Title: "Offset", DisplayOffset: -10})
	require.NoError(t, err)
	require.NoError(t, store.SaveChunks(context.Background(), []domain.Chunk{
		{ID: "c1", ItemID: id, PageStart: 15, PageEnd: 16, Text: "one"},
		{ID: "c2", ItemID: id, PageStart: 5, PageEnd: 5, Text: "front matter"},
		{ID: "c3", ItemID: id, PageStart: 30, PageEnd: 31, Text: "three"},
	}))
	svc := NewLibraryService(store, store)

	samples, err := svc.Verify(context.Background(), id, 0)

	require.NoError(t, err)
	require.Len(t, samples, 3)
	for _, s := range samples {
		switch s.Chunk.ID {
		case "c1":
			assert.Equal(t, 5, s.PrintedStart)
			assert.Equal(t, 6, s.PrintedEnd)
		case "c2":
			// Offsets that would go below page one keep the physical page.
			assert.Equal(t, 5, s.PrintedStart)
		case "c3":
			assert.Equal(t, 20, s.PrintedStart)
		}
	}

	samples, err = svc.Verify(context.Background(), id, 1)
	require.NoError(t, err)
	assert.Len(t, samples, 1)

	_, err = svc.Verify(context.Background(), 404, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
