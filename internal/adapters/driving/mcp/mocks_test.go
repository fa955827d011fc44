package mcp

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

type mockAskService struct {
	result *driving.AskResult
	err    error
	got    driving.AskRequest
}

func (m *mockAskService) Ask(_ context.Context, req driving.AskRequest) (*driving.AskResult, error) {
	m.got = req
	return m.result, m.err
}

type mockLibraryService struct {
	items []domain.ItemStats
	err   error
}

func (m *mockLibraryService) List(_ context.Context) ([]domain.ItemStats, error) {
	return m.items, m.err
}

func (m *mockLibraryService) Get(_ context.Context, id int64) (*domain.ItemStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if m.items[i].Item.ID == id {
			return &m.items[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibraryService) Verify(_ context.Context, _ int64, _ int) ([]driving.PageSample, error) {
	return nil, m.err
}

func sampleItems() []domain.ItemStats {
	return []domain.ItemStats{
		{
			Item:           domain.Item{ID: 1, Title: "Salt", Author: "Kurlansky", Year: 2002, DisplayOffset: -12},
			Chunks:         140,
			Pages:          484,
			EmbeddingModel: "text-embedding-3-small",
		},
		{
			Item:   domain.Item{ID: 2, Title: "Cod"},
			Chunks: 60,
			Pages:  294,
		},
	}
}
