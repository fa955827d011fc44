package driving

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// IngestRequest describes one source file to ingest.
type IngestRequest struct {
	// Path is the source file.
	Path string

	Title         string
	Author        string
	Year          int
	DisplayOffset int
}

// IngestProgress reports embedding progress after each batch.
type IngestProgress struct {
	// Batch is the 1-based number of the batch just stored.
	Batch int
	Done  int
	Total int
}

// IngestResult summarises a finished ingest.
type IngestResult struct {
	Item   domain.Item
	Pages  int
	Chunks int
}

// IngestService loads a source file into the library.
type IngestService interface {
	// Ingest extracts pages, chunks, embeds and stores one file.
	// progress may be nil.
	Ingest(ctx context.Context, req IngestRequest, progress func(IngestProgress)) (*IngestResult, error)
}
