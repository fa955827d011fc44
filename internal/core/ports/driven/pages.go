package driven

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// PageSource yields ordered per-page plain text for a source file.
type PageSource interface {
	// Supports reports whether the source can read the file at path.
	Supports(path string) bool

	// Pages returns every page in order, including blank ones.
	Pages(ctx context.Context, path string) ([]domain.Page, error)
}
