package pages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
)

// formFeed separates pages in plain text exports, as pdftotext writes them.
const formFeed = "\f"

// Ensure TextSource implements the interface.
var _ driven.PageSource = (*TextSource)(nil)

// TextSource reads plain text and markdown files. Form feeds split pages;
// a file without one is a single page.
type TextSource struct{}

// NewTextSource creates a text page source.
func NewTextSource() *TextSource {
	return &TextSource{}
}

// Supports reports whether path is a .txt or .md file.
func (s *TextSource) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	default:
		return false
	}
}

// Pages returns the file split on form feeds.
func (s *TextSource) Pages(_ context.Context, path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrInvalidInput, path)
	}

	parts := strings.Split(string(data), formFeed)
	result := make([]domain.Page, len(parts))
	for i, part := range parts {
		result[i] = domain.Page{Number: i + 1, Text: part}
	}
	return result, nil
}

// Ensure Sources implements the interface.
var _ driven.PageSource = (Sources)(nil)

// Sources dispatches to the first source that supports a path.
type Sources []driven.PageSource

// Default returns every built-in source.
func Default() Sources {
	return Sources{NewPDFSource(), NewDOCXSource(), NewHTMLSource(), NewTextSource()}
}

// Supports reports whether any source can read path.
func (s Sources) Supports(path string) bool {
	return s.find(path) != nil
}

// Pages reads path with the first supporting source.
func (s Sources) Pages(ctx context.Context, path string) ([]domain.Page, error) {
	src := s.find(path)
	if src == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(path))
	}
	return src.Pages(ctx, path)
}

func (s Sources) find(path string) driven.PageSource {
	for _, src := range s {
		if src.Supports(path) {
			return src
		}
	}
	return nil
}
