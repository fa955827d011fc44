// Package pages extracts ordered per-page text from source files.
package pages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// maxPDFSize bounds files read into memory.
const maxPDFSize = 200 << 20

// ErrUnreadablePDF is returned when a file cannot be parsed as a PDF.
var ErrUnreadablePDF = errors.New("unreadable PDF")

// Ensure PDFSource implements the interface.
var _ driven.PageSource = (*PDFSource)(nil)

// PDFSource reads PDF files page by page.
type PDFSource struct{}

// NewPDFSource creates a PDF page source.
func NewPDFSource() *PDFSource {
	return &PDFSource{}
}

// Supports reports whether path has a .pdf extension.
func (s *PDFSource) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Pages returns one entry per physical page. Pages whose text cannot be
// decoded are kept blank so page numbers stay aligned with the file.
func (s *PDFSource) Pages(ctx context.Context, path string) (result []domain.Page, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	if info.Size() > maxPDFSize {
		return nil, fmt.Errorf("%w: %s is larger than %d MB", domain.ErrInvalidInput, path, maxPDFSize>>20)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: %s: %v", ErrUnreadablePDF, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadablePDF, path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	result = make([]domain.Page, 0, total)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := domain.Page{Number: i}
		p := reader.Page(i)
		if !p.V.IsNull() {
			text, err := p.GetPlainText(fonts)
			if err != nil {
				logger.Warn("pdf page %d of %s: %v", i, filepath.Base(path), err)
			} else {
				page.Text = text
			}
		}
		result = append(result, page)
	}

	logger.Debug("Extracted %d pages from %s", total, filepath.Base(path))
	return result, nil
}
