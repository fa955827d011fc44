package pages

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
)

const docxBody = "word/document.xml"

// ErrUnreadableDOCX is returned when a file is not a valid DOCX archive.
var ErrUnreadableDOCX = errors.New("unreadable DOCX")

// Ensure DOCXSource implements the interface.
var _ driven.PageSource = (*DOCXSource)(nil)

// DOCXSource reads Word documents. Pages split where Word last rendered a
// page break, or at explicit page breaks; a document never opened in Word
// may therefore be a single page.
type DOCXSource struct{}

// NewDOCXSource creates a DOCX page source.
func NewDOCXSource() *DOCXSource {
	return &DOCXSource{}
}

// Supports reports whether path has a .docx extension.
func (s *DOCXSource) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".docx")
}

// Pages extracts paragraph text page by page.
func (s *DOCXSource) Pages(ctx context.Context, path string) ([]domain.Page, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDOCX, path, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != docxBody {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableDOCX, path, err)
		}
		defer rc.Close()
		return parseDocumentPages(ctx, rc)
	}
	return nil, fmt.Errorf("%w: %s has no %s", ErrUnreadableDOCX, path, docxBody)
}

// parseDocumentPages walks WordprocessingML tokens: w:t carries text,
// w:p ends a line, w:tab is a tab, and w:br type="page" or
// w:lastRenderedPageBreak starts a new page.
func parseDocumentPages(ctx context.Context, r io.Reader) ([]domain.Page, error) {
	dec := xml.NewDecoder(r)
	var (
		pages  []domain.Page
		cur    strings.Builder
		inText bool
	)
	flush := func() {
		pages = append(pages, domain.Page{Number: len(pages) + 1, Text: strings.TrimSpace(cur.String())})
		cur.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableDOCX, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br":
				if attr(t, "type") == "page" {
					flush()
				} else {
					cur.WriteByte('\n')
				}
			case "lastRenderedPageBreak":
				// Word records one at the top of the first paragraph too.
				if strings.TrimSpace(cur.String()) != "" {
					flush()
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				cur.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	flush()
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
