package pages

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
)

// Ensure HTMLSource implements the interface.
var _ driven.PageSource = (*HTMLSource)(nil)

// HTMLSource reads saved web pages and HTML exports. Elements styled with
// a page break (page-break-before or break-before: page) start a new page.
type HTMLSource struct{}

// NewHTMLSource creates an HTML page source.
func NewHTMLSource() *HTMLSource {
	return &HTMLSource{}
}

// Supports reports whether path is an .html or .htm file.
func (s *HTMLSource) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	default:
		return false
	}
}

// Pages returns the visible text of the document split on page breaks.
func (s *HTMLSource) Pages(_ context.Context, path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8", domain.ErrInvalidInput, path)
	}

	marked := pageBreakTag.ReplaceAllString(string(data), formFeed+"$0")
	parts := strings.Split(stripHTML(marked), formFeed)
	result := make([]domain.Page, len(parts))
	for i, part := range parts {
		result[i] = domain.Page{Number: i + 1, Text: part}
	}
	return result, nil
}

var (
	pageBreakTag   = regexp.MustCompile(`(?i)<[a-z][a-z0-9]*[^>]*style\s*=\s*["'][^"']*(?:page-break-before\s*:\s*always|break-before\s*:\s*page)[^>]*>`)
	invisibleBlock = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)[^>]*>.*?</(?:script|style|noscript|head|svg)>`)
	htmlComments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockBoundary  = regexp.MustCompile(`(?i)</?(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)(\s[^>]*)?/?>`)
	allTags        = regexp.MustCompile(`<[^>]+>`)
	inlineSpaces   = regexp.MustCompile(`[ \t]+`)
)

// stripHTML drops markup and keeps one line per block element.
func stripHTML(content string) string {
	content = invisibleBlock.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	content = blockBoundary.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = inlineSpaces.ReplaceAllString(content, " ")

	var kept []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, formFeed) {
			// Keep the page marker on a line of its own.
			kept = append(kept, formFeed)
			line = strings.ReplaceAll(line, formFeed, "")
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
