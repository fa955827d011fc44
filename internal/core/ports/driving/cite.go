package driving

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// CiteRequest asks for footnotes on every paragraph of a text.
type CiteRequest struct {
	Text    string
	ItemIDs []int64

	// Selection controls per-paragraph retrieval.
	Selection domain.SelectionOptions
}

// CitedParagraph is one input paragraph with its footnotes.
type CitedParagraph struct {
	Text      string
	Footnotes []domain.Footnote
	Grounded  bool
}

// CiteResult is the annotated text.
type CiteResult struct {
	// Document is the markdown with footnote markers, definitions and bibliography.
	Document string

	Paragraphs   []CitedParagraph
	Bibliography []string
}

// CiteService attaches footnotes to existing prose.
type CiteService interface {
	Cite(ctx context.Context, req CiteRequest) (*CiteResult, error)
}
