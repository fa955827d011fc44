package driving

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// ExpandRequest is one long-form expansion run.
type ExpandRequest struct {
	// Draft is the user's draft text.
	Draft string

	// Mode selects guided or model-proposed outlining.
	Mode domain.OutlineMode

	// TargetWords is the total word target for the document.
	TargetWords int

	// ItemIDs restricts retrieval to these items. Empty means all items.
	ItemIDs []int64

	// Selection controls per-section retrieval.
	Selection domain.SelectionOptions

	// Concurrency bounds how many sections are drafted at once. Values
	// below 2 draft sequentially.
	Concurrency int
}

// SectionResult is the rendered outcome of one outline section.
type SectionResult struct {
	Section domain.Section

	// Markdown is the rendered section, heading included.
	Markdown string

	// Grounded is false when a placeholder was rendered.
	Grounded bool

	// TopSimilarity is the best retrieval score for the section.
	TopSimilarity float64
}

// ExpandResult is the assembled document.
type ExpandResult struct {
	// Document is the full markdown, bibliography included.
	Document string

	// Sections holds every completed section in outline order.
	Sections []SectionResult

	// Bibliography is the deduplicated, sorted citation list.
	Bibliography []string

	// Planned is the number of sections in the outline.
	Planned int
}

// ExpandService turns a draft into a grounded long-form document.
type ExpandService interface {
	// Expand plans, drafts and assembles a document.
	// If a section fails on transport, the result still holds the document
	// assembled from the sections completed before it, alongside the error.
	Expand(ctx context.Context, req ExpandRequest) (*ExpandResult, error)
}
