package domain

// MinSectionWords is the floor applied to every section's word target.
const MinSectionWords = 350

// FallbackSectionTitle titles the single section used when no outline could be produced.
const FallbackSectionTitle = "Expanded Discussion"

// OutlineMode selects how the outline is planned.
type OutlineMode string

// Available outline modes.
const (
	// OutlineGuided derives sections from headings and bullets in the draft.
	OutlineGuided OutlineMode = "guided"

	// OutlineProposed asks the generation model for an outline.
	OutlineProposed OutlineMode = "proposed"
)

// Section is one unit of a long-form expansion plan. Sections are never persisted.
type Section struct {
	Title       string
	Claims      []string
	TargetWords int
}
