package domain

// Not-grounded placeholders rendered instead of synthesised text.
const (
	// NotInLibrary is the exact sentinel the model is told to emit when evidence is missing.
	NotInLibrary = "Not in library."

	// AskInsufficientText replaces an answer when retrieval is too weak.
	AskInsufficientText = "Not in library (retrieval too weak)."

	// SectionInsufficientText replaces a section when retrieval is too weak.
	SectionInsufficientText = "_Not in library (insufficient evidence for this section)._"

	// SectionUnusableText replaces a section when the writer returned nothing usable.
	SectionUnusableText = "_Not in library (writer returned no usable text)._"

	// NoSourceFootnote is used when a paragraph has no usable evidence.
	NoSourceFootnote = "No suitable source found in selected books."

	// NoMatchFootnote is used when the model returned no footnotes.
	NoMatchFootnote = "No matching source returned."
)

// BibliographyEntry is one citation collected during a synthesis run.
type BibliographyEntry struct {
	// SourceID is the item id the citation refers to, nil if unknown.
	SourceID *int64 `json:"source_id"`

	// Text is the formatted citation.
	Text string `json:"text"`
}

// Footnote is one citation attached to a paragraph.
type Footnote struct {
	SourceID *int64 `json:"source_id"`
	Text     string `json:"text"`
}

// Synthesis is the parsed output of one grounded generation call.
type Synthesis struct {
	// Text is the grounded prose.
	Text string

	// Bibliography lists citations the prose relies on.
	Bibliography []BibliographyEntry

	// Usable is false when the response could not be turned into prose.
	Usable bool

	// Wrapped is true when the response was not structured and was kept as plain text.
	Wrapped bool

	// Declined is true when the model replied with the not-in-library sentinel.
	Declined bool
}

// Citations is the parsed output of one paragraph citation call.
type Citations struct {
	Footnotes    []Footnote
	Bibliography []BibliographyEntry

	// Parsed is false when the response could not be decoded.
	Parsed bool

	// Raw is the unparsed response, kept for diagnostics.
	Raw string
}
