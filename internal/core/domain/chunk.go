package domain

// Chunk is a token-budgeted, page-addressable slice of an Item's text.
// Chunks are immutable once stored.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// ItemID links to the owning Item.
	ItemID int64

	// Section is the inferred section title, nil when none could be inferred.
	Section *string

	// PageStart is the first physical page contributing to this chunk.
	PageStart int

	// PageEnd is the last physical page contributing to this chunk.
	// Invariant: PageStart <= PageEnd.
	PageEnd int

	// Text is the raw chunk text.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// EmbeddingModel is the model that produced Embedding.
	// Empty for chunks stored before the model was recorded.
	EmbeddingModel string

	// TokenCount is the heuristic token estimate for Text.
	TokenCount int
}

// Dimensions returns the embedding vector length.
func (c Chunk) Dimensions() int {
	return len(c.Embedding)
}

// SectionTitle returns the inferred section title or an empty string.
func (c Chunk) SectionTitle() string {
	if c.Section == nil {
		return ""
	}
	return *c.Section
}

// Page is one page of extracted source text.
type Page struct {
	// Number is the 1-based physical page number.
	Number int

	// Text is the plain text of the page. Empty for blank or image-only pages.
	Text string
}

// ItemStats summarises what is stored for an Item.
type ItemStats struct {
	Item Item

	// Chunks is the number of stored chunks.
	Chunks int

	// Pages is the highest physical page referenced by a chunk.
	Pages int

	// EmbeddingModel is the model recorded on the item's chunks, if any.
	EmbeddingModel string
}
