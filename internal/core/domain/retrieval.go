package domain

// Default guardrail thresholds. Direct question answering is stricter than
// long-form drafting; paragraph citation sits between the two.
const (
	DefaultAskThreshold   = 0.25
	DefaultDraftThreshold = 0.15
	DefaultCiteThreshold  = 0.20
)

// Candidate pairs a chunk with its similarity to the query.
// Candidates live only for the duration of one retrieval call.
type Candidate struct {
	Chunk      Chunk
	Similarity float64
}

// SelectionOptions controls diversity-aware selection.
type SelectionOptions struct {
	// MinDistinct is the number of distinct items to bootstrap the selection with.
	MinDistinct int

	// PerItemCap bounds how many chunks one item may contribute before relaxation.
	PerItemCap int

	// MaxChunks bounds the total selection size.
	MaxChunks int
}

// Normalise clamps the options to usable values.
// MaxChunks and MinDistinct are at least 1; a missing cap defaults to MaxChunks.
func (o SelectionOptions) Normalise() SelectionOptions {
	if o.MaxChunks < 1 {
		o.MaxChunks = 1
	}
	if o.MinDistinct < 1 {
		o.MinDistinct = 1
	}
	if o.PerItemCap < 1 {
		o.PerItemCap = o.MaxChunks
	}
	return o
}

// Query is an embedded retrieval query.
type Query struct {
	// Vector is the query embedding.
	Vector []float32

	// Model is the embedding model that produced Vector.
	Model string

	// ItemIDs optionally restricts candidates to these items.
	ItemIDs []int64
}

// Evidence is the outcome of one retrieval call.
type Evidence struct {
	// Candidates is the ordered selection, best first.
	Candidates []Candidate

	// Items holds metadata for every item referenced by Candidates.
	Items map[int64]Item

	// Insufficient is set when the selection is empty or its best
	// similarity is below the caller's threshold. Callers must not
	// synthesise from insufficient evidence.
	Insufficient bool
}

// TopSimilarity returns the best similarity in the selection, or 0 when empty.
func (e Evidence) TopSimilarity() float64 {
	if len(e.Candidates) == 0 {
		return 0
	}
	return e.Candidates[0].Similarity
}
