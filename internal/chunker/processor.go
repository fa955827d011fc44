// Package chunker turns per-page text into page-addressable, token-budgeted chunks.
package chunker

import (
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// DefaultTargetTokens is the token budget for one chunk.
const DefaultTargetTokens = 1000

// DefaultResplitTokens is the size above which a chunk is re-split by paragraph.
const DefaultResplitTokens = 1600

// MaxSectionTitle is the rune limit for inferred section titles.
const MaxSectionTitle = 80

const joiner = "\n\n"

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	trailingSpace   = regexp.MustCompile(`[ \t]*\n`)
	excessNewlines  = regexp.MustCompile(`\n{4,}`)
	paragraphBreak  = regexp.MustCompile(`\n{2,}`)
)

// Processor splits page text into chunks.
type Processor struct {
	targetTokens  int
	resplitTokens int
	newID         func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithTargetTokens sets the per-chunk token budget.
func WithTargetTokens(tokens int) Option {
	return func(p *Processor) {
		if tokens > 0 {
			p.targetTokens = tokens
		}
	}
}

// WithResplitTokens sets the threshold above which chunks are re-split.
func WithResplitTokens(tokens int) Option {
	return func(p *Processor) {
		if tokens > 0 {
			p.resplitTokens = tokens
		}
	}
}

// WithIDGenerator overrides chunk id generation.
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		targetTokens:  DefaultTargetTokens,
		resplitTokens: DefaultResplitTokens,
		newID:         func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(p)
	}

	// A re-split threshold below the budget would re-split every flushed chunk.
	if p.resplitTokens < p.targetTokens {
		p.resplitTokens = p.targetTokens
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

type span struct {
	text      string
	pageStart int
	pageEnd   int
}

// Chunk splits ordered pages into chunks owned by itemID.
// Blank pages are skipped. Embeddings are left empty.
func (p *Processor) Chunk(itemID int64, pages []domain.Page) []domain.Chunk {
	var spans []span
	var cur span

	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}

		try := text
		if cur.text != "" {
			try = cur.text + joiner + text
		}

		if EstimateTokens(try) > p.targetTokens && cur.text != "" {
			spans = append(spans, cur)
			cur = span{text: text, pageStart: page.Number, pageEnd: page.Number}
			continue
		}

		if cur.text == "" {
			cur.pageStart = page.Number
		}
		cur.text = try
		cur.pageEnd = page.Number
	}
	if cur.text != "" {
		spans = append(spans, cur)
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for _, s := range spans {
		for _, piece := range p.resplit(s) {
			chunks = append(chunks, p.newChunk(itemID, piece))
		}
	}
	return chunks
}

// resplit breaks an oversized span on paragraph boundaries.
// Every piece keeps the parent's page range.
func (p *Processor) resplit(s span) []span {
	if EstimateTokens(s.text) <= p.resplitTokens {
		return []span{s}
	}

	var out []span
	acc := ""
	for _, para := range paragraphBreak.Split(s.text, -1) {
		try := para
		if acc != "" {
			try = acc + joiner + para
		}
		if EstimateTokens(try) > p.targetTokens && acc != "" {
			out = append(out, span{text: acc, pageStart: s.pageStart, pageEnd: s.pageEnd})
			acc = para
			continue
		}
		acc = try
	}
	if acc != "" {
		out = append(out, span{text: acc, pageStart: s.pageStart, pageEnd: s.pageEnd})
	}
	return out
}

func (p *Processor) newChunk(itemID int64, s span) domain.Chunk {
	return domain.Chunk{
		ID:         p.newID(),
		ItemID:     itemID,
		Section:    InferSectionTitle(s.text),
		PageStart:  s.pageStart,
		PageEnd:    s.pageEnd,
		Text:       s.text,
		TokenCount: EstimateTokens(s.text),
	}
}

// EstimateTokens is the word-count heuristic round(words * 1.3), minimum 1 word.
func EstimateTokens(s string) int {
	words := len(strings.Fields(s))
	if words < 1 {
		words = 1
	}
	return int(math.Round(float64(words) * 1.3))
}

// InferSectionTitle returns the first trimmed line longer than three
// characters, truncated to MaxSectionTitle runes, or nil.
func InferSectionTitle(s string) *string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		runes := []rune(line)
		if len(runes) <= 3 {
			continue
		}
		if len(runes) > MaxSectionTitle {
			line = string(runes[:MaxSectionTitle])
		}
		return &line
	}
	return nil
}

// NormalizeWhitespace collapses runs of spaces and tabs, strips trailing
// spaces from lines, caps blank-line runs and trims the result.
func NormalizeWhitespace(s string) string {
	if s == "" {
		return ""
	}
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = excessNewlines.ReplaceAllString(s, joiner)
	return strings.TrimSpace(s)
}
