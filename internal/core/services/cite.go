package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// Ensure CiteService implements the interface.
var _ driving.CiteService = (*CiteService)(nil)

const (
	citeDefaultChunks = 8
	rawPreviewRunes   = 200
)

var paragraphBreak = regexp.MustCompile(`(?:\r\n|\n|\r)(?:[ \t]*(?:\r\n|\n|\r))+`)

// CiteService attaches footnotes to every paragraph of a draft.
type CiteService struct {
	retriever *Retriever
	embedder  driven.EmbeddingService
	synth     *Synthesizer
	settings  domain.RetrievalSettings
}

// NewCiteService creates a new cite service.
func NewCiteService(
	retriever *Retriever,
	embedder driven.EmbeddingService,
	synth *Synthesizer,
	settings domain.RetrievalSettings,
) *CiteService {
	return &CiteService{
		retriever: retriever,
		embedder:  embedder,
		synth:     synth,
		settings:  settings,
	}
}

// Cite processes paragraphs in order. On a transport failure the result
// holds the paragraphs finished so far and err is non-nil.
func (s *CiteService) Cite(ctx context.Context, req driving.CiteRequest) (*driving.CiteResult, error) {
	paragraphs := SplitParagraphs(req.Text)
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("%w: no paragraphs to cite", domain.ErrEmptyInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	corpus, err := s.retriever.Load(ctx, req.ItemIDs)
	if err != nil {
		return nil, err
	}
	opts := req.Selection
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = citeDefaultChunks
	}

	result := &driving.CiteResult{}
	bib := NewBibliography()
	var runErr error
	for i, para := range paragraphs {
		logger.Section(fmt.Sprintf("Paragraph %d/%d", i+1, len(paragraphs)))
		cited, entries, err := s.citeParagraph(ctx, corpus, para, opts)
		if err != nil {
			runErr = fmt.Errorf("paragraph %d: %w", i+1, err)
			break
		}
		result.Paragraphs = append(result.Paragraphs, cited)
		bib.Add(entries...)
	}

	result.Bibliography = bib.Entries()
	result.Document = renderCited(result.Paragraphs, bib)
	return result, runErr
}

func (s *CiteService) citeParagraph(
	ctx context.Context, corpus *Corpus, para string, opts domain.SelectionOptions,
) (driving.CitedParagraph, []domain.BibliographyEntry, error) {
	out := driving.CitedParagraph{Text: para}

	vec, err := s.embedder.Embed(ctx, para)
	if err != nil {
		return out, nil, fmt.Errorf("embed: %w", err)
	}
	ev, err := corpus.Retrieve(domain.Query{Vector: vec, Model: s.embedder.ModelName()}, opts, s.settings.CiteThreshold)
	if err != nil {
		return out, nil, err
	}
	if ev.Insufficient {
		out.Footnotes = []domain.Footnote{{Text: domain.NoSourceFootnote}}
		return out, nil, nil
	}

	cit, err := s.synth.Cite(ctx, para, ev)
	if err != nil {
		return out, nil, err
	}
	switch {
	case !cit.Parsed:
		out.Footnotes = []domain.Footnote{{Text: "Could not parse citation JSON. Raw: " + preview(cit.Raw)}}
	case len(cit.Footnotes) == 0:
		out.Footnotes = []domain.Footnote{{Text: domain.NoMatchFootnote}}
	default:
		out.Footnotes = cit.Footnotes
		out.Grounded = true
	}
	return out, cit.Bibliography, nil
}

// SplitParagraphs splits text on blank lines and drops empty paragraphs.
func SplitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// renderCited writes each paragraph with its markers, then its footnote
// definitions. Footnote numbers run across the whole document.
func renderCited(paragraphs []driving.CitedParagraph, bib *Bibliography) string {
	var b strings.Builder
	n := 1
	for _, p := range paragraphs {
		b.WriteString(p.Text)
		for i := range p.Footnotes {
			fmt.Fprintf(&b, " [^%d]", n+i)
		}
		b.WriteString("\n\n")
		for i, f := range p.Footnotes {
			fmt.Fprintf(&b, "[^%d]: %s\n", n+i, f.Text)
		}
		b.WriteString("\n")
		n += len(p.Footnotes)
	}
	b.WriteString(bib.Render())
	return b.String()
}

func preview(raw string) string {
	r := []rune(strings.TrimSpace(raw))
	if len(r) > rawPreviewRunes {
		r = r[:rawPreviewRunes]
	}
	return string(r) + "…"
}
