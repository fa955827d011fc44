package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// Ensure ExpandService implements the interface.
var _ driving.ExpandService = (*ExpandService)(nil)

// DefaultTargetWords is the document word target when none is given.
const DefaultTargetWords = 5000

const (
	expandTitle       = "# Expanded Draft"
	noContentProduced = "_No content produced._"
)

// ExpandService plans an outline, drafts every section from its own
// evidence and assembles the document with one bibliography.
type ExpandService struct {
	retriever *Retriever
	embedder  driven.EmbeddingService
	synth     *Synthesizer
	planner   *OutlinePlanner
	settings  domain.RetrievalSettings
}

// NewExpandService creates a new expand service.
func NewExpandService(
	retriever *Retriever,
	embedder driven.EmbeddingService,
	synth *Synthesizer,
	planner *OutlinePlanner,
	settings domain.RetrievalSettings,
) *ExpandService {
	return &ExpandService{
		retriever: retriever,
		embedder:  embedder,
		synth:     synth,
		planner:   planner,
		settings:  settings,
	}
}

// sectionOutcome is a drafted section plus the citations it contributed.
type sectionOutcome struct {
	result       driving.SectionResult
	bibliography []domain.BibliographyEntry
}

// Expand runs the whole pipeline. When a section fails, the returned
// result holds the sections completed before it and err is non-nil.
func (s *ExpandService) Expand(ctx context.Context, req driving.ExpandRequest) (*driving.ExpandResult, error) {
	draft := strings.TrimSpace(req.Draft)
	if draft == "" {
		return nil, fmt.Errorf("%w: draft is empty", domain.ErrEmptyInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	total := req.TargetWords
	if total <= 0 {
		total = DefaultTargetWords
	}

	corpus, err := s.retriever.Load(ctx, req.ItemIDs)
	if err != nil {
		return nil, err
	}

	logger.Section("Outline")
	sections, err := s.planner.Plan(ctx, draft, req.Mode, total)
	if err != nil {
		return nil, err
	}
	logger.Info("Planned %d sections", len(sections))

	outcomes, runErr := s.draftAll(ctx, corpus, sections, req)

	result := &driving.ExpandResult{Planned: len(sections)}
	bib := NewBibliography()
	pieces := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		result.Sections = append(result.Sections, o.result)
		pieces = append(pieces, o.result.Markdown)
		bib.Add(o.bibliography...)
	}
	result.Bibliography = bib.Entries()
	result.Document = assembleDocument(pieces, bib)

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

// draftAll drafts sections sequentially, or with bounded concurrency.
// It returns the completed prefix of the outline.
func (s *ExpandService) draftAll(
	ctx context.Context, corpus *Corpus, sections []domain.Section, req driving.ExpandRequest,
) ([]sectionOutcome, error) {
	done := make([]*sectionOutcome, len(sections))

	if req.Concurrency < 2 {
		for i, sec := range sections {
			o, err := s.draftSection(ctx, corpus, i, len(sections), sec, req.Selection)
			if err != nil {
				return completed(done), err
			}
			done[i] = o
		}
		return completed(done), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(req.Concurrency)
	for i, sec := range sections {
		g.Go(func() error {
			o, err := s.draftSection(gctx, corpus, i, len(sections), sec, req.Selection)
			if err != nil {
				return err
			}
			done[i] = o
			return nil
		})
	}
	err := g.Wait()
	return completed(done), err
}

// completed returns outcomes up to the first missing one.
func completed(done []*sectionOutcome) []sectionOutcome {
	var out []sectionOutcome
	for _, o := range done {
		if o == nil {
			break
		}
		out = append(out, *o)
	}
	return out
}

func (s *ExpandService) draftSection(
	ctx context.Context, corpus *Corpus, idx, total int, sec domain.Section, opts domain.SelectionOptions,
) (*sectionOutcome, error) {
	logger.Section(fmt.Sprintf("Section %d/%d: %s", idx+1, total, sec.Title))

	vec, err := s.embedder.Embed(ctx, SectionQuery(sec))
	if err != nil {
		return nil, fmt.Errorf("section %d %q: embed: %w", idx+1, sec.Title, err)
	}
	ev, err := corpus.Retrieve(domain.Query{Vector: vec, Model: s.embedder.ModelName()}, opts, s.settings.DraftThreshold)
	if err != nil {
		return nil, fmt.Errorf("section %d %q: %w", idx+1, sec.Title, err)
	}
	logPeek(ev)

	o := &sectionOutcome{result: driving.SectionResult{Section: sec, TopSimilarity: ev.TopSimilarity()}}
	if ev.Insufficient {
		o.result.Markdown = sectionMarkdown(sec.Title, domain.SectionInsufficientText)
		return o, nil
	}

	syn, err := s.synth.Draft(ctx, sec, ev)
	if err != nil {
		return nil, fmt.Errorf("section %d: %w", idx+1, err)
	}
	switch {
	case syn.Declined:
		o.result.Markdown = sectionMarkdown(sec.Title, domain.SectionInsufficientText)
	case !syn.Usable:
		o.result.Markdown = sectionMarkdown(sec.Title, domain.SectionUnusableText)
	default:
		if syn.Wrapped {
			logger.Warn("Section %q: writer did not return JSON, kept as plain text", sec.Title)
		}
		o.result.Markdown = sectionMarkdown(sec.Title, syn.Text)
		o.result.Grounded = true
		o.bibliography = syn.Bibliography
	}
	return o, nil
}

// SectionQuery is the text embedded to retrieve a section's evidence.
func SectionQuery(sec domain.Section) string {
	claims := make([]string, len(sec.Claims))
	for i, c := range sec.Claims {
		claims[i] = "- " + c
	}
	return sec.Title + "\n" + strings.Join(claims, "\n")
}

func sectionMarkdown(title, body string) string {
	return "### " + title + "\n\n" + strings.TrimSpace(body)
}

func assembleDocument(pieces []string, bib *Bibliography) string {
	body := noContentProduced
	if len(pieces) > 0 {
		body = strings.Join(pieces, "\n\n")
	}
	return expandTitle + "\n\n" + body + "\n\n" + bib.Render()
}

func logPeek(ev domain.Evidence) {
	if !logger.IsVerbose() {
		return
	}
	logger.Debug("Best similarity: %.3f", ev.TopSimilarity())
	for i, c := range ev.Candidates {
		if i == 3 {
			break
		}
		item := ev.Items[c.Chunk.ItemID]
		logger.Debug("  %.3f %s %s", c.Similarity, item.Title, PageLabel(item, c.Chunk))
	}
}
