package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/logger"
	"github.com/custodia-labs/groundwork/internal/structured"
)

// Ensure OutlinePlanner accepts custom prompts.
var _ driven.PromptStoreAware = (*OutlinePlanner)(nil)

const (
	outlineTemperature = 0.2
	outlineMaxTokens   = 1200
	outlineSchemaHint  = `{"sections":[{"title":"Intro","claims":["..."],"target":400}]}`
)

var (
	headingLine = regexp.MustCompile(`^#{1,2}\s+(.*)$`)
	bulletLine  = regexp.MustCompile(`^[-*]\s+(.*)$`)
	lineBreak   = regexp.MustCompile(`\r\n|\n|\r`)
)

type outlineEntry struct {
	Title  string            `json:"title"`
	Claims []string          `json:"claims"`
	Target structured.FlexID `json:"target"`
}

type outlinePayload struct {
	Sections []outlineEntry `json:"sections"`
}

var outlineSchema = structured.MustSchema("outline", map[string]any{
	"type":     "object",
	"required": []any{"sections"},
	"properties": map[string]any{
		"sections": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
			},
		},
	},
}, "")

// OutlinePlanner turns a draft into a list of sections to write.
type OutlinePlanner struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewOutlinePlanner creates a planner. llm is only needed for proposed outlines.
func NewOutlinePlanner(llm driven.LLMService) *OutlinePlanner {
	return &OutlinePlanner{llm: llm}
}

// SetPromptStore sets a custom prompt store for loading the outline prompt.
func (p *OutlinePlanner) SetPromptStore(store driven.PromptStore) {
	p.prompts = store
}

// Plan builds the outline for draft in the given mode.
// An empty outline is replaced by a single fallback section covering the
// whole target. Every section target is raised to MinSectionWords.
func (p *OutlinePlanner) Plan(ctx context.Context, draft string, mode domain.OutlineMode, totalWords int) ([]domain.Section, error) {
	var (
		sections []domain.Section
		err      error
	)
	switch mode {
	case domain.OutlineGuided:
		sections = GuidedOutline(draft, totalWords)
	case domain.OutlineProposed, "":
		sections, err = p.Propose(ctx, draft, totalWords)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: outline mode %q", domain.ErrInvalidInput, mode)
	}

	if len(sections) == 0 {
		logger.Warn("Outline empty, writing a single %q section", domain.FallbackSectionTitle)
		sections = []domain.Section{{Title: domain.FallbackSectionTitle, TargetWords: totalWords}}
	}
	for i := range sections {
		sections[i].TargetWords = max(domain.MinSectionWords, sections[i].TargetWords)
	}
	return sections, nil
}

// GuidedOutline reads the draft's own structure: level one and two
// headings open sections and bullet lines under a heading become its
// claims. Bullets before the first heading are ignored. The total word
// target is split evenly across sections.
func GuidedOutline(draft string, totalWords int) []domain.Section {
	var sections []domain.Section
	for _, line := range lineBreak.Split(draft, -1) {
		line = strings.TrimSpace(line)
		if m := headingLine.FindStringSubmatch(line); m != nil {
			sections = append(sections, domain.Section{Title: strings.TrimSpace(m[1])})
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil && len(sections) > 0 {
			last := &sections[len(sections)-1]
			last.Claims = append(last.Claims, strings.TrimSpace(m[1]))
		}
	}
	if len(sections) == 0 {
		return nil
	}

	per := max(domain.MinSectionWords, totalWords/len(sections))
	for i := range sections {
		sections[i].TargetWords = per
	}
	return sections
}

// Propose asks the model for an outline. A reply that cannot be parsed
// yields an empty outline; only transport failures are errors.
func (p *OutlinePlanner) Propose(ctx context.Context, draft string, totalWords int) ([]domain.Section, error) {
	if p.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	system := fmt.Sprintf(p.prompt(), totalWords)
	user := "Draft:\n" + draft + "\n\nOutput schema:\n" + outlineSchemaHint

	raw, err := p.llm.Chat(ctx, messages(system, user), driven.ChatOptions{
		MaxTokens:   outlineMaxTokens,
		Temperature: outlineTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("propose outline: %w", err)
	}

	res := structured.Decode[outlinePayload](raw, outlineSchema)
	if !res.OK() {
		logger.Debug("Outline reply unusable (%s): %v", res.Kind, res.Err)
		return nil, nil
	}

	var sections []domain.Section
	for _, e := range res.Value.Sections {
		title := strings.TrimSpace(e.Title)
		if title == "" || e.Target.Value == nil || *e.Target.Value <= 0 {
			continue
		}
		sec := domain.Section{Title: title, TargetWords: int(*e.Target.Value)}
		for _, c := range e.Claims {
			if c = strings.TrimSpace(c); c != "" {
				sec.Claims = append(sec.Claims, c)
			}
		}
		sections = append(sections, sec)
	}
	logger.Debug("Outline proposed %d sections", len(sections))
	return sections, nil
}

func (p *OutlinePlanner) prompt() string {
	fallback := driven.DefaultPrompts()[driven.PromptOutlineSystem]
	if p.prompts == nil {
		return fallback
	}
	prompt, err := p.prompts.Load(driven.PromptOutlineSystem)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}
