package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/logger"
	"github.com/custodia-labs/groundwork/internal/structured"
)

// Ensure Synthesizer accepts custom prompts.
var _ driven.PromptStoreAware = (*Synthesizer)(nil)

// Generation parameters per call type.
const (
	askTemperature   = 0.1
	askMaxTokens     = 2000
	draftTemperature = 0.15
	draftMaxTokens   = 2200
	citeTemperature  = 0.1
	citeMaxTokens    = 1000
)

// citationPayload is one {source_id, text} entry as models emit it.
type citationPayload struct {
	SourceID structured.FlexID `json:"source_id"`
	Text     string            `json:"text"`
}

type draftPayload struct {
	Text         string            `json:"text"`
	Bibliography []citationPayload `json:"bibliography"`
}

type citePayload struct {
	Footnotes    []citationPayload `json:"footnotes"`
	Bibliography []citationPayload `json:"bibliography"`
}

var citationSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":     "object",
		"required": []any{"text"},
		"properties": map[string]any{
			"source_id": map[string]any{"type": []any{"number", "string", "null"}},
			"text":      map[string]any{"type": "string"},
		},
	},
}

var draftSchema = structured.MustSchema("draft", map[string]any{
	"type":     "object",
	"required": []any{"text"},
	"properties": map[string]any{
		"text":         map[string]any{"type": "string"},
		"bibliography": citationSchema,
	},
}, "text")

var citeSchema = structured.MustSchema("citations", map[string]any{
	"type":     "object",
	"required": []any{"footnotes"},
	"properties": map[string]any{
		"footnotes":    citationSchema,
		"bibliography": citationSchema,
	},
}, "")

const draftFormatHint = "\n\nFormat the entire response as fenced JSON:\n```json\n" +
	`{ "text": "...", "bibliography": [{"source_id":123, "text":"..."}] }` + "\n```"

// Synthesizer turns evidence into grounded prose through the generation model.
type Synthesizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewSynthesizer creates a new synthesizer.
func NewSynthesizer(llm driven.LLMService) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *Synthesizer) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Answer asks the model to answer question from ev.
// grounded is false when the model declined with the sentinel or replied empty.
func (s *Synthesizer) Answer(ctx context.Context, question string, ev domain.Evidence) (string, bool, error) {
	if s.llm == nil {
		return "", false, domain.ErrLLMUnavailable
	}
	user := "Question: " + question + "\n\nContext:\n" + FormatContext(ev, false)

	reply, err := s.llm.Chat(ctx, messages(s.prompt(driven.PromptAskSystem), user), driven.ChatOptions{
		MaxTokens:   askMaxTokens,
		Temperature: askTemperature,
	})
	if err != nil {
		return "", false, fmt.Errorf("answer: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" || IsNotInLibrary(reply) {
		return domain.NotInLibrary, false, nil
	}
	return reply, true, nil
}

// Draft writes one outline section from ev.
// Transport failures are returned as errors; unusable replies are not.
func (s *Synthesizer) Draft(ctx context.Context, sec domain.Section, ev domain.Evidence) (domain.Synthesis, error) {
	if s.llm == nil {
		return domain.Synthesis{}, domain.ErrLLMUnavailable
	}

	var b strings.Builder
	b.WriteString("Section brief: " + sec.Title + "\n")
	if len(sec.Claims) > 0 {
		b.WriteString("Claims to cover:\n")
		for _, c := range sec.Claims {
			b.WriteString("- " + c + "\n")
		}
	}
	b.WriteString("\nContext (book excerpts with metadata):\n")
	b.WriteString(FormatContext(ev, true))
	b.WriteString(draftFormatHint)

	system := fmt.Sprintf(s.prompt(driven.PromptDraftSystem), sec.TargetWords)
	raw, err := s.llm.Chat(ctx, messages(system, b.String()), driven.ChatOptions{
		MaxTokens:   draftMaxTokens,
		Temperature: draftTemperature,
	})
	if err != nil {
		return domain.Synthesis{}, fmt.Errorf("draft section %q: %w", sec.Title, err)
	}
	logger.Debug("Writer returned (first 300): %s", truncate(raw, 300))

	return parseDraft(raw), nil
}

// parseDraft maps a writer reply onto a Synthesis.
func parseDraft(raw string) domain.Synthesis {
	res := structured.Decode[draftPayload](raw, draftSchema)
	if !res.OK() {
		logger.Debug("Writer reply unusable: %v", res.Err)
		return domain.Synthesis{}
	}

	text := strings.TrimSpace(res.Value.Text)
	switch {
	case text == "":
		return domain.Synthesis{}
	case IsNotInLibrary(text):
		return domain.Synthesis{Declined: true}
	}

	return domain.Synthesis{
		Text:         text,
		Bibliography: toEntries(res.Value.Bibliography),
		Usable:       true,
		Wrapped:      res.Kind == structured.FallbackWrapped,
	}
}

// Cite asks the model for footnotes supporting paragraph from ev.
func (s *Synthesizer) Cite(ctx context.Context, paragraph string, ev domain.Evidence) (domain.Citations, error) {
	if s.llm == nil {
		return domain.Citations{}, domain.ErrLLMUnavailable
	}
	user := "Paragraph:\n" + paragraph + "\n\nContext:\n" + FormatContext(ev, true)

	raw, err := s.llm.Chat(ctx, messages(s.prompt(driven.PromptCiteSystem), user), driven.ChatOptions{
		MaxTokens:   citeMaxTokens,
		Temperature: citeTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return domain.Citations{}, fmt.Errorf("cite paragraph: %w", err)
	}

	return parseCitations(raw), nil
}

func parseCitations(raw string) domain.Citations {
	res := structured.Decode[citePayload](raw, citeSchema)
	if !res.OK() {
		logger.Debug("Citation reply unusable: %v", res.Err)
		return domain.Citations{Raw: raw}
	}

	out := domain.Citations{Parsed: true, Raw: raw}
	for _, fn := range res.Value.Footnotes {
		text := strings.TrimSpace(fn.Text)
		if text == "" {
			continue
		}
		out.Footnotes = append(out.Footnotes, domain.Footnote{SourceID: fn.SourceID.Value, Text: text})
	}
	out.Bibliography = toEntries(res.Value.Bibliography)
	return out
}

// FormatContext renders evidence as numbered context blocks.
func FormatContext(ev domain.Evidence, withSourceID bool) string {
	var b strings.Builder
	for i, c := range ev.Candidates {
		item := ev.Items[c.Chunk.ItemID]
		meta := item.Byline() + " " + PageLabel(item, c.Chunk)
		if withSourceID {
			meta += fmt.Sprintf(" [source_id=%d]", c.Chunk.ItemID)
		}
		fmt.Fprintf(&b, "\n[CTX %d] %s\n%s\n", i, meta, c.Chunk.Text)
	}
	return b.String()
}

// PageLabel formats a chunk's printed page range. When the display offset
// moves the range, the physical range follows in parentheses.
func PageLabel(item domain.Item, chunk domain.Chunk) string {
	start, end := item.PrintedPage(chunk.PageStart), item.PrintedPage(chunk.PageEnd)
	label := fmt.Sprintf("p.%d–%d", start, end)
	if start != chunk.PageStart || end != chunk.PageEnd {
		label += fmt.Sprintf(" (pdf p.%d–%d)", chunk.PageStart, chunk.PageEnd)
	}
	return label
}

// IsNotInLibrary reports whether reply is the model's not-in-library sentinel.
func IsNotInLibrary(reply string) bool {
	r := strings.TrimSuffix(strings.TrimSpace(reply), ".")
	return strings.EqualFold(r, strings.TrimSuffix(domain.NotInLibrary, "."))
}

func (s *Synthesizer) prompt(name string) string {
	fallback := driven.DefaultPrompts()[name]
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

func messages(system, user string) []driven.ChatMessage {
	return []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		{Role: driven.RoleUser, Content: user},
	}
}

func toEntries(in []citationPayload) []domain.BibliographyEntry {
	var out []domain.BibliographyEntry
	for _, c := range in {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		out = append(out, domain.BibliographyEntry{SourceID: c.SourceID.Value, Text: text})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
