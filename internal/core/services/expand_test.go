package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/groundwork/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

const guidedDraft = "# Salt\n- salt was taxed\n## Iron\n- iron was traded\n"

// draftReply answers draft calls based on the section brief in the user message.
func draftReply(bySection map[string]string) func([]driven.ChatMessage) (string, error) {
	return func(msgs []driven.ChatMessage) (string, error) {
		user := msgs[len(msgs)-1].Content
		for title, reply := range bySection {
			if strings.Contains(user, "Section brief: "+title+"\n") {
				return reply, nil
			}
		}
		return "", errors.New("unexpected section")
	}
}

type expandFixture struct {
	svc      *ExpandService
	store    *memory.LibraryStore
	embedder *mockEmbedder
	llm      *mockLLM
}

func newExpandFixture(t *testing.T) *expandFixture {
	t.Helper()
	store := memory.NewLibraryStore()
	seedItem(t, store, "Ledger", chunkSpec{sim: 0.9, text: "salt duty"}, chunkSpec{sim: 0.7, text: "salt roads"})

	// The Salt query lands on the ledger, the Iron query matches nothing well.
	embedder := &mockEmbedder{vectors: map[string][]float32{
		"Salt\n": {1, 0},
		"Iron\n": {0, -1},
	}}
	llm := &mockLLM{}
	synth := NewSynthesizer(llm)
	svc := NewExpandService(NewRetriever(store, store), embedder, synth, NewOutlinePlanner(llm), testRetrievalSettings())
	return &expandFixture{svc: svc, store: store, embedder: embedder, llm: llm}
}

func TestExpandService_GuardrailPlaceholder(t *testing.T) {
	f := newExpandFixture(t)
	f.llm.reply = draftReply(map[string]string{
		"Salt": `{"text":"Salt was taxed.[^1]","bibliography":[{"source_id":1,"text":"Ledger of Salt."}]}`,
	})

	res, err := f.svc.Expand(context.Background(), driving.ExpandRequest{
		Draft:       guidedDraft,
		Mode:        domain.OutlineGuided,
		TargetWords: 3000,
		Selection:   domain.SelectionOptions{MaxChunks: 6},
	})

	require.NoError(t, err)
	require.Len(t, res.Sections, 2)
	assert.Equal(t, 2, res.Planned)

	assert.True(t, res.Sections[0].Grounded)
	assert.Equal(t, "### Salt\n\nSalt was taxed.[^1]", res.Sections[0].Markdown)

	iron := res.Sections[1]
	assert.False(t, iron.Grounded)
	assert.Equal(t, "### Iron\n\n"+domain.SectionInsufficientText, iron.Markdown)
	assert.Less(t, iron.TopSimilarity, domain.DefaultDraftThreshold)

	assert.Equal(t, []string{"Ledger of Salt."}, res.Bibliography)
	// Only the grounded section reached the writer.
	assert.Equal(t, 1, f.llm.callCount())

	want := "# Expanded Draft\n\n" +
		"### Salt\n\nSalt was taxed.[^1]\n\n" +
		"### Iron\n\n" + domain.SectionInsufficientText + "\n\n" +
		"## Bibliography\n- Ledger of Salt.\n"
	assert.Equal(t, want, res.Document)
}

func TestExpandService_BibliographyDedupAcrossSections(t *testing.T) {
	f := newExpandFixture(t)
	f.embedder.vectors["Iron\n"] = []float32{1, 0}
	f.llm.reply = draftReply(map[string]string{
		"Salt": `{"text":"a","bibliography":[{"source_id":1,"text":"Ledger."},{"source_id":null,"text":"Anon,  Roads."}]}`,
		"Iron": `{"text":"b","bibliography":[{"source_id":1,"text":"Ledger."},{"source_id":null,"text":"anon, roads."}]}`,
	})

	res, err := f.svc.Expand(context.Background(), driving.ExpandRequest{
		Draft: guidedDraft, Mode: domain.OutlineGuided, TargetWords: 2000,
	})

	require.NoError(t, err)
	assert.Len(t, res.Bibliography, 2)
	assert.Equal(t, 1, strings.Count(res.Document, "- Ledger."))
}

func TestExpandService_UnusableAndDeclined(t *testing.T) {
	f := newExpandFixture(t)
	f.embedder.vectors["Iron\n"] = []float32{1, 0}
	f.llm.reply = draftReply(map[string]string{
		"Salt": `{"text":"","bibliography":[]}`,
		"Iron": "Not in library.",
	})

	res, err := f.svc.Expand(context.Background(), driving.ExpandRequest{
		Draft: guidedDraft, Mode: domain.OutlineGuided, TargetWords: 2000,
	})

	require.NoError(t, err)
	assert.Equal(t, "### Salt\n\n"+domain.SectionUnusableText, res.Sections[0].Markdown)
	assert.Equal(t, "### Iron\n\n"+domain.SectionInsufficientText, res.Sections[1].Markdown)
	assert.Contains(t, res.Document, "(No sources referenced.)")
}

func TestExpandService_PartialOnTransportFailure(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		f := newExpandFixture(t)
		f.embedder.vectors["Iron\n"] = []float32{1, 0}
		f.llm.reply = func(msgs []driven.ChatMessage) (string, error) {
			if strings.Contains(msgs[1].Content, "Section brief: Iron\n") {
				return "", errors.New("connection refused")
			}
			return `{"text":"Salt prose.","bibliography":[{"source_id":1,"text":"Ledger."}]}`, nil
		}

		res, err := f.svc.Expand(context.Background(), driving.ExpandRequest{
			Draft: guidedDraft, Mode: domain.OutlineGuided, TargetWords: 2000, Concurrency: concurrency,
		})

		require.Error(t, err, "concurrency %d", concurrency)
		assert.Contains(t, err.Error(), "connection refused")
		require.NotNil(t, res)
		require.Len(t, res.Sections, 1)
		assert.Equal(t, "Salt", res.Sections[0].Section.Title)
		assert.Contains(t, res.Document, "Salt prose.")
		assert.Contains(t, res.Document, "- Ledger.")
		assert.Equal(t, 2, res.Planned)
	}
}

func TestExpandService_FirstSectionFailsYieldsEmptyDocument(t *testing.T) {
	f := newExpandFixture(t)
	f.llm.err = errors.New("502 bad gateway")

	res, err := f.svc.Expand(context.Background(), driving.ExpandRequest{
		Draft: guidedDraft, Mode: domain.OutlineGuided, TargetWords: 2000,
	})

	require.Error(t, err)
	assert.Empty(t, res.Sections)
	assert.Contains(t, res.Document, "_No content produced._")
}

func TestExpandService_ConcurrentKeepsOutlineOrder(t *testing.T) {
	f := newExpandFixture(t)
	draft := "# One\n# Two\n# Three\n# Four\n"
	f.embedder.fallback = []float32{1, 0}
	f.llm.reply = func(msgs []driven.ChatMessage) (string, error) {
		user := msgs[1].Content
		title := strings.TrimPrefix(strings.SplitN(user, "\n", 2)[0], "Section brief: ")
		return `{"text":"` + title + ` text","bibliography":[]}`, nil
	}

	res, err := f.svc.Expand(context.Background(), driving.ExpandRequest{
		Draft: draft, Mode: domain.OutlineGuided, TargetWords: 4000, Concurrency: 3,
	})

	require.NoError(t, err)
	require.Len(t, res.Sections, 4)
	for i, title := range []string{"One", "Two", "Three", "Four"} {
		assert.Equal(t, title, res.Sections[i].Section.Title)
		assert.Equal(t, "### "+title+"\n\n"+title+" text", res.Sections[i].Markdown)
	}
	assert.Less(t, strings.Index(res.Document, "### One"), strings.Index(res.Document, "### Four"))
}

func TestExpandService_ProposedFallbackSection(t *testing.T) {
	f := newExpandFixture(t)
	f.embedder.fallback = []float32{1, 0}
	f.llm.replies = []string{
		"I cannot produce an outline.",
		`{"text":"Expanded prose.","bibliography":[]}`,
	}

	res, err := f.svc.Expand(context.Background(), driving.ExpandRequest{Draft: "A short draft.", TargetWords: 3000})

	require.NoError(t, err)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, domain.FallbackSectionTitle, res.Sections[0].Section.Title)
	assert.Equal(t, 3000, res.Sections[0].Section.TargetWords)
	assert.Contains(t, res.Document, "### Expanded Discussion\n\nExpanded prose.")
}

func TestExpandService_InputErrors(t *testing.T) {
	f := newExpandFixture(t)

	_, err := f.svc.Expand(context.Background(), driving.ExpandRequest{Draft: " \n "})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	f.llm.err = errors.New("down")
	_, err = f.svc.Expand(context.Background(), driving.ExpandRequest{Draft: "x", Mode: domain.OutlineProposed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "propose outline")
}

func TestSectionQuery(t *testing.T) {
	assert.Equal(t, "Salt\n- taxed\n- traded", SectionQuery(domain.Section{Title: "Salt", Claims: []string{"taxed", "traded"}}))
	assert.Equal(t, "Salt\n", SectionQuery(domain.Section{Title: "Salt"}))
}
