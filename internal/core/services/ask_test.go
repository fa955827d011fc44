package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/groundwork/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

func newAskFixture(t *testing.T, llm *mockLLM, specsA, specsB []chunkSpec) (*AskService, *mockEmbedder) {
	t.Helper()
	store := memory.NewLibraryStore()
	seedItem(t, store, "Alpha", specsA...)
	if specsB != nil {
		seedItem(t, store, "Beta", specsB...)
	}
	embedder := &mockEmbedder{}
	svc := NewAskService(NewRetriever(store, store), embedder, NewSynthesizer(llm), testRetrievalSettings())
	return svc, embedder
}

func TestAskService_Grounded(t *testing.T) {
	llm := &mockLLM{replies: []string{"- Salt was taxed [Alpha, 1990, p.1–1]."}}
	svc, _ := newAskFixture(t, llm, []chunkSpec{{sim: 0.8}, {sim: 0.5}}, nil)

	res, err := svc.Ask(context.Background(), driving.AskRequest{Question: "  Was salt taxed? "})

	require.NoError(t, err)
	assert.True(t, res.Grounded)
	assert.Equal(t, "Was salt taxed?", res.Question)
	assert.Equal(t, "- Salt was taxed [Alpha, 1990, p.1–1].", res.Answer)
	assert.Len(t, res.Evidence.Candidates, 2)
	assert.Equal(t, 1, llm.callCount())
}

func TestAskService_WeakRetrievalSkipsModel(t *testing.T) {
	llm := &mockLLM{replies: []string{"should not be used"}}
	svc, _ := newAskFixture(t, llm, []chunkSpec{{sim: 0.2}}, nil)

	res, err := svc.Ask(context.Background(), driving.AskRequest{Question: "q"})

	require.NoError(t, err)
	assert.False(t, res.Grounded)
	assert.True(t, res.Evidence.Insufficient)
	assert.Equal(t, domain.AskInsufficientText, res.Answer)
	assert.Zero(t, llm.callCount())
}

func TestAskService_ModelDeclines(t *testing.T) {
	llm := &mockLLM{replies: []string{"Not in library."}}
	svc, _ := newAskFixture(t, llm, []chunkSpec{{sim: 0.9}}, nil)

	res, err := svc.Ask(context.Background(), driving.AskRequest{Question: "q"})

	require.NoError(t, err)
	assert.False(t, res.Grounded)
	assert.Equal(t, domain.NotInLibrary, res.Answer)
}

func TestAskService_MinDistinctAboveLibraryStillAnswers(t *testing.T) {
	llm := &mockLLM{replies: []string{"- Salt was taxed [Alpha, 1990, p.1–1]."}}
	svc, _ := newAskFixture(t, llm, []chunkSpec{{sim: 0.95}, {sim: 0.9}}, nil)

	res, err := svc.Ask(context.Background(), driving.AskRequest{
		Question:  "q",
		Selection: domain.SelectionOptions{MinDistinct: 2, MaxChunks: 4},
	})

	require.NoError(t, err)
	assert.False(t, res.Evidence.Insufficient)
	assert.True(t, res.Grounded)
	assert.Equal(t, "- Salt was taxed [Alpha, 1990, p.1–1].", res.Answer)
	assert.Len(t, res.Evidence.Items, 1)
	assert.Len(t, res.Evidence.Candidates, 2)
	assert.Equal(t, 1, llm.callCount())
}

func TestAskService_DefaultTopK(t *testing.T) {
	specs := make([]chunkSpec, 12)
	for i := range specs {
		specs[i] = chunkSpec{sim: 0.9 - float64(i)*0.01}
	}
	llm := &mockLLM{replies: []string{"answer"}}
	svc, _ := newAskFixture(t, llm, specs, nil)

	res, err := svc.Ask(context.Background(), driving.AskRequest{Question: "q"})

	require.NoError(t, err)
	assert.Len(t, res.Evidence.Candidates, domain.DefaultAppSettings().Retrieval.AskTopK)
}

func TestAskService_Errors(t *testing.T) {
	t.Run("empty question", func(t *testing.T) {
		svc, _ := newAskFixture(t, &mockLLM{}, nil, nil)
		_, err := svc.Ask(context.Background(), driving.AskRequest{Question: "   "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("embedding failure", func(t *testing.T) {
		svc, embedder := newAskFixture(t, &mockLLM{}, []chunkSpec{{sim: 0.9}}, nil)
		embedder.embedErr = errors.New("quota")
		_, err := svc.Ask(context.Background(), driving.AskRequest{Question: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embed question")
	})

	t.Run("generation failure", func(t *testing.T) {
		svc, _ := newAskFixture(t, &mockLLM{err: errors.New("503")}, []chunkSpec{{sim: 0.9}}, nil)
		_, err := svc.Ask(context.Background(), driving.AskRequest{Question: "q"})
		require.Error(t, err)
	})

	t.Run("model mismatch", func(t *testing.T) {
		svc, embedder := newAskFixture(t, &mockLLM{}, []chunkSpec{{sim: 0.9}}, nil)
		embedder.model = "text-embedding-3-large"
		_, err := svc.Ask(context.Background(), driving.AskRequest{Question: "q"})
		assert.ErrorIs(t, err, domain.ErrEmbeddingMismatch)
	})
}

func TestRenderAnswer(t *testing.T) {
	res := &driving.AskResult{
		Question: "When?",
		Answer:   "In spring.",
		Grounded: true,
		Evidence: sampleEvidence(),
	}

	out := RenderAnswer(res)

	assert.Equal(t, "Q: When?\n\nIn spring.\n\nSources used:\n- Treaties (Hale, 1988) p.8–9 (pdf p.12–13) [sim=0.800]\n", out)
}

func TestRenderAnswer_Insufficient(t *testing.T) {
	res := &driving.AskResult{
		Question: "When?",
		Answer:   domain.AskInsufficientText,
		Evidence: domain.Evidence{Insufficient: true},
	}

	assert.Equal(t, "Q: When?\n\nNot in library (retrieval too weak).\n", RenderAnswer(res))
}
