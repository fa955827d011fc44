package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/groundwork/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockEmbedModel = "mock-embed"

// mockEmbedder implements driven.EmbeddingService for testing.
// Texts listed in vectors get that vector; everything else gets fallback.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	model    string
	embedErr error
	batchErr error
	short    bool // return one vector fewer than requested
	calls    int
	batches  [][]string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.lookup(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, texts)
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, m.lookup(t))
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) lookup(text string) []float32 {
	for prefix, v := range m.vectors {
		if strings.HasPrefix(text, prefix) {
			return v
		}
	}
	if m.fallback != nil {
		return m.fallback
	}
	return []float32{1, 0}
}

func (m *mockEmbedder) Dimensions() int { return 2 }

func (m *mockEmbedder) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return mockEmbedModel
}

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockLLM implements driven.LLMService for testing.
// reply, when set, decides the response per call.
type mockLLM struct {
	mu      sync.Mutex
	replies []string
	reply   func(msgs []driven.ChatMessage) (string, error)
	err     error
	calls   []mockChatCall
}

type mockChatCall struct {
	Messages []driven.ChatMessage
	Options  driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockChatCall{Messages: msgs, Options: opts})
	if m.err != nil {
		return "", m.err
	}
	if m.reply != nil {
		return m.reply(msgs)
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	r := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return r, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("unknown prompt")
}

func (m *mockPromptStore) Reload() {}

// --- Fixtures ---

// vecAt returns a unit vector whose cosine against (1, 0) is sim.
func vecAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

// chunkSpec describes one stored chunk by its similarity to (1, 0).
type chunkSpec struct {
	sim  float64
	page int
	text string
}

// seedItem stores an item with one chunk for each chunkSpec.
func seedItem(t *testing.T, store *memory.LibraryStore, title string, specs ...chunkSpec) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := store.SaveItem(ctx, &domain.Item{Title: title, Author: "Author " + title, Year: 1990})
	require.NoError(t, err)

	chunks := make([]domain.Chunk, 0, len(specs))
	for i, s := range specs {
		page := s.page
		if page == 0 {
			page = i + 1
		}
		text := s.text
		if text == "" {
			text = title + " excerpt"
		}
		chunks = append(chunks, domain.Chunk{
			ID:             title + "-" + string(rune('a'+i)),
			ItemID:         id,
			PageStart:      page,
			PageEnd:        page,
			Text:           text,
			Embedding:      vecAt(s.sim),
			EmbeddingModel: mockEmbedModel,
		})
	}
	if len(chunks) > 0 {
		require.NoError(t, store.SaveChunks(ctx, chunks))
	}
	return id
}

func testRetrievalSettings() domain.RetrievalSettings {
	return domain.DefaultAppSettings().Retrieval
}
