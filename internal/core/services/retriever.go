package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driven"
	"github.com/custodia-labs/groundwork/internal/logger"
	"github.com/custodia-labs/groundwork/internal/vector"
)

// Retriever loads candidate chunks and selects evidence for queries.
type Retriever struct {
	chunks driven.ChunkStore
	items  driven.ItemStore
}

// NewRetriever creates a new retriever.
func NewRetriever(chunks driven.ChunkStore, items driven.ItemStore) *Retriever {
	return &Retriever{chunks: chunks, items: items}
}

// Corpus is a read-only snapshot of candidate chunks and their items.
// It is safe for concurrent use.
type Corpus struct {
	chunks []domain.Chunk
	items  map[int64]domain.Item
}

// Load snapshots the chunks of the given items, or all items when empty.
// Chunks without an embedding are not candidates.
func (r *Retriever) Load(ctx context.Context, itemIDs []int64) (*Corpus, error) {
	stored, err := r.chunks.ListChunks(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	corpus := &Corpus{items: make(map[int64]domain.Item)}
	for _, c := range stored {
		if len(c.Embedding) == 0 {
			continue
		}
		corpus.chunks = append(corpus.chunks, c)
		if _, ok := corpus.items[c.ItemID]; ok {
			continue
		}
		item, err := r.items.GetItem(ctx, c.ItemID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			corpus.items[c.ItemID] = domain.Item{ID: c.ItemID, Title: fmt.Sprintf("Item %d", c.ItemID)}
		case err != nil:
			return nil, fmt.Errorf("load item %d: %w", c.ItemID, err)
		default:
			corpus.items[c.ItemID] = *item
		}
	}

	logger.Debug("Loaded chunks: %d from %s", len(corpus.chunks), describeFilter(itemIDs))
	return corpus, nil
}

// Retrieve loads a corpus for the query's items and selects evidence.
func (r *Retriever) Retrieve(
	ctx context.Context, q domain.Query, opts domain.SelectionOptions, threshold float64,
) (domain.Evidence, error) {
	corpus, err := r.Load(ctx, q.ItemIDs)
	if err != nil {
		return domain.Evidence{}, err
	}
	return corpus.Retrieve(q, opts, threshold)
}

// Size returns the number of candidate chunks.
func (c *Corpus) Size() int {
	return len(c.chunks)
}

// Item returns metadata for an item in the corpus.
func (c *Corpus) Item(id int64) (domain.Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Retrieve ranks the corpus against q, selects a diverse subset and
// applies the guardrail threshold.
// A query embedded by a different model than the stored chunks is rejected.
func (c *Corpus) Retrieve(q domain.Query, opts domain.SelectionOptions, threshold float64) (domain.Evidence, error) {
	for _, ch := range c.chunks {
		if ch.EmbeddingModel != "" && q.Model != "" && ch.EmbeddingModel != q.Model {
			return domain.Evidence{}, fmt.Errorf("%w: chunks were embedded with %q, query with %q",
				domain.ErrEmbeddingMismatch, ch.EmbeddingModel, q.Model)
		}
		if len(ch.Embedding) != len(q.Vector) {
			return domain.Evidence{}, fmt.Errorf("%w: stored vectors have %d dimensions, query has %d",
				domain.ErrEmbeddingMismatch, len(ch.Embedding), len(q.Vector))
		}
	}

	selected := Select(Rank(q.Vector, c.chunks), opts)

	ev := domain.Evidence{
		Candidates: selected,
		Items:      make(map[int64]domain.Item),
	}
	for _, cand := range selected {
		ev.Items[cand.Chunk.ItemID] = c.items[cand.Chunk.ItemID]
	}
	ev.Insufficient = len(selected) == 0 || selected[0].Similarity < threshold

	logger.Debug("Selected %d chunks from %d items, best sim %.3f (threshold %.2f)",
		len(selected), len(ev.Items), ev.TopSimilarity(), threshold)
	return ev, nil
}

// Rank scores every chunk against q and sorts best first.
// Ties keep store order.
func Rank(q []float32, chunks []domain.Chunk) []domain.Candidate {
	ranked := make([]domain.Candidate, len(chunks))
	for i, c := range chunks {
		ranked[i] = domain.Candidate{Chunk: c, Similarity: vector.Cosine(q, c.Embedding)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	return ranked
}

// Select picks up to MaxChunks candidates from a ranked list in three passes:
// one chunk per unseen item until MinDistinct items are covered, then a
// capped fill from the top, then an uncapped fill if still short.
// The result is ordered by similarity.
func Select(ranked []domain.Candidate, opts domain.SelectionOptions) []domain.Candidate {
	opts = opts.Normalise()

	taken := make([]bool, len(ranked))
	perItem := make(map[int64]int)
	out := make([]domain.Candidate, 0, opts.MaxChunks)
	take := func(i int) {
		taken[i] = true
		perItem[ranked[i].Chunk.ItemID]++
		out = append(out, ranked[i])
	}

	// Pass A: diversity bootstrap.
	for i, c := range ranked {
		if len(out) >= opts.MaxChunks || (len(perItem) >= opts.MinDistinct && len(out) >= opts.MinDistinct) {
			break
		}
		if perItem[c.Chunk.ItemID] > 0 {
			continue
		}
		take(i)
	}

	// Pass B: capped fill.
	for i, c := range ranked {
		if len(out) >= opts.MaxChunks {
			break
		}
		if taken[i] || perItem[c.Chunk.ItemID] >= opts.PerItemCap {
			continue
		}
		take(i)
	}

	// Pass C: cap relaxation.
	for i := range ranked {
		if len(out) >= opts.MaxChunks {
			break
		}
		if !taken[i] {
			take(i)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

func describeFilter(itemIDs []int64) string {
	if len(itemIDs) == 0 {
		return "all items"
	}
	return fmt.Sprintf("items %v", itemIDs)
}
