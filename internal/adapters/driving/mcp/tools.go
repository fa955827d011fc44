package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/core/services"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string  `json:"question" jsonschema:"the question to answer from the library"`
	BookIDs     []int64 `json:"book_ids,omitempty" jsonschema:"restrict retrieval to these item IDs (see list_items)"`
	MaxChunks   int     `json:"max_chunks,omitempty" jsonschema:"number of passages to answer from (default 8)"`
	MinDistinct int     `json:"min_distinct,omitempty" jsonschema:"distinct items to seed the selection with, when the library has them"`
	PerBookCap  int     `json:"per_book_cap,omitempty" jsonschema:"maximum passages taken from one item"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string `json:"answer"`

	// Grounded is false when the library could not support an answer.
	Grounded bool `json:"grounded"`

	// Insufficient is true when retrieval was too weak to call the model.
	Insufficient bool           `json:"insufficient"`
	Sources      []SourceOutput `json:"sources"`
}

// SourceOutput is one passage the answer was drawn from.
type SourceOutput struct {
	ItemID     int64   `json:"item_id"`
	Citation   string  `json:"citation"`
	Pages      string  `json:"pages"`
	Similarity float64 `json:"similarity"`
	Text       string  `json:"text"`
}

// ListItemsInput is the input schema for the list_items tool.
type ListItemsInput struct{}

// ListItemsOutput is the output schema for the list_items tool.
type ListItemsOutput struct {
	Items []ItemOutput `json:"items"`
	Count int          `json:"count"`
}

// ItemOutput describes one ingested item.
type ItemOutput struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author,omitempty"`
	Year           int    `json:"year,omitempty"`
	DisplayOffset  int    `json:"display_offset"`
	Pages          int    `json:"pages"`
	Chunks         int    `json:"chunks"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only passages from the ingested library, with page-cited sources",
	}, s.handleAsk)

	if s.ports.Library != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_items",
			Description: "List ingested books and papers with their IDs",
		}, s.handleListItems)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	res, err := s.ports.Ask.Ask(ctx, driving.AskRequest{
		Question: input.Question,
		ItemIDs:  input.BookIDs,
		Selection: domain.SelectionOptions{
			MaxChunks:   input.MaxChunks,
			MinDistinct: input.MinDistinct,
			PerItemCap:  input.PerBookCap,
		},
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:       res.Answer,
		Grounded:     res.Grounded,
		Insufficient: res.Evidence.Insufficient,
		Sources:      []SourceOutput{},
	}
	if res.Evidence.Insufficient {
		return nil, output, nil
	}
	for _, c := range res.Evidence.Candidates {
		item := res.Evidence.Items[c.Chunk.ItemID]
		output.Sources = append(output.Sources, SourceOutput{
			ItemID:     c.Chunk.ItemID,
			Citation:   item.Byline(),
			Pages:      services.PageLabel(item, c.Chunk),
			Similarity: c.Similarity,
			Text:       c.Chunk.Text,
		})
	}
	return nil, output, nil
}

func (s *Server) handleListItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListItemsInput,
) (*mcp.CallToolResult, ListItemsOutput, error) {
	stats, err := s.ports.Library.List(ctx)
	if err != nil {
		return nil, ListItemsOutput{}, fmt.Errorf("listing items: %w", err)
	}

	output := ListItemsOutput{Items: make([]ItemOutput, len(stats)), Count: len(stats)}
	for i, st := range stats {
		output.Items[i] = itemOutput(st)
	}
	return nil, output, nil
}

func itemOutput(st domain.ItemStats) ItemOutput {
	return ItemOutput{
		ID:             st.Item.ID,
		Title:          st.Item.Title,
		Author:         st.Item.Author,
		Year:           st.Item.Year,
		DisplayOffset:  st.Item.DisplayOffset,
		Pages:          st.Pages,
		Chunks:         st.Chunks,
		EmbeddingModel: st.EmbeddingModel,
	}
}
