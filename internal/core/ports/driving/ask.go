package driving

import (
	"context"

	"github.com/custodia-labs/groundwork/internal/core/domain"
)

// AskRequest is one grounded question.
type AskRequest struct {
	Question string

	// ItemIDs restricts retrieval to these items. Empty means all items.
	ItemIDs []int64

	// Selection controls diversity-aware retrieval.
	Selection domain.SelectionOptions
}

// AskResult is a grounded answer and the evidence behind it.
type AskResult struct {
	Question string

	// Answer is the model reply, or the not-grounded placeholder.
	Answer string

	// Grounded is false when evidence was insufficient or the model
	// replied with the not-in-library sentinel.
	Grounded bool

	// Evidence is the retrieval outcome shown as "sources used".
	Evidence domain.Evidence
}

// AskService answers questions from the library.
type AskService interface {
	// Ask retrieves evidence and answers. Insufficient evidence is not an error.
	Ask(ctx context.Context, req AskRequest) (*AskResult, error)
}
