package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/core/services"
)

var (
	askBookIDs     []int64
	askMaxChunks   int
	askMinDistinct int
	askPerBookCap  int
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the library",
	Long: `Retrieves the passages most similar to the question and answers using
only those passages, citing title and page for each claim.

If the best passage scores below retrieval.ask_threshold the model is not
called and the answer is "Not in library (retrieval too weak)."`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	addSelectionFlags(askCmd, &askBookIDs, &askMaxChunks, &askMinDistinct, &askPerBookCap, 0)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer and sources as JSON")
	rootCmd.AddCommand(askCmd)
}

// addSelectionFlags registers the retrieval flags shared by ask, expand and cite.
// A zero maxDefault defers to the configured default.
func addSelectionFlags(cmd *cobra.Command, ids *[]int64, maxChunks, minDistinct, perBookCap *int, maxDefault int) {
	cmd.Flags().Int64SliceVarP(ids, "book-id", "b", nil, "restrict retrieval to these item IDs (repeatable)")
	usage := "maximum passages per retrieval"
	if maxDefault == 0 {
		usage += " (0 uses retrieval.ask_top_k)"
	}
	cmd.Flags().IntVarP(maxChunks, "max-chunks", "k", maxDefault, usage)
	cmd.Flags().IntVar(minDistinct, "min-distinct", 1, "distinct items to seed the selection with")
	cmd.Flags().IntVar(perBookCap, "per-book-cap", 0, "maximum passages from one item (0 = max-chunks)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return notConfigured("ask")
	}
	if err := requireProviders(true); err != nil {
		return err
	}

	res, err := askService.Ask(cmd.Context(), driving.AskRequest{
		Question: strings.Join(args, " "),
		ItemIDs:  askBookIDs,
		Selection: domain.SelectionOptions{
			MaxChunks:   askMaxChunks,
			MinDistinct: askMinDistinct,
			PerItemCap:  askPerBookCap,
		},
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, res)
	}
	cmd.Print(services.RenderAnswer(res))
	return nil
}

type askJSONSource struct {
	ItemID     int64   `json:"item_id"`
	Citation   string  `json:"citation"`
	Pages      string  `json:"pages"`
	Similarity float64 `json:"similarity"`
}

type askJSONOutput struct {
	Question     string          `json:"question"`
	Answer       string          `json:"answer"`
	Grounded     bool            `json:"grounded"`
	Insufficient bool            `json:"insufficient"`
	Sources      []askJSONSource `json:"sources"`
}

func outputAskJSON(cmd *cobra.Command, res *driving.AskResult) error {
	out := askJSONOutput{
		Question:     res.Question,
		Answer:       res.Answer,
		Grounded:     res.Grounded,
		Insufficient: res.Evidence.Insufficient,
		Sources:      []askJSONSource{},
	}
	if !res.Evidence.Insufficient {
		for _, c := range res.Evidence.Candidates {
			item := res.Evidence.Items[c.Chunk.ItemID]
			out.Sources = append(out.Sources, askJSONSource{
				ItemID:     c.Chunk.ItemID,
				Citation:   item.Byline(),
				Pages:      services.PageLabel(item, c.Chunk),
				Similarity: c.Similarity,
			})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
