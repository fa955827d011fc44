package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
)

var (
	citeBookIDs     []int64
	citeMaxChunks   int
	citeMinDistinct int
	citePerBookCap  int
	citeOut         string
)

var citeCmd = &cobra.Command{
	Use:   "cite [draft]",
	Short: "Add footnotes from the library to an existing draft",
	Long: `Splits the draft into paragraphs on blank lines and, for each one,
retrieves supporting passages and asks the model for footnotes with page
references. Paragraphs the library cannot support get a fallback footnote.
The annotated text ends with the aggregated bibliography.`,
	Args: cobra.ExactArgs(1),
	RunE: runCite,
}

func init() {
	addSelectionFlags(citeCmd, &citeBookIDs, &citeMaxChunks, &citeMinDistinct, &citePerBookCap, 8)
	citeCmd.Flags().StringVarP(&citeOut, "out", "o", stdoutPath, `output file ("-" for stdout)`)
	rootCmd.AddCommand(citeCmd)
}

func runCite(cmd *cobra.Command, args []string) error {
	if citeService == nil {
		return notConfigured("cite")
	}
	draft, err := readDraft(args[0])
	if err != nil {
		return err
	}
	if err := requireProviders(true); err != nil {
		return err
	}

	res, runErr := citeService.Cite(cmd.Context(), driving.CiteRequest{
		Text:    draft,
		ItemIDs: citeBookIDs,
		Selection: domain.SelectionOptions{
			MaxChunks:   citeMaxChunks,
			MinDistinct: citeMinDistinct,
			PerItemCap:  citePerBookCap,
		},
	})
	if res == nil {
		return fmt.Errorf("cite failed: %w", runErr)
	}

	if err := writeDocument(cmd, citeOut, res.Document); err != nil {
		return errors.Join(runErr, err)
	}
	if citeOut != stdoutPath {
		cmd.Printf("Wrote %s: %d paragraphs, %d sources\n", citeOut, len(res.Paragraphs), len(res.Bibliography))
	}
	if runErr != nil {
		return fmt.Errorf("cite stopped after %d paragraphs: %w", len(res.Paragraphs), runErr)
	}
	return nil
}
