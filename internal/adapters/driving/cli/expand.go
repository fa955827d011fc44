package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/core/services"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// Lower bounds applied to expand flags.
const (
	minExpandTargetWords = 1000
	minExpandMaxChunks   = 6
)

var (
	expandGuided      bool
	expandBookIDs     []int64
	expandTargetWords int
	expandMaxChunks   int
	expandMinDistinct int
	expandPerBookCap  int
	expandConcurrency int
	expandOut         string
)

var expandCmd = &cobra.Command{
	Use:   "expand [draft]",
	Short: "Expand a draft into a long-form grounded document",
	Long: `Plans an outline for the draft, retrieves evidence for every section
separately, drafts each section from its own evidence and assembles the
result with one deduplicated bibliography.

--guided takes sections from the draft's headings and bullets. Without it
the model proposes the outline. Sections without usable evidence are
written as "Not in library" placeholders.

If a model call fails part way through, the sections completed before it
are still written to --out and the command exits with an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().BoolVarP(&expandGuided, "guided", "g", false, "use the draft's own headings and bullets as the outline")
	addSelectionFlags(expandCmd, &expandBookIDs, &expandMaxChunks, &expandMinDistinct, &expandPerBookCap, 10)
	expandCmd.Flags().IntVarP(&expandTargetWords, "target-words", "w", services.DefaultTargetWords,
		fmt.Sprintf("total word target (at least %d)", minExpandTargetWords))
	expandCmd.Flags().IntVarP(&expandConcurrency, "concurrency", "c", 1, "sections drafted at once")
	expandCmd.Flags().StringVarP(&expandOut, "out", "o", "expanded.md", `output file ("-" for stdout)`)
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	if expandService == nil {
		return notConfigured("expand")
	}
	draft, err := readDraft(args[0])
	if err != nil {
		return err
	}
	if err := requireProviders(true); err != nil {
		return err
	}
	defer logger.Elapsed("expand")()

	mode := domain.OutlineProposed
	if expandGuided {
		mode = domain.OutlineGuided
	}
	res, runErr := expandService.Expand(cmd.Context(), driving.ExpandRequest{
		Draft:       draft,
		Mode:        mode,
		TargetWords: max(expandTargetWords, minExpandTargetWords),
		ItemIDs:     expandBookIDs,
		Selection: domain.SelectionOptions{
			MaxChunks:   max(expandMaxChunks, minExpandMaxChunks),
			MinDistinct: expandMinDistinct,
			PerItemCap:  expandPerBookCap,
		},
		Concurrency: expandConcurrency,
	})
	if res == nil {
		return fmt.Errorf("expand failed: %w", runErr)
	}

	if err := writeDocument(cmd, expandOut, res.Document); err != nil {
		return errors.Join(runErr, err)
	}
	grounded := 0
	for _, s := range res.Sections {
		if s.Grounded {
			grounded++
		}
	}
	if expandOut != stdoutPath {
		cmd.Printf("Wrote %s: %d of %d sections (%d grounded), %d sources\n",
			expandOut, len(res.Sections), res.Planned, grounded, len(res.Bibliography))
	}
	if runErr != nil {
		return fmt.Errorf("expand stopped after %d of %d sections: %w", len(res.Sections), res.Planned, runErr)
	}
	return nil
}

const stdoutPath = "-"

// readDraft loads a draft file. A missing path is an input error.
func readDraft(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: draft %s not found", domain.ErrInvalidInput, path)
	}
	if err != nil {
		return "", fmt.Errorf("read draft: %w", err)
	}
	return string(data), nil
}

// writeDocument writes markdown to path, or to the command output for "-".
func writeDocument(cmd *cobra.Command, path, doc string) error {
	if path == stdoutPath || path == "" {
		cmd.Print(doc)
		return nil
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil { //nolint:gosec // G306: documents are meant to be shared.
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
