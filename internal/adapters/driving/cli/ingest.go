package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/groundwork/internal/core/ports/driving"
	"github.com/custodia-labs/groundwork/internal/logger"
)

var (
	ingestTitle      string
	ingestAuthor     string
	ingestYear       int
	ingestPageOffset int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Add a book or paper to the library",
	Long: `Extracts text page by page, splits it into chunks, embeds every chunk
and stores the result. Supported files: .pdf, .docx, .html, .txt and .md.
Form feeds separate pages in text files; page breaks do in DOCX and HTML.

--page-offset maps physical PDF pages to the printed page numbers used in
citations: printed = physical + offset. A book whose printed page 1 is PDF
page 13 uses --page-offset -12.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "item title (required)")
	ingestCmd.Flags().StringVarP(&ingestAuthor, "author", "a", "", "item author")
	ingestCmd.Flags().IntVarP(&ingestYear, "year", "y", 0, "publication year")
	ingestCmd.Flags().IntVar(&ingestPageOffset, "page-offset", 0, "printed page = physical page + offset")
	_ = ingestCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return notConfigured("ingest")
	}
	if err := requireProviders(false); err != nil {
		return err
	}
	defer logger.Elapsed("ingest")()

	progress := newProgressLine(cmd.OutOrStdout())
	announced := false
	res, err := ingestService.Ingest(cmd.Context(), driving.IngestRequest{
		Path:          args[0],
		Title:         ingestTitle,
		Author:        ingestAuthor,
		Year:          ingestYear,
		DisplayOffset: ingestPageOffset,
	}, func(p driving.IngestProgress) {
		if !announced {
			cmd.Printf("Chunks built: %d\n", p.Total)
			announced = true
		}
		progress.Update("Embedded batch %d (%d/%d chunks)", p.Batch, p.Done, p.Total)
	})
	progress.Done()
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingest complete. Book ID: %d\n", res.Item.ID)
	cmd.Printf("  %s, %d pages, %d chunks\n", res.Item.Byline(), res.Pages, res.Chunks)
	return nil
}
