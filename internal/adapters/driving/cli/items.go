package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

const snippetRunes = 200

var verifySamples int

var itemsCmd = &cobra.Command{
	Use:     "items",
	Aliases: []string{"books"},
	Short:   "Inspect ingested items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested items",
	Args:  cobra.NoArgs,
	RunE:  runItemsList,
}

var itemsVerifyCmd = &cobra.Command{
	Use:   "verify [id]",
	Short: "Sample chunks to check page attribution",
	Long: `Shows random chunks of an item with their physical (PDF) pages and the
printed pages citations will use. Compare a few against the source to
confirm --page-offset was right.`,
	Args: cobra.ExactArgs(1),
	RunE: runItemsVerify,
}

func init() {
	itemsVerifyCmd.Flags().IntVarP(&verifySamples, "samples", "n", 5, "number of chunks to sample")
	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsVerifyCmd)
	rootCmd.AddCommand(itemsCmd)
}

func runItemsList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return notConfigured("library")
	}

	stats, err := libraryService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	if len(stats) == 0 {
		cmd.Println("No items ingested yet. Run 'groundwork ingest <file> --title ...'.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tYEAR\tPAGES\tCHUNKS\tMODEL")
	for _, st := range stats {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			st.Item.ID, st.Item.Title, dash(st.Item.Author), st.Item.YearLabel(), st.Pages, st.Chunks, dash(st.EmbeddingModel))
	}
	return w.Flush()
}

func runItemsVerify(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return notConfigured("library")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item ID %q", args[0])
	}

	st, err := libraryService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get item %d: %w", id, err)
	}
	samples, err := libraryService.Verify(cmd.Context(), id, verifySamples)
	if err != nil {
		return fmt.Errorf("failed to sample item %d: %w", id, err)
	}

	cmd.Printf("%s, display offset %+d\n\n", st.Item.Byline(), st.Item.DisplayOffset)
	for i, s := range samples {
		cmd.Printf("[%d] physical p.%d–%d, printed p.%d–%d\n",
			i+1, s.Chunk.PageStart, s.Chunk.PageEnd, s.PrintedStart, s.PrintedEnd)
		if title := s.Chunk.SectionTitle(); title != "" {
			cmd.Printf("    Section: %s\n", title)
		}
		cmd.Printf("    %s\n\n", snippet(s.Chunk.Text, snippetRunes))
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// snippet flattens whitespace and cuts text to n runes.
func snippet(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + "…"
}
