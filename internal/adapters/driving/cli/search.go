package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

var (
	searchMatchCount int
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search scanned pages",
	Long: `Performs hybrid search across all scanned pages.
The query is embedded and matched against page vectors, combined with
keyword matching over the OCR text. Pages flagged with an error are
never returned.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchMatchCount, "match-count", "n", domain.DefaultMatchCount, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		MatchCount: searchMatchCount,
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

type searchResultJSON struct {
	ID             string  `json:"id"`
	ParentRecordID string  `json:"parent_record_id"`
	PageNumber     string  `json:"page_number"`
	Content        string  `json:"content"`
	Similarity     float64 `json:"similarity"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i, res := range results {
		out[i] = searchResultJSON{
			ID:             res.ID,
			ParentRecordID: res.ParentRecordID,
			PageNumber:     res.PageNumber,
			Content:        res.Content,
			Similarity:     res.Similarity,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	width := terminalWidth()

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] record %s, page %s (%.2f)\n",
			i+1, results[i].ParentRecordID, results[i].PageNumber, results[i].Similarity)
		if snippet := makeSnippet(results[i].Content, width-6); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}

// terminalWidth returns the terminal width, or 80 when stdout is not a
// terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// makeSnippet collapses whitespace and truncates to maxLen runes.
func makeSnippet(content string, maxLen int) string {
	snippet := strings.Join(strings.Fields(content), " ")
	if maxLen < 10 {
		maxLen = 10
	}

	runes := []rune(snippet)
	if len(runes) <= maxLen {
		return snippet
	}
	return string(runes[:maxLen-3]) + "..."
}
