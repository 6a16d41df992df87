package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var pagesCmd = &cobra.Command{
	Use:   "pages [record-id]",
	Short: "List the pages of a record",
	Long: `Lists the scanned pages of a record keyed by page number, with their
OCR and embedding status. Pages with a non-numeric page number are
omitted.`,
	Args: cobra.ExactArgs(1),
	RunE: runPages,
}

var pageCmd = &cobra.Command{
	Use:   "page [page-id]",
	Short: "Show the OCR text of a page",
	Args:  cobra.ExactArgs(1),
	RunE:  runPage,
}

func init() {
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(pageCmd)
}

func runPages(cmd *cobra.Command, args []string) error {
	if pageService == nil {
		return errors.New("page service not configured")
	}

	pages, err := pageService.PagesFor(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("listing pages: %w", err)
	}

	if len(pages) == 0 {
		cmd.Println("No pages found.")
		return nil
	}

	numbers := make([]int, 0, len(pages))
	for n := range pages {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		page := pages[n]
		status := "pending"
		switch {
		case page.Error:
			status = "error"
		case page.HasText() && len(page.Embedding) > 0:
			status = "complete"
		case page.HasText():
			status = "awaiting embedding"
		}
		cmd.Printf("  %4d  %s  %s\n", n, page.ID, status)
	}

	return nil
}

func runPage(cmd *cobra.Command, args []string) error {
	if pageService == nil {
		return errors.New("page service not configured")
	}

	page, err := pageService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting page: %w", err)
	}

	if page.Error {
		cmd.Println("Warning: this page is flagged with a processing error.")
	}
	if page.OCRResult == nil {
		cmd.Println("No OCR text available.")
		return nil
	}

	cmd.Println(*page.OCRResult)
	return nil
}
