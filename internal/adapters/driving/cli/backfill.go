package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/pagefill/internal/core/domain"
)

var embeddingsOnce bool

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill missing derived data",
	Long: `Commands that compute missing OCR text and embedding vectors for
previously ingested pages. Rows are processed one at a time; a per-row
failure flags the row and the loop moves on.`,
}

var backfillErrorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Reprocess pages flagged with an error",
	Long: `Fetches pages flagged error=true in batches and reprocesses each one:
OCR when the page has no text, then embedding, then a single-row
update that clears the flag. Runs until a fetch returns no rows.`,
	RunE: runBackfillErrors,
}

var backfillEmbeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Generate embeddings for pages with OCR text",
	Long: `Polls for pages that have OCR text but no embedding vector and fills
them in. By default this runs as a long-lived loop, polling at a fixed
interval; use --once for a single pass.`,
	RunE: runBackfillEmbeddings,
}

func init() {
	backfillEmbeddingsCmd.Flags().BoolVar(&embeddingsOnce, "once", false, "run a single pass instead of polling")
	backfillCmd.AddCommand(backfillErrorsCmd)
	backfillCmd.AddCommand(backfillEmbeddingsCmd)
	rootCmd.AddCommand(backfillCmd)
}

func runBackfillErrors(cmd *cobra.Command, _ []string) error {
	if backfiller == nil {
		return errors.New("backfill service not configured")
	}

	report, err := backfiller.RetryErrors(cmd.Context())
	if err != nil {
		return fmt.Errorf("error retry failed: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func runBackfillEmbeddings(cmd *cobra.Command, _ []string) error {
	if backfiller == nil {
		return errors.New("backfill service not configured")
	}

	if embeddingsOnce {
		report, err := backfiller.EmbeddingPass(cmd.Context())
		if err != nil {
			return fmt.Errorf("embedding pass failed: %w", err)
		}
		printReport(cmd, report)
		return nil
	}

	cmd.Println("Polling for pages awaiting embeddings. Ctrl-C to stop.")
	err := backfiller.RunEmbeddings(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printReport(cmd *cobra.Command, report domain.RunReport) {
	cmd.Printf("Run %s (%s): %d processed, %d failed in %s\n",
		report.RunID, report.Mode, report.Processed, report.Failed,
		report.Duration.Round(time.Millisecond))
}
