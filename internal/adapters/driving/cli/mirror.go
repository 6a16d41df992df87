package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/pagefill/internal/adapters/driven/storage/sqlite"
	"github.com/archivist-labs/pagefill/internal/logger"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror the live archive into the local store",
	Long: `Copies the catalog and all pages from the live backend into the local
SQLite archive, so search and browsing work offline. Requires a
configured Supabase project.`,
	RunE: runMirror,
}

func init() {
	rootCmd.AddCommand(mirrorCmd)
}

func runMirror(cmd *cobra.Command, _ []string) error {
	if configStore.GetString("supabase.url") == "" {
		return errors.New("mirror requires a configured supabase project")
	}

	local := localStore
	if local == nil {
		var err error
		local, err = sqlite.NewStore(configStore.GetString("sqlite.data_dir"))
		if err != nil {
			return fmt.Errorf("opening local store: %w", err)
		}
		defer local.Close()
	}

	ctx := cmd.Context()

	issues, err := catalogService.Issues(ctx)
	if err != nil {
		return fmt.Errorf("fetching issues: %w", err)
	}
	for _, issue := range issues {
		if err := local.SaveIssue(ctx, issue); err != nil {
			return fmt.Errorf("saving issue %s: %w", issue.ID, err)
		}
	}
	cmd.Printf("Mirrored %d issues.\n", len(issues))

	records, err := catalogService.Records(ctx)
	if err != nil {
		return fmt.Errorf("fetching records: %w", err)
	}

	pageCount := 0
	for _, record := range records {
		if err := local.SaveRecord(ctx, record); err != nil {
			return fmt.Errorf("saving record %s: %w", record.ID, err)
		}

		pages, err := pageStore.ListByRecord(ctx, record.ID)
		if err != nil {
			logger.Warn("Listing pages for record %s: %v", record.ID, err)
			continue
		}
		for _, page := range pages {
			if err := local.SavePage(ctx, page); err != nil {
				return fmt.Errorf("saving page %s: %w", page.ID, err)
			}
			pageCount++
		}
	}
	cmd.Printf("Mirrored %d records, %d pages to %s.\n", len(records), pageCount, local.Path())

	return nil
}
