package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "List curated issues",
	RunE:  runIssues,
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List archival records",
	RunE:  runRecords,
}

func init() {
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(recordsCmd)
}

func runIssues(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	issues, err := catalogService.Issues(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing issues: %w", err)
	}

	if len(issues) == 0 {
		cmd.Println("No issues found.")
		return nil
	}

	for _, issue := range issues {
		cmd.Printf("  %s  %s\n", issue.ID, issue.Title)
		if issue.Description != "" {
			cmd.Printf("      %s\n", issue.Description)
		}
	}
	return nil
}

func runRecords(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	records, err := catalogService.Records(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No records found.")
		return nil
	}

	for _, record := range records {
		cmd.Printf("  %s  %-14s  %s (%d pages)\n",
			record.ID, record.RecordNumber, record.Title, record.Pages)
	}
	return nil
}
