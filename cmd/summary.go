package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/report"
	"github.com/pable/go-scout-metrics/internal/storage"
)

// summaryCmd is the cobra command for displaying a high-level database overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the database",
	Long: `Display aggregate statistics about the imported dataset: player, team and
league counts, stat columns, total minutes and median age, followed by the
stored runs.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	ov, err := db.DatasetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Players == 0 {
		fmt.Fprintln(os.Stdout, "No dataset imported yet. Run 'scoutmetrics import <players.csv>' to add one.")
		return nil
	}
	meta, err := db.DatasetMeta()
	if err != nil {
		return fmt.Errorf("get dataset meta: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n=== Dataset Summary ===\n")
	report.PrintDatasetOverview(os.Stdout, ov, meta)

	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Stored runs (%d) ---\n\n", len(runs))
	if len(runs) > 0 {
		report.PrintRuns(os.Stdout, runs)
	}
	return nil
}
