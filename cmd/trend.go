package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/report"
	"github.com/pable/go-scout-metrics/internal/storage"
)

var trendCmd = &cobra.Command{
	Use:   "trend <player-id>",
	Short: "Chronological rank and buy score of a player across stored runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func runTrend(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	return printHistory(db, args[0])
}

func printHistory(db *storage.DB, id string) error {
	entries, err := db.PlayerRunHistory([]string{id})
	if err != nil {
		return fmt.Errorf("query run history: %w", err)
	}
	fmt.Fprintln(os.Stdout)
	if len(entries) == 0 {
		fmt.Fprintf(os.Stdout, "Player %s does not appear in any stored run.\n", id)
		return nil
	}
	report.PrintRunHistory(os.Stdout, entries)
	return nil
}
