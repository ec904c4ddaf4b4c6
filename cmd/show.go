package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/report"
	"github.com/pable/go-scout-metrics/internal/storage"
)

var (
	showPlayerID string
	showTop      int
	showLeagues  bool
)

var showCmd = &cobra.Command{
	Use:   "show <run-prefix>",
	Short: "Show a stored run's ranking by run ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayerID, "player", "", "highlight a player ID")
	showCmd.Flags().IntVar(&showTop, "top", 0, "rows to print, 0 for all")
	showCmd.Flags().BoolVar(&showLeagues, "leagues", false, "also print per-league aggregates")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	return showRun(db, prefix, showPlayerID, showTop, showLeagues)
}

func showRun(db *storage.DB, prefix, focus string, top int, leagues bool) error {
	run, err := db.GetRunByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "No run found with ID prefix %q\n", prefix)
		return nil
	}

	scored, err := db.GetRunScores(run.ID)
	if err != nil {
		return fmt.Errorf("get run scores: %w", err)
	}
	report.PrintRunHeader(os.Stdout, *run)
	report.PrintRanking(os.Stdout, scored, top, focus)

	if leagues {
		stats, err := db.RunLeagueSummary(run.ID)
		if err != nil {
			return fmt.Errorf("get league summary: %w", err)
		}
		fmt.Fprintln(os.Stdout)
		report.PrintRunLeagues(os.Stdout, stats)
	}
	return nil
}
