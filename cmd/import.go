package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/ingest"
	"github.com/pable/go-scout-metrics/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <players.csv>",
	Short: "Import a season statistics CSV, replacing the stored dataset",
	Long: `Load a CSV with one row per player-season and store it as the current dataset.

Identity headers are matched case-insensitively (ID, Name, Season, Team/Squad,
League/Comp, Age, Position_1/Pos, Position_2, Minutes/Min, Value/Market_Value).
Every other header is a numeric statistic; blank cells and "-", "NA", "N/A"
load as unknown.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(os.Stdout, "Loading %s...\n", path)
	t, rep, err := ingest.LoadFile(path)
	if err != nil {
		return err
	}
	if len(rep.Missing) > 0 {
		logger.WithField("columns", strings.Join(rep.Missing, ",")).Warn("identity columns missing from header")
	}

	if err := db.ReplaceDataset(t, filepath.Base(path)); err != nil {
		return fmt.Errorf("store dataset: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Imported %d players, %d stat columns (%d unknown cells).\n",
		rep.Rows, len(rep.StatColumns), rep.UnknownCells)
	if len(rep.Missing) > 0 {
		fmt.Fprintf(os.Stdout, "Missing identity columns: %s\n", strings.Join(rep.Missing, ", "))
	}
	return nil
}
