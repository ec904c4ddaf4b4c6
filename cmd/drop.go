package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/storage"
)

var dropForce bool

// dropCmd deletes the scouting database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the scouting database",
	Long: `Permanently delete the SQLite scouting database and its write-ahead log. The
imported dataset and every stored run are lost; re-import the CSV to rebuild.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if !dropForce {
		if _, err := os.Stat(dbPath); err != nil {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		runs := 0
		if db, err := storage.Open(dbPath); err == nil {
			if list, err := db.ListRuns(); err == nil {
				runs = len(list)
			}
			db.Close()
		}
		fmt.Fprintf(os.Stderr, "This will permanently delete %s (%d stored runs).\n", dbPath, runs)
		fmt.Fprintln(os.Stderr, "Re-run with --force to confirm.")
		return nil
	}
	existed, err := storage.Remove(dbPath)
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
		return nil
	}
	logger.WithField("db", dbPath).Info("database dropped")
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
