package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/report"
	"github.com/pable/go-scout-metrics/internal/storage"
)

var (
	sqlStat    string
	sqlLeague  string
	sqlLimit   int
	sqlColumns bool
)

var sqlCmd = &cobra.Command{
	Use:   "sql [query]",
	Short: "Query the scouting database",
	Long: `Run an arbitrary SQL query against the scouting database and print results as a table,
or use a shortcut over the imported statistics.

Schema overview:
  players(seq, id, name, season, team, league, age, position_1, position_2, minutes, value)
    one row per player-season, unique on (id, season)
  player_stats(player_seq, stat, value)        player_seq references players.seq
  dataset_columns(name, kind, ordinal)         kind is 'identity' or 'stat'
  dataset_meta(key, value)
  runs(id, role, created_at, min_minutes, budget, sliders JSON, players)
  run_scores(run_id, rank, player_id, season, name, team, league, age, position, minutes,
    value, value_m, overall_raw, overall_adj, overall_pct, overall_pct_global,
    value_eff, age_premium, reliability, sustainability, buy_score)
  run_indices(run_id, rank, name, value, pct)

Unknown statistics are not stored in player_stats; unknown scores are NULL.

Examples:
  scoutmetrics sql "SELECT league, COUNT(1) FROM players GROUP BY league"
  scoutmetrics sql --columns
  scoutmetrics sql --stat tackles --league "Premier League" --limit 20`,
	RunE: runSQL,
}

func init() {
	sqlCmd.Flags().StringVar(&sqlStat, "stat", "", "list player-seasons by one stat column, highest first")
	sqlCmd.Flags().StringVar(&sqlLeague, "league", "", "restrict --stat to one league")
	sqlCmd.Flags().IntVar(&sqlLimit, "limit", 25, "rows for --stat, 0 for all")
	sqlCmd.Flags().BoolVar(&sqlColumns, "columns", false, "list the stat columns of the current import")
}

func runSQL(cmd *cobra.Command, args []string) error {
	if sqlStat == "" && !sqlColumns && len(args) == 0 {
		return errors.New("pass a query, --stat or --columns")
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var cols []string
	var rows [][]string
	switch {
	case sqlColumns:
		stats, err := db.StatColumns()
		if err != nil {
			return err
		}
		cols = []string{"stat"}
		for _, s := range stats {
			rows = append(rows, []string{s})
		}
	case sqlStat != "":
		cols, rows, err = db.StatLeaders(sqlStat, sqlLeague, sqlLimit)
	default:
		cols, rows, err = db.QueryRaw(strings.Join(args, " "))
	}
	if err != nil {
		return err
	}
	report.PrintQueryResult(os.Stdout, cols, rows)
	return nil
}
