package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/contextnorm"
	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/report"
)

var (
	leaguesMinMinutes  float64
	leaguesMultipliers bool
)

var leaguesCmd = &cobra.Command{
	Use:   "leagues",
	Short: "Rank leagues by team playing style",
	Long: `Aggregate team context (possession, pressing, tempo, attack, xG difference)
per league over every player above the minutes threshold, and rank the leagues
against each other. The rank of each league is shown in parentheses.`,
	Args: cobra.NoArgs,
	RunE: runLeagues,
}

func init() {
	leaguesCmd.Flags().Float64Var(&leaguesMinMinutes, "min-minutes", 0, "minimum minutes played (default from config)")
	leaguesCmd.Flags().BoolVar(&leaguesMultipliers, "multipliers", false, "also print the strength multiplier of each league")
}

func runLeagues(cmd *cobra.Command, args []string) error {
	minMinutes := cfg.MinMinutes
	if cmd.Flags().Changed("min-minutes") {
		minMinutes = leaguesMinMinutes
	}

	db, t, err := openDataset()
	if err != nil {
		return err
	}
	defer db.Close()

	styles, err := leagueStyles(t, minMinutes)
	if err != nil {
		return err
	}
	if len(styles) == 0 {
		fmt.Fprintf(os.Stdout, "No players with at least %.0f minutes.\n", minMinutes)
		return nil
	}
	fmt.Fprintln(os.Stdout)
	report.PrintLeagueStyles(os.Stdout, styles)

	if leaguesMultipliers {
		names := make([]string, len(styles))
		for i, s := range styles {
			names[i] = s.League
		}
		sort.Strings(names)
		fmt.Fprintln(os.Stdout)
		report.PrintLeagueMultipliers(os.Stdout, cfg.Multipliers(), names)
	}
	return nil
}

// leagueStyles normalizes the minutes-filtered population and summarizes
// team contexts per league.
func leagueStyles(t *model.Table, minMinutes float64) ([]contextnorm.LeagueStyle, error) {
	pop := t.Filter(func(r *model.PlayerRecord) bool {
		return model.IsKnown(r.Minutes) && r.Minutes >= minMinutes
	})
	teams, err := contextnorm.Normalize(pop, contextnorm.DefaultOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("team context: %w", err)
	}
	return contextnorm.SummarizeLeagues(teams), nil
}
