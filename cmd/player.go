package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/pipeline"
	"github.com/pable/go-scout-metrics/internal/report"
)

var (
	playerRole       string
	playerSeason     string
	playerMinMinutes float64
	playerHistory    bool
)

// errAmbiguousSeason is returned when a player ID has several seasons in the
// dataset and none was chosen.
var errAmbiguousSeason = errors.New("player has several seasons")

// playerCmd scores one player under every role their positions qualify for.
var playerCmd = &cobra.Command{
	Use:   "player <player-id>",
	Short: "Score one player under every matching role",
	Long: `Score a player under every role whose positions match the player's canonical
positions. No budget cut is applied, so the overall percentile is against the
full role population. Use --role to print the index breakdown for one role and
--history to list the player's appearances in stored runs. When the dataset
holds several seasons of the player, pick one with --season.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().StringVar(&playerRole, "role", "", "print the index breakdown for this role")
	playerCmd.Flags().StringVar(&playerSeason, "season", "", "season to score when the player has several")
	playerCmd.Flags().Float64Var(&playerMinMinutes, "min-minutes", 0, "minimum minutes for the comparison population (default from config)")
	playerCmd.Flags().BoolVar(&playerHistory, "history", false, "also list stored runs that ranked this player")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	id := args[0]
	minMinutes := cfg.MinMinutes
	if cmd.Flags().Changed("min-minutes") {
		minMinutes = playerMinMinutes
	}

	db, t, err := openDataset()
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := newEngine(nil)
	if err != nil {
		return err
	}
	scores, err := scorePlayer(engine, t, id, playerSeason, minMinutes)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Fprintf(os.Stderr, "Player %s has no scorable role (positions or minutes below %.0f)\n", id, minMinutes)
		return nil
	}

	fmt.Fprintln(os.Stdout)
	report.PrintPlayerRoles(os.Stdout, scores)

	if playerRole != "" {
		rc, ok := engine.Catalog().Get(playerRole)
		if !ok {
			return fmt.Errorf("%w: %q", pipeline.ErrUnknownRole, playerRole)
		}
		sp, ok := scores[rc.Name]
		if !ok {
			fmt.Fprintf(os.Stderr, "Player %s is not eligible for role %s\n", id, rc.Name)
		} else {
			report.PrintPlayerDetail(os.Stdout, rc.Name, sp)
		}
	}

	if playerHistory {
		return printHistory(db, id)
	}
	return nil
}

// scorePlayer runs every role matching the player-season's positions and
// returns its scored record per role name. An empty season matches any season
// but fails with errAmbiguousSeason when more than one exists.
func scorePlayer(engine *pipeline.Engine, t *model.Table, id, season string, minMinutes float64) (map[string]model.ScoredPlayer, error) {
	var matches []*model.PlayerRecord
	for _, r := range t.Rows {
		if r.ID == id && (season == "" || r.Season == season) {
			matches = append(matches, r)
		}
	}
	switch {
	case len(matches) == 0 && season != "":
		return nil, fmt.Errorf("player %q season %q not found in dataset", id, season)
	case len(matches) == 0:
		return nil, fmt.Errorf("player %q not found in dataset", id)
	case len(matches) > 1:
		seasons := make([]string, len(matches))
		for i, r := range matches {
			seasons[i] = r.Season
		}
		return nil, fmt.Errorf("%w: %s has %s; pass a season", errAmbiguousSeason, id, strings.Join(seasons, ", "))
	}
	rec := matches[0]

	var canon []string
	for _, p := range rec.Positions() {
		canon = append(canon, engine.Aliases().Canonical(p))
	}
	logger.WithField("positions", strings.Join(canon, ",")).Debug("canonical positions")

	out := make(map[string]model.ScoredPlayer)
	for _, rc := range engine.Catalog().Matching(canon...) {
		p := pipeline.DefaultParams(rc.Name)
		p.MinMinutes = minMinutes
		p.Sliders = cfg.Sliders
		p.NoBudget = true
		res, err := engine.Run(t, p)
		if err != nil {
			return nil, err
		}
		for _, sp := range res.Scored() {
			if sp.PlayerID == id && sp.Season == rec.Season {
				out[rc.Name] = sp
				break
			}
		}
	}
	return out, nil
}
