package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/pipeline"
	"github.com/pable/go-scout-metrics/internal/report"
	"github.com/pable/go-scout-metrics/internal/storage"
)

var (
	scoreRole       string
	scoreBudget     float64
	scoreMinMinutes float64
	scoreSliders    []string
	scoreTop        int
	scoreSave       bool
	scoreTimings    bool
	scoreNoBudget   bool
	scoreFocus      string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score and rank players for a role",
	Long: `Run the scoring pipeline over the stored dataset for one role and print the
ranking by buy score.

Stages: minutes filter, team context normalization, role filter, baseline
metrics, indices, overall, buy score, budget cut.

Example:
  scoutmetrics score --role CB --budget 15 --slider defending=1.5 --top 20 --save`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreRole, "role", "", "role to score (default from config)")
	scoreCmd.Flags().Float64Var(&scoreBudget, "budget", 0, "maximum market value in millions (default from config)")
	scoreCmd.Flags().Float64Var(&scoreMinMinutes, "min-minutes", 0, "minimum minutes played (default from config)")
	scoreCmd.Flags().StringArrayVar(&scoreSliders, "slider", nil, "group weight multiplier, e.g. --slider passing=1.5 (repeatable)")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 0, "rows to print, 0 for all (default from config)")
	scoreCmd.Flags().BoolVar(&scoreSave, "save", false, "store the run in the database")
	scoreCmd.Flags().BoolVar(&scoreTimings, "timings", false, "print per-stage timings")
	scoreCmd.Flags().BoolVar(&scoreNoBudget, "no-budget", false, "skip the budget cut")
	scoreCmd.Flags().StringVar(&scoreFocus, "player", "", "highlight a player ID")
}

func runScore(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	p := pipeline.DefaultParams(cfg.Role)
	p.MinMinutes = cfg.MinMinutes
	p.Budget = cfg.Budget
	p.NoBudget = scoreNoBudget
	top := cfg.Top
	if flags.Changed("role") {
		p.Role = scoreRole
	}
	if flags.Changed("budget") {
		p.Budget = scoreBudget
	}
	if flags.Changed("min-minutes") {
		p.MinMinutes = scoreMinMinutes
	}
	if flags.Changed("top") {
		top = scoreTop
	}
	if !p.NoBudget && !(p.Budget > 0) {
		return fmt.Errorf("budget must be > 0, got %g", p.Budget)
	}
	sliders, err := parseSliders(scoreSliders, cfg.Sliders)
	if err != nil {
		return err
	}
	p.Sliders = sliders

	db, t, err := openDataset()
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := newEngine(nil)
	if err != nil {
		return err
	}
	res, err := engine.Run(t, p)
	if err != nil {
		return err
	}

	scored := res.Scored()
	run := runRecord(res, len(scored))
	if scoreSave {
		id, err := db.SaveRun(run, scored)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		run.ID = id
	}

	report.PrintRunHeader(os.Stdout, run)
	report.PrintRanking(os.Stdout, scored, top, scoreFocus)
	if scoreTimings {
		fmt.Fprintln(os.Stdout)
		report.PrintTimings(os.Stdout, res.Timings)
	}
	if scoreSave {
		fmt.Fprintf(os.Stdout, "\nSaved run %s\n", run.ID)
	}
	return nil
}

// newEngine builds a pipeline engine from the loaded configuration.
func newEngine(tel *pipeline.Telemetry) (*pipeline.Engine, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return pipeline.New(
		pipeline.WithCatalog(catalog),
		pipeline.WithAliases(cfg.Aliases()),
		pipeline.WithLeagueMultipliers(cfg.Multipliers()),
		pipeline.WithLogger(logger),
		pipeline.WithTelemetry(tel),
	), nil
}

// openDataset opens the database and loads the imported dataset. The caller
// closes the returned DB.
func openDataset() (*storage.DB, *model.Table, error) {
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	t, err := db.LoadDataset()
	if errors.Is(err, storage.ErrNoDataset) {
		db.Close()
		return nil, nil, fmt.Errorf("%w: run 'scoutmetrics import <players.csv>' first", err)
	}
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	return db, t, nil
}

func runRecord(res *pipeline.Result, players int) model.ScoreRun {
	role := res.Role.Name
	if role == "" {
		role = res.Params.Role
	}
	return model.ScoreRun{
		Role:       role,
		MinMinutes: res.Params.MinMinutes,
		Budget:     res.Params.Budget,
		Sliders:    res.Params.Sliders,
		Players:    players,
	}
}

// parseSliders reads group=multiplier pairs on top of base.
func parseSliders(pairs []string, base map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(base)+len(pairs))
	for k, v := range base {
		out[k] = v
	}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid slider %q: want group=multiplier", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || !(f > 0) {
			return nil, fmt.Errorf("invalid slider %q: multiplier must be a positive number", pair)
		}
		out[strings.TrimSpace(k)] = f
	}
	return out, nil
}
