package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/storage"
)

var (
	exportOut     string
	exportPlayers string
	exportTop     int
)

// runExport is the top-level JSON schema of an exported run. Unknown values
// are written as null.
type runExport struct {
	RunID       string             `json:"run_id"`
	Role        string             `json:"role"`
	CreatedAt   string             `json:"created_at"`
	MinMinutes  float64            `json:"min_minutes"`
	Budget      float64            `json:"budget_m"`
	Sliders     map[string]float64 `json:"sliders"`
	GeneratedAt string             `json:"generated_at"`
	Leagues     []leagueExport     `json:"leagues"`
	Players     []playerExport     `json:"players"`
}

type leagueExport struct {
	League      string   `json:"league"`
	Players     int      `json:"players"`
	AvgBuyScore float64  `json:"avg_buy_score"`
	MaxBuyScore float64  `json:"max_buy_score"`
	AvgOverall  float64  `json:"avg_overall_pct"`
	AvgValueM   *float64 `json:"avg_value_m"`
}

type playerExport struct {
	Rank             int                 `json:"rank"`
	ID               string              `json:"id"`
	Season           string              `json:"season,omitempty"`
	Name             string              `json:"name"`
	Team             string              `json:"team"`
	League           string              `json:"league"`
	Position         string              `json:"position"`
	Age              *float64            `json:"age"`
	Minutes          *float64            `json:"minutes"`
	Value            string              `json:"value"`
	ValueM           *float64            `json:"value_m"`
	OverallRaw       *float64            `json:"overall_raw"`
	OverallAdj       *float64            `json:"overall_adj"`
	OverallPct       *float64            `json:"overall_pct"`
	OverallPctGlobal *float64            `json:"overall_pct_global"`
	ValueEff         *float64            `json:"value_eff"`
	AgePremium       *float64            `json:"age_premium"`
	Reliability      *float64            `json:"reliability"`
	Sustainability   *float64            `json:"sustainability"`
	BuyScore         *float64            `json:"buy_score"`
	Indices          map[string]indexOut `json:"indices,omitempty"`
}

type indexOut struct {
	Value *float64 `json:"value"`
	Pct   *float64 `json:"pct"`
}

var exportCmd = &cobra.Command{
	Use:   "export <run-prefix>",
	Short: "Export a stored run as JSON",
	Long: `Write a stored scoring run as JSON for presentation layers: run parameters,
per-league aggregates and the ranked players with every component score and
index. Unknown values are written as null.

Example:
  scoutmetrics export 3f2a --top 50 --out cb-shortlist.json
  scoutmetrics export 3f2a --players p101,p202`,
	Args: cobra.ExactArgs(1),
	RunE: runExportRun,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default: stdout)")
	exportCmd.Flags().StringVar(&exportPlayers, "players", "", "comma-separated player IDs to include (default: all)")
	exportCmd.Flags().IntVar(&exportTop, "top", 0, "only the first N ranked players, 0 for all")
}

func runExportRun(_ *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with ID prefix %q", args[0])
	}
	scored, err := db.GetRunScores(run.ID)
	if err != nil {
		return fmt.Errorf("get run scores: %w", err)
	}
	leagues, err := db.RunLeagueSummary(run.ID)
	if err != nil {
		return fmt.Errorf("get league summary: %w", err)
	}

	out := buildExport(*run, scored, leagues, splitIDs(exportPlayers), exportTop)
	out.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	if exportOut == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(exportOut, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d players)\n", exportOut, len(out.Players))
	return nil
}

// buildExport converts a stored run to its JSON form. ids, when non-empty,
// restricts players; top applies to rank, before the ID filter.
func buildExport(run model.ScoreRun, scored []model.ScoredPlayer, leagues []storage.LeagueRunStats, ids []string, top int) runExport {
	out := runExport{
		RunID:      run.ID,
		Role:       run.Role,
		CreatedAt:  run.CreatedAt.UTC().Format(time.RFC3339),
		MinMinutes: run.MinMinutes,
		Budget:     run.Budget,
		Sliders:    run.Sliders,
		Leagues:    make([]leagueExport, 0, len(leagues)),
		Players:    make([]playerExport, 0, len(scored)),
	}
	for _, l := range leagues {
		le := leagueExport{
			League:      l.League,
			Players:     l.Players,
			AvgBuyScore: roundTo4dp(l.AvgBuyScore),
			MaxBuyScore: roundTo4dp(l.MaxBuyScore),
			AvgOverall:  roundTo4dp(l.AvgOverall),
		}
		if l.Priced > 0 {
			le.AvgValueM = optional(l.AvgValueM)
		}
		out.Leagues = append(out.Leagues, le)
	}

	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for i, p := range scored {
		if top > 0 && i >= top {
			break
		}
		if len(keep) > 0 && !keep[p.PlayerID] {
			continue
		}
		pe := playerExport{
			Rank:             i + 1,
			ID:               p.PlayerID,
			Season:           p.Season,
			Name:             p.Name,
			Team:             p.Team,
			League:           p.League,
			Position:         p.Position,
			Age:              optional(p.Age),
			Minutes:          optional(p.Minutes),
			Value:            p.Value,
			ValueM:           optional(p.ValueM),
			OverallRaw:       optional(p.OverallRaw),
			OverallAdj:       optional(p.OverallAdj),
			OverallPct:       optional(p.OverallPct),
			OverallPctGlobal: optional(p.OverallPctGlobal),
			ValueEff:         optional(p.ValueEff),
			AgePremium:       optional(p.AgePremium),
			Reliability:      optional(p.Reliability),
			Sustainability:   optional(p.Sustainability),
			BuyScore:         optional(p.BuyScore),
		}
		if len(p.Indices) > 0 {
			pe.Indices = make(map[string]indexOut, len(p.Indices))
			for _, ix := range p.Indices {
				pe.Indices[ix.Name] = indexOut{Value: optional(ix.Value), Pct: optional(ix.Pct)}
			}
		}
		out.Players = append(out.Players, pe)
	}
	return out
}

func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// optional rounds v for output and maps unknown values to nil.
func optional(v float64) *float64 {
	if !model.IsKnown(v) {
		return nil
	}
	r := roundTo4dp(v)
	return &r
}

func roundTo4dp(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
