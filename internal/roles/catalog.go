package roles

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog maps role names to their configuration.
type Catalog map[string]RoleConfig

// Names returns the role names in sorted order.
func (c Catalog) Names() []string { return sortedKeys(c) }

// Get looks up a role case-insensitively.
func (c Catalog) Get(name string) (RoleConfig, bool) {
	if r, ok := c[name]; ok {
		return r, true
	}
	for k, r := range c {
		if strings.EqualFold(k, name) {
			return r, true
		}
	}
	return RoleConfig{}, false
}

// Matching returns the roles accepting any of the given canonical positions.
func (c Catalog) Matching(positions ...string) []RoleConfig {
	var out []RoleConfig
	for _, name := range c.Names() {
		if c[name].Accepts(positions...) {
			out = append(out, c[name])
		}
	}
	return out
}

// Validate compiles every role in the catalog.
func (c Catalog) Validate() error {
	for _, name := range c.Names() {
		if _, err := Compile(c[name]); err != nil {
			return err
		}
	}
	return nil
}

// Merge returns a copy of c with the roles of other replacing same-named ones.
func (c Catalog) Merge(other Catalog) Catalog {
	out := make(Catalog, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		if v.Name == "" {
			v.Name = k
		}
		out[k] = v
	}
	return out
}

// String summarises the catalog for logs.
func (c Catalog) String() string {
	names := c.Names()
	sort.Strings(names)
	return fmt.Sprintf("%d roles: %s", len(names), strings.Join(names, ", "))
}

// DefaultCatalog returns the built-in role definitions. Column names follow
// the season-total schema of the source dataset; *_adj columns are produced
// by context normalization and fall back to their raw counterpart through
// coalesce when normalization was skipped.
func DefaultCatalog() Catalog {
	return Catalog{
		"GK": {
			Name:        "GK",
			Description: "Goalkeeper: shot-stopping, box command and distribution",
			Positions:   []string{"GK"},
			Baseline: map[string]string{
				"save_pct":          "pct(saves, shots_on_target_against)",
				"psxg_minus_ga_p90": "per90(psxg_faced - goals_against, Minutes)",
				"cross_stop_pct":    "pct(crosses_stopped, crosses_faced)",
				"sweeper_p90":       "per90(sweeper_actions, Minutes)",
				"gk_pass_pct":       "pct(gk_passes_completed, gk_passes_attempted)",
				"long_pass_pct":     "pct(long_passes_completed, long_passes_attempted)",
				"errors_p90":        "per90(errors, Minutes)",
			},
			Indices: map[string]map[string]float64{
				"shot_stopping": {"save_pct": 0.5, "psxg_minus_ga_p90": 0.5},
				"command":       {"cross_stop_pct": 0.6, "sweeper_p90": 0.4},
				"distribution":  {"gk_pass_pct": 0.6, "long_pass_pct": 0.4},
				"reliability":   {"errors_p90": -0.7, "save_pct": 0.3},
			},
			Groups: map[string][]string{
				"shot_stopping": {"save_pct", "psxg_minus_ga_p90"},
				"command":       {"cross_stop_pct", "sweeper_p90"},
				"distribution":  {"gk_pass_pct", "long_pass_pct"},
			},
			Weights: map[string]float64{"shot_stopping": 0.6, "command": 0.2, "distribution": 0.2},
			Invert:  []string{"errors_p90"},
		},
		"CB": {
			Name:        "CB",
			Description: "Centre-back: duels, box defending and ball progression",
			Positions:   []string{"CB"},
			Baseline: map[string]string{
				"pass_pct":            "pct(passes_completed, passes_attempted)",
				"long_pass_pct":       "pct(long_passes_completed, long_passes_attempted)",
				"prog_passes_p90":     "per90(coalesce(passes_progressive_adj, passes_progressive), Minutes)",
				"prog_carries_p90":    "per90(coalesce(carries_progressive_adj, carries_progressive), Minutes)",
				"tackles_int_p90":     "per90(coalesce(tackles_adj, tackles) + coalesce(interceptions_adj, interceptions), Minutes)",
				"aerial_win_pct":      "pct(aerials_won, aerials_won + aerials_lost)",
				"clearances_p90":      "per90(clearances, Minutes)",
				"blocks_p90":          "per90(coalesce(blocks_adj, blocks), Minutes)",
				"errors_p90":          "per90(errors, Minutes)",
				"pressure_regain_pct": "pct(pressure_regains, pressures)",
			},
			Indices: map[string]map[string]float64{
				"defending":    {"tackles_int_p90": 0.35, "aerial_win_pct": 0.25, "clearances_p90": 0.2, "blocks_p90": 0.2},
				"ball_playing": {"pass_pct": 0.3, "prog_passes_p90": 0.4, "long_pass_pct": 0.3},
				"carrying":     {"prog_carries_p90": 1.0},
				"security":     {"errors_p90": -0.6, "pass_pct": 0.2, "pressure_regain_pct": 0.2},
			},
			Groups: map[string][]string{
				"defending":   {"tackles_int_p90", "aerial_win_pct", "clearances_p90", "blocks_p90"},
				"passing":     {"pass_pct", "long_pass_pct", "prog_passes_p90"},
				"progression": {"prog_carries_p90", "prog_passes_p90"},
			},
			Weights: map[string]float64{"defending": 0.45, "passing": 0.3, "progression": 0.25},
			Invert:  []string{"errors_p90"},
		},
		"FB": {
			Name:        "FB",
			Description: "Full-back / wing-back: width, crossing and recovery defending",
			Positions:   []string{"FB"},
			Baseline: map[string]string{
				"cross_pct":        "pct(crosses_completed, crosses_attempted)",
				"crosses_p90":      "per90(crosses_completed, Minutes)",
				"prog_carries_p90": "per90(coalesce(carries_progressive_adj, carries_progressive), Minutes)",
				"prog_passes_p90":  "per90(coalesce(passes_progressive_adj, passes_progressive), Minutes)",
				"xa_p90":           "per90(coalesce(xa_adj, xa), Minutes)",
				"tackles_int_p90":  "per90(coalesce(tackles_adj, tackles) + coalesce(interceptions_adj, interceptions), Minutes)",
				"pressures_p90":    "per90(coalesce(pressures_adj, pressures), Minutes)",
				"recoveries_p90":   "per90(coalesce(recoveries_adj, recoveries), Minutes)",
				"turnovers_p90":    "per90(coalesce(turnovers_adj, turnovers), Minutes)",
			},
			Indices: map[string]map[string]float64{
				"attacking":   {"crosses_p90": 0.3, "cross_pct": 0.2, "xa_p90": 0.5},
				"progression": {"prog_carries_p90": 0.5, "prog_passes_p90": 0.5},
				"defending":   {"tackles_int_p90": 0.5, "pressures_p90": 0.25, "recoveries_p90": 0.25},
				"security":    {"turnovers_p90": -1.0},
			},
			Groups: map[string][]string{
				"attacking":   {"crosses_p90", "cross_pct", "xa_p90"},
				"progression": {"prog_carries_p90", "prog_passes_p90"},
				"defending":   {"tackles_int_p90", "pressures_p90", "recoveries_p90"},
			},
			Weights: map[string]float64{"attacking": 0.3, "progression": 0.3, "defending": 0.4},
			Invert:  []string{"turnovers_p90"},
		},
		"CM": {
			Name:        "CM",
			Description: "Central / defensive midfielder: circulation, progression and ball winning",
			Positions:   []string{"CM", "DM"},
			Baseline: map[string]string{
				"pass_pct":            "pct(passes_completed, passes_attempted)",
				"passes_p90":          "per90(coalesce(passes_completed_adj, passes_completed), Minutes)",
				"prog_passes_p90":     "per90(coalesce(passes_progressive_adj, passes_progressive), Minutes)",
				"final_third_p90":     "per90(passes_final_third, Minutes)",
				"key_passes_p90":      "per90(coalesce(key_passes_adj, key_passes), Minutes)",
				"prog_carries_p90":    "per90(coalesce(carries_progressive_adj, carries_progressive), Minutes)",
				"tackles_int_p90":     "per90(coalesce(tackles_adj, tackles) + coalesce(interceptions_adj, interceptions), Minutes)",
				"pressures_p90":       "per90(coalesce(pressures_adj, pressures), Minutes)",
				"pressure_regain_pct": "pct(pressure_regains, pressures)",
				"turnovers_p90":       "per90(coalesce(turnovers_adj, turnovers), Minutes)",
			},
			Indices: map[string]map[string]float64{
				"circulation":  {"pass_pct": 0.5, "passes_p90": 0.5},
				"progression":  {"prog_passes_p90": 0.4, "final_third_p90": 0.3, "prog_carries_p90": 0.3},
				"creation":     {"key_passes_p90": 1.0},
				"ball_winning": {"tackles_int_p90": 0.5, "pressures_p90": 0.25, "pressure_regain_pct": 0.25},
				"security":     {"turnovers_p90": -0.7, "pass_pct": 0.3},
			},
			Groups: map[string][]string{
				"passing":     {"pass_pct", "passes_p90"},
				"progression": {"prog_passes_p90", "final_third_p90", "prog_carries_p90"},
				"creation":    {"key_passes_p90"},
				"defending":   {"tackles_int_p90", "pressures_p90", "pressure_regain_pct"},
			},
			Weights: map[string]float64{"passing": 0.25, "progression": 0.3, "creation": 0.15, "defending": 0.3},
			Invert:  []string{"turnovers_p90"},
		},
		"W": {
			Name:        "W",
			Description: "Winger / attacking midfielder: chance creation, dribbling and goal threat",
			Positions:   []string{"W", "AM"},
			Baseline: map[string]string{
				"npxg_p90":         "per90(coalesce(npxg_adj, npxg), Minutes)",
				"xa_p90":           "per90(coalesce(xa_adj, xa), Minutes)",
				"sca_p90":          "per90(coalesce(sca_adj, sca), Minutes)",
				"key_passes_p90":   "per90(coalesce(key_passes_adj, key_passes), Minutes)",
				"dribble_pct":      "pct(dribbles_completed, dribbles_attempted)",
				"dribbles_p90":     "per90(coalesce(dribbles_completed_adj, dribbles_completed), Minutes)",
				"prog_carries_p90": "per90(coalesce(carries_progressive_adj, carries_progressive), Minutes)",
				"box_touches_p90":  "per90(coalesce(touches_box_adj, touches_box), Minutes)",
				"turnovers_p90":    "per90(coalesce(turnovers_adj, turnovers), Minutes)",
			},
			Indices: map[string]map[string]float64{
				"creation":    {"xa_p90": 0.4, "sca_p90": 0.3, "key_passes_p90": 0.3},
				"dribbling":   {"dribble_pct": 0.4, "dribbles_p90": 0.4, "prog_carries_p90": 0.2},
				"goal_threat": {"npxg_p90": 0.7, "box_touches_p90": 0.3},
				"security":    {"turnovers_p90": -1.0},
			},
			Groups: map[string][]string{
				"creation":    {"xa_p90", "sca_p90", "key_passes_p90"},
				"dribbling":   {"dribble_pct", "dribbles_p90", "prog_carries_p90"},
				"goal_threat": {"npxg_p90", "box_touches_p90"},
			},
			Weights: map[string]float64{"creation": 0.4, "dribbling": 0.3, "goal_threat": 0.3},
			Invert:  []string{"turnovers_p90"},
		},
		"ST": {
			Name:        "ST",
			Description: "Striker: chance volume, finishing, link play and pressing",
			Positions:   []string{"ST"},
			Baseline: map[string]string{
				"npxg_p90":        "per90(coalesce(npxg_adj, npxg), Minutes)",
				"shots_p90":       "per90(coalesce(shots_adj, shots), Minutes)",
				"npxg_per_shot":   "safe_div(npxg, shots)",
				"sot_pct":         "pct(shots_on_target, shots)",
				"goals_p90":       "per90(coalesce(goals_adj, goals), Minutes)",
				"xa_p90":          "per90(coalesce(xa_adj, xa), Minutes)",
				"box_touches_p90": "per90(coalesce(touches_box_adj, touches_box), Minutes)",
				"aerial_win_pct":  "pct(aerials_won, aerials_won + aerials_lost)",
				"pressures_p90":   "per90(coalesce(pressures_adj, pressures), Minutes)",
			},
			Indices: map[string]map[string]float64{
				"volume":    {"npxg_p90": 0.5, "shots_p90": 0.25, "box_touches_p90": 0.25},
				"finishing": {"goals_p90": 0.5, "sot_pct": 0.25, "npxg_per_shot": 0.25},
				"link_play": {"xa_p90": 0.6, "aerial_win_pct": 0.4},
				"pressing":  {"pressures_p90": 1.0},
			},
			Groups: map[string][]string{
				"volume":    {"npxg_p90", "shots_p90", "box_touches_p90"},
				"finishing": {"goals_p90", "sot_pct", "npxg_per_shot"},
				"link_play": {"xa_p90", "aerial_win_pct"},
				"pressing":  {"pressures_p90"},
			},
			Weights: map[string]float64{"volume": 0.35, "finishing": 0.3, "link_play": 0.2, "pressing": 0.15},
		},
	}
}
