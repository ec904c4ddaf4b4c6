// Package contextnorm removes team-environment bias from raw player
// statistics.
//
// Each (League, Team) gets a TeamContext: minute-weighted means of one
// representative statistic per environment class (possession, pressing,
// tempo, attacking xG) over the full, role-agnostic roster. Every metric of a
// class is then rescaled by clip(league_mean / team_context, 0.5, 1.5) into a
// "<metric>_adj" column. The raw column is never touched.
package contextnorm

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/pable/go-scout-metrics/internal/model"
)

// ErrMissingIdentity is returned when League, Team or Minutes is absent.
var ErrMissingIdentity = errors.New("missing identity column")

// AdjSuffix names context-adjusted columns.
const AdjSuffix = "_adj"

// AdjName returns the context-adjusted column name for metric.
func AdjName(metric string) string { return metric + AdjSuffix }

// Context columns joined onto every player row.
const (
	ColPossession = "ctx_possession"
	ColPressing   = "ctx_pressing"
	ColTempo      = "ctx_tempo"
	ColAttack     = "ctx_attack"
	ColDefence    = "ctx_defence"
	ColXGDiff     = "ctx_xg_diff"
)

// Finishing differential columns.
const (
	ColGoalsMinusXG   = "goals_minus_xg"
	ColAssistsMinusXA = "assists_minus_xa"
)

// Class is one environment class: the representative statistic that
// measures the team environment and the metrics it confounds.
type Class struct {
	Name           string
	Column         string // context column written on every row
	Representative string
	Metrics        []string
}

// Options configures the normalizer.
type Options struct {
	Classes []Class
	// Defence is the defensive-xG representative; optional.
	Defence string

	ClipLow  float64
	ClipHigh float64
	// Epsilon is the minimum spread of team context values below which a
	// league's context is treated as flat.
	Epsilon float64

	Goals, XG, Assists, XA string
}

// DefaultOptions returns the environment classes of the season-total schema.
func DefaultOptions() Options {
	return Options{
		Classes: []Class{
			{
				Name: "possession", Column: ColPossession, Representative: "passes_open_play",
				Metrics: []string{"passes_completed", "passes_progressive", "carries_progressive", "key_passes"},
			},
			{
				Name: "pressing", Column: ColPressing, Representative: "pressures",
				Metrics: []string{"pressures", "tackles", "interceptions", "recoveries", "blocks"},
			},
			{
				Name: "tempo", Column: ColTempo, Representative: "turnovers",
				Metrics: []string{"turnovers", "dribbles_completed", "carries"},
			},
			{
				Name: "attack", Column: ColAttack, Representative: "npxg",
				Metrics: []string{"npxg", "xa", "shots", "goals", "assists", "sca", "touches_box"},
			},
		},
		Defence:  "npxg_against",
		ClipLow:  0.5,
		ClipHigh: 1.5,
		Epsilon:  1e-6,
		Goals:    "goals",
		XG:       "npxg",
		Assists:  "assists",
		XA:       "xa",
	}
}

// TeamContext is the environment aggregate of one team.
type TeamContext struct {
	League  string
	Team    string
	Players int
	Minutes float64

	// Values holds the context value per class name, plus "defence" and
	// "xg_diff" when available. Unknown when the representative is missing.
	Values map[string]float64
}

// Value returns the context value of a class, or Unknown.
func (tc TeamContext) Value(class string) float64 {
	if v, ok := tc.Values[class]; ok {
		return v
	}
	return model.Unknown
}

type teamKey struct{ league, team string }

// Normalize computes team contexts over t, joins them onto every row and
// writes context-adjusted columns. It must run on the full table before any
// role filtering. Missing source columns are skipped; a missing League, Team
// or Minutes identity column is an error.
func Normalize(t *model.Table, opts Options, log logrus.FieldLogger) ([]TeamContext, error) {
	for _, c := range []string{model.ColLeague, model.ColTeam, model.ColMinutes} {
		if !t.HasIdentity(c) {
			return nil, fmt.Errorf("context normalization: %w: %s", ErrMissingIdentity, c)
		}
	}

	groups := make(map[teamKey][]int)
	var keys []teamKey
	for i, r := range t.Rows {
		k := teamKey{r.League, r.Team}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].league != keys[j].league {
			return keys[i].league < keys[j].league
		}
		return keys[i].team < keys[j].team
	})

	teams := make(map[teamKey]*TeamContext, len(keys))
	for _, k := range keys {
		tc := &TeamContext{League: k.league, Team: k.team, Values: make(map[string]float64)}
		for _, i := range groups[k] {
			tc.Players++
			tc.Minutes += t.Rows[i].Minutes
		}
		teams[k] = tc
	}

	for _, cl := range opts.Classes {
		if !t.HasColumn(cl.Representative) {
			log.WithFields(logrus.Fields{"class": cl.Name, "column": cl.Representative}).
				Debug("context representative missing, class skipped")
			continue
		}
		fillContext(t, groups, keys, teams, cl.Name, cl.Representative)
		joinContext(t, groups, keys, teams, cl.Column, cl.Name)
		normalizeClass(t, groups, keys, teams, cl, opts, log)
	}

	if opts.Defence != "" && t.HasColumn(opts.Defence) {
		fillContext(t, groups, keys, teams, "defence", opts.Defence)
		joinContext(t, groups, keys, teams, ColDefence, "defence")
		for _, k := range keys {
			tc := teams[k]
			tc.Values["xg_diff"] = tc.Value("attack") - tc.Value("defence")
		}
		joinContext(t, groups, keys, teams, ColXGDiff, "xg_diff")
	}

	finishingDiff(t, ColGoalsMinusXG, opts.Goals, opts.XG)
	finishingDiff(t, ColAssistsMinusXA, opts.Assists, opts.XA)

	out := make([]TeamContext, 0, len(keys))
	for _, k := range keys {
		out = append(out, *teams[k])
	}
	return out, nil
}

// fillContext stores the minute-weighted mean of col per team.
func fillContext(t *model.Table, groups map[teamKey][]int, keys []teamKey, teams map[teamKey]*TeamContext, class, col string) {
	for _, k := range keys {
		var xs, ws []float64
		for _, i := range groups[k] {
			r := t.Rows[i]
			v, ok := r.Get(col)
			if !ok || !model.IsKnown(v) || r.Minutes <= 0 {
				continue
			}
			xs = append(xs, v)
			ws = append(ws, r.Minutes)
		}
		v := model.Unknown
		if len(xs) > 0 {
			v = stat.Mean(xs, ws)
		}
		teams[k].Values[class] = v
	}
}

func joinContext(t *model.Table, groups map[teamKey][]int, keys []teamKey, teams map[teamKey]*TeamContext, col, class string) {
	vals := make([]float64, t.Len())
	for _, k := range keys {
		v := teams[k].Value(class)
		for _, i := range groups[k] {
			vals[i] = v
		}
	}
	t.SetColumn(col, vals)
}

// normalizeClass writes <metric>_adj for every metric of the class. Leagues
// whose team contexts are flat get factor 1; when no league has spread the
// class is skipped entirely and only raw columns exist.
func normalizeClass(t *model.Table, groups map[teamKey][]int, keys []teamKey, teams map[teamKey]*TeamContext, cl Class, opts Options, log logrus.FieldLogger) {
	byLeague := make(map[string][]float64)
	for _, k := range keys {
		if v := teams[k].Value(cl.Name); model.IsKnown(v) {
			byLeague[k.league] = append(byLeague[k.league], v)
		}
	}
	leagueMean := make(map[string]float64, len(byLeague))
	spread := make(map[string]bool, len(byLeague))
	anySpread := false
	for l, vs := range byLeague {
		leagueMean[l] = stat.Mean(vs, nil)
		if len(vs) > 1 && stat.StdDev(vs, nil) >= opts.Epsilon {
			spread[l] = true
			anySpread = true
		}
	}
	if !anySpread {
		log.WithField("class", cl.Name).Debug("team context has no spread, normalization skipped")
		return
	}

	factor := make(map[teamKey]float64, len(keys))
	for _, k := range keys {
		f := 1.0
		if spread[k.league] {
			f = Factor(leagueMean[k.league], teams[k].Value(cl.Name), opts.ClipLow, opts.ClipHigh)
		}
		factor[k] = f
	}

	for _, m := range cl.Metrics {
		if !t.HasColumn(m) {
			log.WithFields(logrus.Fields{"class": cl.Name, "metric": m}).Debug("metric missing, not normalized")
			continue
		}
		vals := make([]float64, t.Len())
		for _, k := range keys {
			f := factor[k]
			for _, i := range groups[k] {
				raw, ok := t.Rows[i].Get(m)
				if !ok {
					raw = model.Unknown
				}
				vals[i] = raw * f
			}
		}
		t.SetColumn(AdjName(m), vals)
	}
}

// Factor returns clip(leagueMean/teamContext, lo, hi), or 1 when the team
// context is zero or unknown.
func Factor(leagueMean, teamContext, lo, hi float64) float64 {
	if !model.IsKnown(teamContext) || teamContext == 0 || !model.IsKnown(leagueMean) {
		return 1
	}
	return math.Max(lo, math.Min(hi, leagueMean/teamContext))
}

// finishingDiff writes actual minus expected, preferring context-adjusted
// inputs, when both inputs exist.
func finishingDiff(t *model.Table, name, actual, expected string) {
	a, e := preferAdjusted(t, actual), preferAdjusted(t, expected)
	if a == "" || e == "" {
		return
	}
	av, ev := t.Column(a), t.Column(e)
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = av[i] - ev[i]
	}
	t.SetColumn(name, out)
}

func preferAdjusted(t *model.Table, col string) string {
	if col == "" {
		return ""
	}
	if t.HasColumn(AdjName(col)) {
		return AdjName(col)
	}
	if t.HasColumn(col) {
		return col
	}
	return ""
}
