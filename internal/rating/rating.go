// Package rating turns z-scored metrics into composite indices and the
// slider-weighted, league-adjusted Overall rating.
//
// Indices and Overall are separate passes: an index is the
// weighted sum of its metrics' z-scores, while Overall averages z-scores
// within each tactical group and combines groups by normalized weight. Both
// go through the same zscore.Scorer, so a metric standardized for an index
// is reused as-is by Overall.
package rating

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/roles"
	"github.com/pable/go-scout-metrics/internal/zscore"
)

// Overall columns.
const (
	ColOverallRaw       = "overall_raw"
	ColOverallAdj       = "overall_adj"
	ColOverallPct       = "overall_pct"
	ColOverallPctGlobal = "overall_pct_global"
)

// IndexPrefix namespaces composite index columns.
const IndexPrefix = "idx_"

// IndexName returns the column holding index name.
func IndexName(name string) string { return IndexPrefix + name }

// IndexPctName returns the column holding the percentile of index name.
func IndexPctName(name string) string { return IndexPrefix + name + "_pct" }

// ComputeIndices writes idx_<name> and idx_<name>_pct for every index of the
// role. Metrics missing from the table contribute zero.
func ComputeIndices(t *model.Table, z *zscore.Scorer, role roles.RoleConfig, log logrus.FieldLogger) {
	for _, name := range role.IndexNames() {
		weights := role.Indices[name]
		vals := make([]float64, t.Len())
		for _, m := range sortedMetrics(weights) {
			if !t.HasColumn(m) && !t.HasColumn(zscore.Name(m)) {
				log.WithFields(logrus.Fields{"index": name, "metric": m}).Debug("index metric missing, contributes zero")
			}
			floats.AddScaled(vals, weights[m], z.Values(m))
		}
		t.SetColumn(IndexName(name), vals)
		t.SetColumn(IndexPctName(name), PercentileRank(vals))
	}
}

// NormalizeWeights multiplies each base group weight by its slider (default
// 1) and rescales the result to sum to 1. Slider keys naming no group are
// ignored, as are non-positive sliders.
func NormalizeWeights(base, sliders map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base))
	var total float64
	for g, w := range base {
		s, ok := sliders[g]
		if !ok || !(s > 0) || math.IsInf(s, 0) {
			s = 1
		}
		out[g] = w * s
		total += out[g]
	}
	if total <= 0 {
		for g := range out {
			out[g] = 1 / float64(len(out))
		}
		return out
	}
	for g := range out {
		out[g] /= total
	}
	return out
}

// GroupAggregate returns, per row, the mean z-score of the group's members.
// An empty group aggregates to zero.
func GroupAggregate(z *zscore.Scorer, n int, members []string) []float64 {
	out := make([]float64, n)
	if len(members) == 0 {
		return out
	}
	for _, m := range members {
		floats.Add(out, z.Values(m))
	}
	floats.Scale(1/float64(len(members)), out)
	return out
}

// ComputeOverall writes overall_raw, overall_adj, overall_pct and
// overall_pct_global, and returns the normalized group weights it used. Only
// weights of the role's groups take part, so the returned weights sum to 1.
// The global percentile is the pre-budget snapshot of overall_pct.
func ComputeOverall(t *model.Table, z *zscore.Scorer, role roles.RoleConfig, sliders map[string]float64, mult LeagueMultipliers) map[string]float64 {
	base := make(map[string]float64, len(role.Groups))
	for _, g := range role.GroupNames() {
		base[g] = role.Weights[g]
	}
	weights := NormalizeWeights(base, sliders)

	raw := make([]float64, t.Len())
	for _, g := range role.GroupNames() {
		floats.AddScaled(raw, weights[g], GroupAggregate(z, t.Len(), role.Groups[g]))
	}
	adj := make([]float64, t.Len())
	for i, r := range t.Rows {
		adj[i] = raw[i] * mult.Lookup(r.League)
	}
	pct := PercentileRank(adj)

	t.SetColumn(ColOverallRaw, raw)
	t.SetColumn(ColOverallAdj, adj)
	t.SetColumn(ColOverallPct, pct)
	t.SetColumn(ColOverallPctGlobal, append([]float64(nil), pct...))
	return weights
}

// RefreshPercentile recomputes overall_pct over the current rows, leaving
// overall_pct_global untouched.
func RefreshPercentile(t *model.Table) {
	t.SetColumn(ColOverallPct, PercentileRank(t.Column(ColOverallAdj)))
}

func sortedMetrics(w map[string]float64) []string {
	out := make([]string, 0, len(w))
	for k := range w {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
