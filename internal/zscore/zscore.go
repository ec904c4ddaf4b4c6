// Package zscore standardizes metrics within each league.
//
// For metric M and league L the score is clip((M - mean_L(M)) / std_L(M), -3, 3)
// using the sample standard deviation. Leagues with fewer than two known
// values or zero spread score 0, as do rows whose value is unknown. A metric
// missing from the table scores 0 everywhere.
//
// A Scorer memoizes per (metric, league) and never recomputes a z column that
// already exists on the table, so stages that standardize overlapping metric
// sets all see the values computed the first time.
package zscore

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pable/go-scout-metrics/internal/model"
)

// Clip bounds every z-score to [-Clip, Clip].
const Clip = 3.0

// Prefix namespaces z-score columns.
const Prefix = "z_"

// Name returns the z-score column name for metric.
func Name(metric string) string { return Prefix + metric }

// LeagueStats is the cached mean and spread of one metric in one league.
type LeagueStats struct {
	Mean float64
	Std  float64
	N    int
}

// Usable reports whether the stats can standardize values.
func (s LeagueStats) Usable() bool {
	return s.N >= 2 && model.IsKnown(s.Std) && s.Std > 0
}

type key struct {
	metric string
	league string
}

// Scorer computes and caches league z-scores for one table over one run.
type Scorer struct {
	t     *model.Table
	stats map[key]LeagueStats
	done  map[string]bool
}

// New returns a Scorer bound to t.
func New(t *model.Table) *Scorer {
	return &Scorer{
		t:     t,
		stats: make(map[key]LeagueStats),
		done:  make(map[string]bool),
	}
}

// Ensure computes the z column of every metric that does not have one yet.
func (s *Scorer) Ensure(metrics ...string) {
	for _, m := range metrics {
		s.ensure(m)
	}
}

// Values returns the z-scores of metric, computing them on first use.
func (s *Scorer) Values(metric string) []float64 {
	s.ensure(metric)
	return s.t.Column(Name(metric))
}

// Computed reports whether metric has been standardized during this run.
func (s *Scorer) Computed(metric string) bool { return s.done[metric] }

// Stats returns the cached league stats for metric, if computed.
func (s *Scorer) Stats(metric, league string) (LeagueStats, bool) {
	st, ok := s.stats[key{metric, league}]
	return st, ok
}

func (s *Scorer) ensure(metric string) {
	if s.done[metric] {
		return
	}
	s.done[metric] = true
	if s.t.HasColumn(Name(metric)) {
		return
	}
	if !s.t.HasColumn(metric) {
		s.t.SetColumn(Name(metric), make([]float64, s.t.Len()))
		return
	}
	vals := s.t.Column(metric)
	leagues := s.t.Leagues()
	z, st := standardize(vals, leagues)
	for l, v := range st {
		s.stats[key{metric, l}] = v
	}
	s.t.SetColumn(Name(metric), z)
}

// Standardize returns per-league clipped z-scores of vals, where leagues[i]
// is the league of vals[i].
func Standardize(vals []float64, leagues []string) []float64 {
	z, _ := standardize(vals, leagues)
	return z
}

func standardize(vals []float64, leagues []string) ([]float64, map[string]LeagueStats) {
	byLeague := make(map[string][]int)
	for i, l := range leagues {
		byLeague[l] = append(byLeague[l], i)
	}
	names := make([]string, 0, len(byLeague))
	for l := range byLeague {
		names = append(names, l)
	}
	sort.Strings(names)

	out := make([]float64, len(vals))
	stats := make(map[string]LeagueStats, len(names))
	for _, l := range names {
		idx := byLeague[l]
		known := make([]float64, 0, len(idx))
		for _, i := range idx {
			if model.IsKnown(vals[i]) {
				known = append(known, vals[i])
			}
		}
		st := LeagueStats{N: len(known), Mean: math.NaN(), Std: math.NaN()}
		if len(known) > 0 {
			st.Mean = stat.Mean(known, nil)
		}
		if len(known) > 1 {
			st.Std = stat.StdDev(known, nil)
		}
		stats[l] = st
		if !st.Usable() {
			continue
		}
		for _, i := range idx {
			if !model.IsKnown(vals[i]) {
				continue
			}
			out[i] = clip((vals[i]-st.Mean)/st.Std, -Clip, Clip)
		}
	}
	return out, stats
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
