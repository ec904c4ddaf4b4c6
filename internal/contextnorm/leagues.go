package contextnorm

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pable/go-scout-metrics/internal/model"
)

// LeagueStyle summarises the team environments of one league.
type LeagueStyle struct {
	League string
	Teams  int
	// Means holds the mean team context per class name.
	Means map[string]float64
	// Ranks holds the 1-based rank of the league per class (1 = highest).
	Ranks map[string]int
}

// StyleClasses are the context values ranked across leagues.
var StyleClasses = []string{"possession", "pressing", "tempo", "attack", "xg_diff"}

// SummarizeLeagues aggregates team contexts into league-level style means and
// ranks leagues against each other for every style class. It works on the
// full population so rankings do not depend on any role filter.
func SummarizeLeagues(teams []TeamContext) []LeagueStyle {
	byLeague := make(map[string][]TeamContext)
	for _, tc := range teams {
		byLeague[tc.League] = append(byLeague[tc.League], tc)
	}
	out := make([]LeagueStyle, 0, len(byLeague))
	for league, tcs := range byLeague {
		ls := LeagueStyle{League: league, Teams: len(tcs), Means: make(map[string]float64), Ranks: make(map[string]int)}
		for _, class := range StyleClasses {
			var vs []float64
			for _, tc := range tcs {
				if v := tc.Value(class); model.IsKnown(v) {
					vs = append(vs, v)
				}
			}
			ls.Means[class] = model.Unknown
			if len(vs) > 0 {
				ls.Means[class] = stat.Mean(vs, nil)
			}
		}
		out = append(out, ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].League < out[j].League })

	for _, class := range StyleClasses {
		idx := make([]int, 0, len(out))
		for i := range out {
			if model.IsKnown(out[i].Means[class]) {
				idx = append(idx, i)
			}
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return out[idx[a]].Means[class] > out[idx[b]].Means[class]
		})
		for rank, i := range idx {
			out[i].Ranks[class] = rank + 1
		}
	}
	return out
}
