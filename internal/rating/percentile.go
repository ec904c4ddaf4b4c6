package rating

import (
	"sort"

	"github.com/pable/go-scout-metrics/internal/model"
)

// PercentileRank ranks every known value of vals on a 0-100 scale:
// pct = average_rank / n * 100, where n counts known values and tied values
// share the average of the ranks they span. Unknown values rank 0, and an
// empty or all-unknown input yields all zeros.
func PercentileRank(vals []float64) []float64 {
	out := make([]float64, len(vals))
	idx := make([]int, 0, len(vals))
	for i, v := range vals {
		if model.IsKnown(v) {
			idx = append(idx, i)
		}
	}
	n := len(idx)
	if n == 0 {
		return out
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })

	for lo := 0; lo < n; {
		hi := lo + 1
		for hi < n && vals[idx[hi]] == vals[idx[lo]] {
			hi++
		}
		// Ranks lo+1..hi share their mean.
		avg := float64(lo+1+hi) / 2
		pct := avg / float64(n) * 100
		for _, i := range idx[lo:hi] {
			out[i] = pct
		}
		lo = hi
	}
	return out
}
