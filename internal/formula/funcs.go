package formula

import (
	"math"
	"sort"
)

// Func is a named function callable from formulas.
type Func struct {
	MinArgs int
	MaxArgs int // -1 for variadic
	// AnyArg marks functions that can be computed when at least one argument
	// is resolvable (e.g. coalesce).
	AnyArg bool
	Apply  func(args []float64) float64
}

// Registry maps function names to their implementation.
type Registry map[string]Func

// Names returns the registered function names in sorted order.
func (r Registry) Names() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry holds the functions available to role formulas.
var DefaultRegistry = Registry{
	// safe_div(a, b): a / b, unknown when b <= 0.
	"safe_div": {MinArgs: 2, MaxArgs: 2, Apply: func(a []float64) float64 {
		return SafeDiv(a[0], a[1])
	}},
	// pct(part, whole): share of whole as a percentage.
	"pct": {MinArgs: 2, MaxArgs: 2, Apply: func(a []float64) float64 {
		return SafeDiv(a[0], a[1]) * 100
	}},
	// per90(total, minutes): per-90-minutes rate.
	"per90": {MinArgs: 2, MaxArgs: 2, Apply: func(a []float64) float64 {
		return SafeDiv(a[0]*90, a[1])
	}},
	"sum": {MinArgs: 1, MaxArgs: -1, Apply: func(a []float64) float64 {
		var s float64
		for _, v := range a {
			s += v
		}
		return s
	}},
	"mean": {MinArgs: 1, MaxArgs: -1, Apply: func(a []float64) float64 {
		var s float64
		for _, v := range a {
			s += v
		}
		return s / float64(len(a))
	}},
	"min": {MinArgs: 1, MaxArgs: -1, Apply: func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {MinArgs: 1, MaxArgs: -1, Apply: func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
	"abs": {MinArgs: 1, MaxArgs: 1, Apply: func(a []float64) float64 {
		return math.Abs(a[0])
	}},
	// nz(x): unknown becomes zero.
	"nz": {MinArgs: 1, MaxArgs: 1, Apply: func(a []float64) float64 {
		if math.IsNaN(a[0]) {
			return 0
		}
		return a[0]
	}},
	// coalesce(a, b, ...): first known argument. Resolvable when any
	// argument's columns exist, so context-adjusted columns can fall back to
	// their raw counterpart.
	"coalesce": {MinArgs: 1, MaxArgs: -1, AnyArg: true, Apply: func(a []float64) float64 {
		for _, v := range a {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				return v
			}
		}
		return math.NaN()
	}},
}
