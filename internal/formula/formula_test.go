package formula

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-scout-metrics/internal/model"
)

type mapRow map[string]float64

func (m mapRow) Get(c string) (float64, bool) {
	v, ok := m[c]
	return v, ok
}

func TestParseAndEval(t *testing.T) {
	row := mapRow{"a": 6, "b": 3, "Minutes": 1800, "Pass Cmp%": 81.5}

	cases := []struct {
		src  string
		want float64
	}{
		{"a + b * 2", 12},
		{"(a + b) * 2", 18},
		{"a / b", 2},
		{"-a + 10", 4},
		{"a - -b", 9},
		{"pct(b, a)", 50},
		{"per90(a, Minutes)", 0.3},
		{"sum(a, b, 1)", 10},
		{"mean(a, b)", 4.5},
		{"min(a, b)", 3},
		{"max(a, b)", 6},
		{"abs(b - a)", 3},
		{"`Pass Cmp%` / 100", 0.815},
		{"1.5e1", 15},
	}
	for _, tc := range cases {
		e, err := Parse(tc.src)
		require.NoError(t, err, tc.src)
		assert.InDelta(t, tc.want, e.Eval(row), 1e-9, tc.src)
	}
}

// TestSafeDivision: a non-positive denominator yields unknown, never Inf.
func TestSafeDivision(t *testing.T) {
	row := mapRow{"a": 5, "zero": 0, "neg": -2}
	for _, src := range []string{"a / zero", "a / neg", "safe_div(a, zero)", "pct(a, zero)", "per90(a, zero)"} {
		e := MustParse(src)
		assert.True(t, math.IsNaN(e.Eval(row)), src)
	}
}

func TestCoalesceFallsBack(t *testing.T) {
	e := MustParse("coalesce(tackles_adj, tackles)")
	assert.Equal(t, 4.0, e.Eval(mapRow{"tackles": 4}))
	assert.Equal(t, 3.0, e.Eval(mapRow{"tackles": 4, "tackles_adj": 3}))

	has := func(c string) bool { return c == "tackles" }
	assert.True(t, e.Resolvable(has))
	assert.False(t, MustParse("tackles_adj + 1").Resolvable(has))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("a +")
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = Parse("(a + b")
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = Parse("explode(a)")
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, err = Parse("pct(a)")
	assert.ErrorIs(t, err, ErrSyntax)

	_, err = Parse("a $ b")
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestColumnsListsReferences(t *testing.T) {
	e := MustParse("per90(coalesce(x_adj, x) + y, Minutes) / y")
	assert.Equal(t, []string{"x_adj", "x", "y", "Minutes"}, Columns(e))
}

func TestApply(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{
		{ID: "1", Minutes: 900, Stats: map[string]float64{"passes_completed": 80, "passes_attempted": 100}},
		{ID: "2", Minutes: 900, Stats: map[string]float64{"passes_completed": 0, "passes_attempted": 0}},
	})

	require.NoError(t, Apply(tbl, "pass_pct", MustParse("pct(passes_completed, passes_attempted)")))
	require.True(t, tbl.HasColumn("pass_pct"))
	vals := tbl.Column("pass_pct")
	assert.InDelta(t, 80, vals[0], 1e-9)
	assert.True(t, math.IsNaN(vals[1]))

	err := Apply(tbl, "shots_p90", MustParse("per90(shots, Minutes)"))
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.False(t, tbl.HasColumn("shots_p90"))
}
