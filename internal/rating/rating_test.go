package rating

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/roles"
	"github.com/pable/go-scout-metrics/internal/zscore"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPercentileRank(t *testing.T) {
	got := PercentileRank([]float64{10, 30, 20, 40})
	assert.Equal(t, []float64{25, 75, 50, 100}, got)
}

func TestPercentileRankTiesShareAverage(t *testing.T) {
	got := PercentileRank([]float64{5, 5, 1, 9})
	// 1 -> rank 1, the two 5s span ranks 2-3, 9 -> rank 4.
	assert.Equal(t, []float64{62.5, 62.5, 25, 100}, got)
}

func TestPercentileRankBoundsAndMonotone(t *testing.T) {
	vals := []float64{3, -1, 7, 7, 0, 12, -4, 3}
	pct := PercentileRank(vals)
	for i := range vals {
		assert.GreaterOrEqual(t, pct[i], 0.0)
		assert.LessOrEqual(t, pct[i], 100.0)
		for j := range vals {
			if vals[i] < vals[j] {
				assert.Less(t, pct[i], pct[j])
			}
		}
	}
}

func TestPercentileRankDegenerate(t *testing.T) {
	assert.Empty(t, PercentileRank(nil))
	assert.Equal(t, []float64{0, 0}, PercentileRank([]float64{model.Unknown, model.Unknown}))
	assert.Equal(t, []float64{100, 0}, PercentileRank([]float64{4, model.Unknown}))
}

func TestNormalizeWeights(t *testing.T) {
	base := map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2}

	w := NormalizeWeights(base, nil)
	assert.InDelta(t, 0.5, w["a"], 1e-12)

	w = NormalizeWeights(base, map[string]float64{"a": 2, "ghost": 10})
	assert.NotContains(t, w, "ghost")
	assert.InDelta(t, 1.0/1.5, w["a"], 1e-12)
	assert.InDelta(t, 0.3/1.5, w["b"], 1e-12)

	for _, sliders := range []map[string]float64{
		{"a": 0.1}, {"b": 7, "c": 3}, {"a": 1e-6, "b": 1e6}, {"a": 0, "c": -2},
	} {
		var sum float64
		for _, v := range NormalizeWeights(base, sliders) {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "%v", sliders)
	}
}

func TestLeagueMultipliers(t *testing.T) {
	m := NewLeagueMultipliers(map[string]float64{"Premier League": 1}, 0.7)
	assert.Equal(t, 1.0, m.Lookup("premier league"))
	assert.Equal(t, 0.7, m.Lookup("Allsvenskan"))
	assert.Equal(t, 0.7, m.Default())
	assert.True(t, m.Has(" Premier League"))
	assert.False(t, m.Has("Allsvenskan"))
	assert.Equal(t, []string{"premier league"}, m.Leagues())
	assert.Equal(t, DefaultLeagueMultiplier, DefaultLeagueMultipliers().Lookup("Nowhere"))
}

func scoringTable() *model.Table {
	rows := []*model.PlayerRecord{
		{ID: "1", League: "L", Stats: map[string]float64{"a": 1, "b": 10}},
		{ID: "2", League: "L", Stats: map[string]float64{"a": 2, "b": 30}},
		{ID: "3", League: "L", Stats: map[string]float64{"a": 3, "b": 20}},
		{ID: "4", League: "M", Stats: map[string]float64{"a": 5, "b": 5}},
		{ID: "5", League: "M", Stats: map[string]float64{"a": 9, "b": 1}},
	}
	return model.NewTable(rows)
}

func testRole() roles.RoleConfig {
	return roles.RoleConfig{
		Name:      "T",
		Positions: []string{"CM"},
		Indices: map[string]map[string]float64{
			"both":    {"a": 1, "b": 1},
			"missing": {"a": 0.5, "nope": 2},
		},
		Groups:  map[string][]string{"g1": {"a"}, "g2": {"a", "b"}},
		Weights: map[string]float64{"g1": 2, "g2": 2},
	}
}

func TestComputeIndices(t *testing.T) {
	tbl := scoringTable()
	z := zscore.New(tbl)
	ComputeIndices(tbl, z, testRole(), quietLog())

	za, zb := tbl.Column("z_a"), tbl.Column("z_b")
	both := tbl.Column(IndexName("both"))
	missing := tbl.Column(IndexName("missing"))
	for i := range both {
		assert.InDelta(t, za[i]+zb[i], both[i], 1e-12)
		assert.InDelta(t, 0.5*za[i], missing[i], 1e-12)
	}
	assert.Equal(t, make([]float64, tbl.Len()), tbl.Column("z_nope"))

	pct := tbl.Column(IndexPctName("both"))
	for _, p := range pct {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
	}
}

func TestIndexIsLinearInWeights(t *testing.T) {
	role := testRole()
	role.Indices = map[string]map[string]float64{"x": {"a": 1, "b": 1}}
	base := scoringTable()
	ComputeIndices(base, zscore.New(base), role, quietLog())

	role.Indices = map[string]map[string]float64{"x": {"a": 3, "b": 1}}
	scaled := scoringTable()
	ComputeIndices(scaled, zscore.New(scaled), role, quietLog())

	za := base.Column("z_a")
	b, s := base.Column(IndexName("x")), scaled.Column(IndexName("x"))
	for i := range b {
		assert.InDelta(t, 2*za[i], s[i]-b[i], 1e-12)
	}
}

func TestComputeOverall(t *testing.T) {
	tbl := scoringTable()
	z := zscore.New(tbl)
	mult := NewLeagueMultipliers(map[string]float64{"L": 1}, 0.5)

	w := ComputeOverall(tbl, z, testRole(), map[string]float64{"g1": 3}, mult)
	require.InDelta(t, 0.75, w["g1"], 1e-12)
	require.InDelta(t, 0.25, w["g2"], 1e-12)

	za, zb := tbl.Column("z_a"), tbl.Column("z_b")
	raw, adj := tbl.Column(ColOverallRaw), tbl.Column(ColOverallAdj)
	for i, r := range tbl.Rows {
		want := 0.75*za[i] + 0.25*(za[i]+zb[i])/2
		assert.InDelta(t, want, raw[i], 1e-12)
		if r.League == "L" {
			assert.InDelta(t, raw[i], adj[i], 1e-12)
		} else {
			assert.InDelta(t, raw[i]*0.5, adj[i], 1e-12)
		}
	}
	assert.Equal(t, tbl.Column(ColOverallPct), tbl.Column(ColOverallPctGlobal))
}

func TestComputeOverallIgnoresWeightsWithoutGroup(t *testing.T) {
	tbl := scoringTable()
	role := testRole()
	role.Weights = map[string]float64{"g1": 1, "g2": 1, "extra": 2}

	w := ComputeOverall(tbl, zscore.New(tbl), role, nil, DefaultLeagueMultipliers())
	assert.NotContains(t, w, "extra")
	assert.InDelta(t, 1.0, w["g1"]+w["g2"], 1e-12)
	assert.InDelta(t, 0.5, w["g1"], 1e-12)

	za, zb := tbl.Column("z_a"), tbl.Column("z_b")
	raw := tbl.Column(ColOverallRaw)
	for i := range tbl.Rows {
		assert.InDelta(t, 0.5*za[i]+0.5*(za[i]+zb[i])/2, raw[i], 1e-12)
	}
}

func TestRefreshPercentileKeepsGlobal(t *testing.T) {
	tbl := scoringTable()
	ComputeOverall(tbl, zscore.New(tbl), testRole(), nil, DefaultLeagueMultipliers())
	global := tbl.Column(ColOverallPctGlobal)

	sub := tbl.Filter(func(r *model.PlayerRecord) bool { return r.League == "M" })
	RefreshPercentile(sub)
	assert.Equal(t, []float64{50, 100}, sub.Column(ColOverallPct))
	assert.Equal(t, global[3:], sub.Column(ColOverallPctGlobal))
}

func TestEmptyPopulation(t *testing.T) {
	tbl := model.NewTable(nil)
	z := zscore.New(tbl)
	ComputeIndices(tbl, z, testRole(), quietLog())
	ComputeOverall(tbl, z, testRole(), nil, DefaultLeagueMultipliers())
	assert.Empty(t, tbl.Column(ColOverallPct))
	assert.True(t, tbl.HasColumn(ColOverallPctGlobal))
}
