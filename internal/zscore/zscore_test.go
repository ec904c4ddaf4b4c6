package zscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/pable/go-scout-metrics/internal/model"
)

func makeTable(league string, vals ...float64) []*model.PlayerRecord {
	rows := make([]*model.PlayerRecord, len(vals))
	for i, v := range vals {
		rows[i] = &model.PlayerRecord{ID: league + string(rune('a'+i)), League: league, Minutes: 900,
			Stats: map[string]float64{"m": v}}
	}
	return rows
}

func leagueZ(t *model.Table, league, col string) []float64 {
	var out []float64
	for _, r := range t.Rows {
		if r.League == league {
			out = append(out, r.Stats[col])
		}
	}
	return out
}

func TestStandardizePerLeague(t *testing.T) {
	rows := append(makeTable("A", 1, 2, 3, 4, 5), makeTable("B", 100, 200, 300)...)
	tbl := model.NewTable(rows)

	s := New(tbl)
	s.Ensure("m")

	for _, l := range []string{"A", "B"} {
		z := leagueZ(tbl, l, Name("m"))
		assert.InDelta(t, 0, floats.Sum(z)/float64(len(z)), 1e-9, "league %s mean", l)
		for _, v := range z {
			assert.LessOrEqual(t, v, Clip)
			assert.GreaterOrEqual(t, v, -Clip)
		}
	}
	// B's large raw scale does not leak into A.
	zA := leagueZ(tbl, "A", Name("m"))
	zB := leagueZ(tbl, "B", Name("m"))
	assert.InDelta(t, -1.2649, zA[0], 1e-4)
	assert.InDelta(t, -1.0, zB[0], 1e-9)

	st, ok := s.Stats("m", "B")
	require.True(t, ok)
	assert.Equal(t, 3, st.N)
	assert.InDelta(t, 200, st.Mean, 1e-9)
}

func TestClipAtThree(t *testing.T) {
	vals := make([]float64, 30)
	vals[29] = 1000
	z := Standardize(vals, make([]string, 30))
	assert.Equal(t, Clip, z[29])
}

func TestZeroSpreadScoresZero(t *testing.T) {
	tbl := model.NewTable(makeTable("A", 7, 7, 7))
	z := New(tbl).Values("m")
	assert.Equal(t, []float64{0, 0, 0}, z)

	single := model.NewTable(makeTable("A", 4))
	assert.Equal(t, []float64{0}, New(single).Values("m"))
}

func TestMissingMetricScoresZero(t *testing.T) {
	tbl := model.NewTable(makeTable("A", 1, 2, 3))
	z := New(tbl).Values("nope")
	assert.Equal(t, []float64{0, 0, 0}, z)
	assert.True(t, tbl.HasColumn(Name("nope")))
}

func TestUnknownValuesScoreZero(t *testing.T) {
	tbl := model.NewTable(makeTable("A", 1, model.Unknown, 3))
	z := New(tbl).Values("m")
	assert.Equal(t, 0.0, z[1])
	assert.InDelta(t, -z[0], z[2], 1e-12)
}

func TestIdempotent(t *testing.T) {
	tbl := model.NewTable(makeTable("A", 1, 2, 3, 10))
	s := New(tbl)
	first := append([]float64(nil), s.Values("m")...)

	// Raw values move after the first pass; neither this scorer nor a fresh
	// one re-standardizes an existing z column.
	for _, r := range tbl.Rows {
		r.Stats["m"] *= 50
	}
	s.Ensure("m")
	assert.Equal(t, first, tbl.Column(Name("m")))

	New(tbl).Ensure("m")
	assert.Equal(t, first, tbl.Column(Name("m")))
}

func TestEmptyTable(t *testing.T) {
	tbl := model.NewTable(nil)
	assert.Empty(t, New(tbl).Values("m"))
}
