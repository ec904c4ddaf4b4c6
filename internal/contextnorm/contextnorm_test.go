package contextnorm

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-scout-metrics/internal/model"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func player(id, league, team string, minutes float64, stats map[string]float64) *model.PlayerRecord {
	return &model.PlayerRecord{ID: id, League: league, Team: team, Minutes: minutes, Stats: stats}
}

// pressingOnly narrows the default options to the pressing class so tests
// control every input.
func pressingOnly() Options {
	o := DefaultOptions()
	o.Classes = []Class{{
		Name: "pressing", Column: ColPressing, Representative: "pressures",
		Metrics: []string{"pressures", "tackles", "interceptions"},
	}}
	return o
}

func rowByID(t *model.Table, id string) *model.PlayerRecord {
	for _, r := range t.Rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func TestTeamContextIsMinuteWeighted(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{
		player("a1", "L1", "A", 900, map[string]float64{"pressures": 10}),
		player("a2", "L1", "A", 1800, map[string]float64{"pressures": 40}),
		player("b1", "L1", "B", 900, map[string]float64{"pressures": 20}),
	})
	teams, err := Normalize(tbl, pressingOnly(), quietLog())
	require.NoError(t, err)
	require.Len(t, teams, 2)

	assert.Equal(t, "A", teams[0].Team)
	assert.InDelta(t, 30, teams[0].Value("pressing"), 1e-9)
	assert.Equal(t, 2, teams[0].Players)
	assert.InDelta(t, 2700, teams[0].Minutes, 1e-9)

	// Context joined back onto every row of the team.
	assert.InDelta(t, 30, rowByID(tbl, "a1").Stats[ColPressing], 1e-9)
	assert.InDelta(t, 20, rowByID(tbl, "b1").Stats[ColPressing], 1e-9)
}

func TestAdjustmentIsClippedRatio(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{
		player("a", "L1", "A", 900, map[string]float64{"pressures": 10, "tackles": 4}),
		player("b", "L1", "B", 900, map[string]float64{"pressures": 20, "tackles": 4}),
		player("c", "L1", "C", 900, map[string]float64{"pressures": 90, "tackles": 4}),
	})
	_, err := Normalize(tbl, pressingOnly(), quietLog())
	require.NoError(t, err)

	// League mean of team contexts = 40.
	assert.InDelta(t, 4*1.5, rowByID(tbl, "a").Stats["tackles_adj"], 1e-9) // 4.0 clipped to 1.5
	assert.InDelta(t, 4*1.5, rowByID(tbl, "b").Stats["tackles_adj"], 1e-9) // 2.0 clipped to 1.5
	assert.InDelta(t, 4*0.5, rowByID(tbl, "c").Stats["tackles_adj"], 1e-9) // 0.44 clipped to 0.5

	// Raw columns untouched.
	assert.Equal(t, 4.0, rowByID(tbl, "a").Stats["tackles"])
}

func TestZeroSpreadSkipsNormalization(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{
		player("a", "L1", "A", 900, map[string]float64{"pressures": 15, "tackles": 3}),
		player("b", "L1", "B", 900, map[string]float64{"pressures": 15, "tackles": 5}),
	})
	_, err := Normalize(tbl, pressingOnly(), quietLog())
	require.NoError(t, err)
	assert.False(t, tbl.HasColumn("tackles_adj"))
	assert.False(t, tbl.HasColumn("pressures_adj"))
	assert.Equal(t, 3.0, rowByID(tbl, "a").Stats["tackles"])
}

// A league with one qualifying team is a no-op: its context equals the league
// mean and the factor is 1.
func TestSingleTeamLeagueIsNoOp(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{
		player("a", "L1", "A", 900, map[string]float64{"pressures": 10, "tackles": 4}),
		player("b", "L1", "B", 900, map[string]float64{"pressures": 30, "tackles": 4}),
		player("s1", "Solo", "S", 900, map[string]float64{"pressures": 70, "tackles": 6}),
		player("s2", "Solo", "S", 1200, map[string]float64{"pressures": 10, "tackles": 2}),
	})
	_, err := Normalize(tbl, pressingOnly(), quietLog())
	require.NoError(t, err)

	for _, id := range []string{"s1", "s2"} {
		r := rowByID(tbl, id)
		assert.Equal(t, r.Stats["tackles"], r.Stats["tackles_adj"], id)
		assert.Equal(t, r.Stats["pressures"], r.Stats["pressures_adj"], id)
	}
	assert.NotEqual(t, 4.0, rowByID(tbl, "a").Stats["tackles_adj"])

	// Only one league, only one team: nothing adjusted at all.
	solo := model.NewTable([]*model.PlayerRecord{
		player("s1", "Solo", "S", 900, map[string]float64{"pressures": 70, "tackles": 6}),
	})
	_, err = Normalize(solo, pressingOnly(), quietLog())
	require.NoError(t, err)
	assert.False(t, solo.HasColumn("tackles_adj"))
}

func TestZeroTeamContextDefaultsFactorOne(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{
		player("a", "L1", "A", 900, map[string]float64{"pressures": 0, "tackles": 5}),
		player("b", "L1", "B", 900, map[string]float64{"pressures": 10, "tackles": 5}),
	})
	_, err := Normalize(tbl, pressingOnly(), quietLog())
	require.NoError(t, err)
	assert.Equal(t, 5.0, rowByID(tbl, "a").Stats["tackles_adj"])
	assert.InDelta(t, 2.5, rowByID(tbl, "b").Stats["tackles_adj"], 1e-9)
}

func TestMissingColumnsDegradeSilently(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{
		player("a", "L1", "A", 900, map[string]float64{"pressures": 10}),
		player("b", "L1", "B", 900, map[string]float64{"pressures": 20}),
	})
	_, err := Normalize(tbl, DefaultOptions(), quietLog())
	require.NoError(t, err)
	assert.True(t, tbl.HasColumn("pressures_adj"))
	assert.False(t, tbl.HasColumn("tackles_adj"))
	assert.False(t, tbl.HasColumn("tackles"))
	assert.False(t, tbl.HasColumn(ColPossession))
	assert.False(t, tbl.HasColumn(ColGoalsMinusXG))
}

func TestMissingIdentityIsFatal(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{player("a", "L1", "A", 900, nil)})
	tbl.SetIdentityColumns([]string{model.ColID, model.ColTeam, model.ColMinutes})

	_, err := Normalize(tbl, DefaultOptions(), quietLog())
	require.ErrorIs(t, err, ErrMissingIdentity)
	assert.Contains(t, err.Error(), model.ColLeague)
}

func TestFinishingDifferentialAndXGDiff(t *testing.T) {
	tbl := model.NewTable([]*model.PlayerRecord{
		player("a", "L1", "A", 900, map[string]float64{"npxg": 4, "goals": 6, "npxg_against": 1, "xa": 2, "assists": 1}),
		player("b", "L1", "B", 900, map[string]float64{"npxg": 4, "goals": 3, "npxg_against": 3, "xa": 2, "assists": 2}),
	})
	teams, err := Normalize(tbl, DefaultOptions(), quietLog())
	require.NoError(t, err)

	// Attack context has no spread, so the raw columns feed the differential.
	assert.Equal(t, 2.0, rowByID(tbl, "a").Stats[ColGoalsMinusXG])
	assert.Equal(t, -1.0, rowByID(tbl, "b").Stats[ColGoalsMinusXG])
	assert.Equal(t, -1.0, rowByID(tbl, "a").Stats[ColAssistsMinusXA])

	assert.InDelta(t, 3, teams[0].Value("xg_diff"), 1e-9)
	assert.InDelta(t, 1, teams[1].Value("xg_diff"), 1e-9)
	assert.InDelta(t, 3, rowByID(tbl, "a").Stats[ColXGDiff], 1e-9)
}

func TestFactor(t *testing.T) {
	assert.Equal(t, 1.0, Factor(10, 0, 0.5, 1.5))
	assert.Equal(t, 1.0, Factor(10, model.Unknown, 0.5, 1.5))
	assert.Equal(t, 1.5, Factor(10, 1, 0.5, 1.5))
	assert.Equal(t, 0.5, Factor(1, 10, 0.5, 1.5))
	assert.InDelta(t, 1.25, Factor(10, 8, 0.5, 1.5), 1e-12)
}

func TestSummarizeLeagues(t *testing.T) {
	teams := []TeamContext{
		{League: "L1", Team: "A", Values: map[string]float64{"pressing": 10, "possession": 300}},
		{League: "L1", Team: "B", Values: map[string]float64{"pressing": 30, "possession": 500}},
		{League: "L2", Team: "C", Values: map[string]float64{"pressing": 40, "possession": 100}},
	}
	styles := SummarizeLeagues(teams)
	require.Len(t, styles, 2)
	assert.Equal(t, "L1", styles[0].League)
	assert.Equal(t, 2, styles[0].Teams)
	assert.InDelta(t, 20, styles[0].Means["pressing"], 1e-9)
	assert.Equal(t, 2, styles[0].Ranks["pressing"])
	assert.Equal(t, 1, styles[1].Ranks["pressing"])
	assert.Equal(t, 1, styles[0].Ranks["possession"])
	assert.Zero(t, styles[0].Ranks["tempo"])
}
