package pipeline

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-scout-metrics/internal/buyscore"
	"github.com/pable/go-scout-metrics/internal/contextnorm"
	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/rating"
	"github.com/pable/go-scout-metrics/internal/roles"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func midfieldRole() roles.RoleConfig {
	return roles.RoleConfig{
		Name:      "MID",
		Positions: []string{"CM"},
		Baseline: map[string]string{
			"pass_pct":  "pct(passes_completed, passes_attempted)",
			"press_p90": "per90(coalesce(pressures_adj, pressures), Minutes)",
			"shots_p90": "per90(shots, Minutes)",
		},
		Indices: map[string]map[string]float64{
			"passing":  {"pass_pct": 1},
			"pressing": {"press_p90": 1},
			"shooting": {"shots_p90": 1},
		},
		Groups: map[string][]string{
			"passing":  {"pass_pct"},
			"pressing": {"press_p90", "shots_p90"},
		},
		Weights: map[string]float64{"passing": 0.5, "pressing": 0.5},
	}
}

func cm(id, team string, minutes, age float64, value string, completed, pressures float64) *model.PlayerRecord {
	return &model.PlayerRecord{
		ID: id, Name: "Player " + id, Team: team, League: "Premier League",
		Age: age, Position1: "Central Midfield", Minutes: minutes, Value: value,
		Stats: map[string]float64{
			"passes_completed": completed,
			"passes_attempted": 100,
			"pressures":        pressures,
		},
	}
}

// scenario holds two identical strong midfielders who differ only in age and
// value, a weaker peer group, a striker who only shapes team context, a
// bench player under the minutes threshold and one unpriced player.
func scenario() *model.Table {
	st := &model.PlayerRecord{
		ID: "st", Team: "T2", League: "Premier League", Age: 26, Position1: "ST",
		Minutes: 2500, Value: "£20m", Stats: map[string]float64{"pressures": 100},
	}
	return model.NewTable([]*model.PlayerRecord{
		cm("A", "T1", 2000, 23, "£5m", 90, 400),
		cm("B", "T1", 2000, 33, "£50m", 90, 400),
		cm("C", "T2", 2000, 25, "£3m", 70, 200),
		cm("D", "T2", 2000, 25, "£3m", 72, 220),
		cm("E", "T2", 2000, 25, "£3m", 68, 180),
		cm("F", "T2", 2000, 25, "n/a", 70, 200),
		cm("bench", "T1", 300, 19, "£1m", 95, 40),
		st,
	})
}

func newEngine(opts ...Option) *Engine {
	base := []Option{
		WithCatalog(roles.Catalog{"MID": midfieldRole()}),
		WithLogger(quietLog()),
	}
	return New(append(base, opts...)...)
}

func rowByID(t *model.Table, id string) *model.PlayerRecord {
	for _, r := range t.Rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func TestYoungCheapPlayerOutranksOldExpensiveTwin(t *testing.T) {
	p := DefaultParams("MID")
	p.Budget = 100
	res, err := newEngine().Run(scenario(), p)
	require.NoError(t, err)

	a, b := rowByID(res.Table, "A"), rowByID(res.Table, "B")
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.InDelta(t, a.Stats[rating.ColOverallRaw], b.Stats[rating.ColOverallRaw], 1e-12)
	assert.Greater(t, a.Stats[rating.ColOverallAdj], 0.0)
	assert.Greater(t, a.Stats[buyscore.ColValueEff], b.Stats[buyscore.ColValueEff])
	assert.Greater(t, a.Stats[buyscore.ColAgePremium], b.Stats[buyscore.ColAgePremium])
	assert.Greater(t, a.Stats[buyscore.ColBuyScore], b.Stats[buyscore.ColBuyScore])

	scored := res.Scored()
	pos := map[string]int{}
	for i, sp := range scored {
		pos[sp.PlayerID] = i
	}
	assert.Less(t, pos["A"], pos["B"])
	assert.Equal(t, 5.0, scored[pos["A"]].ValueM)
	assert.Len(t, scored[pos["A"]].Indices, 3)
}

func TestRunStageOrderAndFilters(t *testing.T) {
	in := scenario()
	res, err := newEngine().Run(in, DefaultParams("MID"))
	require.NoError(t, err)

	// Context is built from every role's rows above the minutes threshold.
	require.Len(t, res.Teams, 2)
	assert.Equal(t, "T2", res.Teams[1].Team)
	assert.Equal(t, 5, res.Teams[1].Players)
	assert.Equal(t, 2, res.Teams[0].Players, "bench player filtered before context")
	assert.Equal(t, 7, res.Population.Len())
	assert.NotNil(t, rowByID(res.Population, "st"))

	for _, r := range res.Table.Rows {
		assert.NotEqual(t, "st", r.ID)
		assert.NotEqual(t, "bench", r.ID)
		assert.NotEqual(t, "F", r.ID, "unpriced players fail the budget")
		assert.LessOrEqual(t, r.Stats[buyscore.ColValueM], 10.0)
	}
	assert.Nil(t, rowByID(res.Table, "B"), "£50m is over a £10m budget")

	var stages []string
	for _, st := range res.Timings {
		stages = append(stages, st.Stage)
	}
	assert.Equal(t, Stages, stages)

	// The caller's table is untouched and role columns stay off the
	// population.
	for _, r := range in.Rows {
		assert.NotContains(t, r.Stats, rating.ColOverallRaw)
		assert.NotContains(t, r.Stats, contextnorm.AdjName("pressures"))
	}
	assert.NotContains(t, rowByID(res.Population, "A").Stats, rating.ColOverallRaw)
	assert.Contains(t, rowByID(res.Population, "A").Stats, contextnorm.AdjName("pressures"))
}

func TestBudgetRefreshesPercentileOnly(t *testing.T) {
	p := DefaultParams("MID")
	p.NoBudget = true
	full, err := newEngine().Run(scenario(), p)
	require.NoError(t, err)
	assert.NotNil(t, rowByID(full.Table, "F"))
	assert.NotNil(t, rowByID(full.Table, "B"))

	cut, err := newEngine().Run(scenario(), DefaultParams("MID"))
	require.NoError(t, err)
	for _, r := range cut.Table.Rows {
		before := rowByID(full.Table, r.ID)
		assert.Equal(t, before.Stats[rating.ColOverallPctGlobal], r.Stats[rating.ColOverallPctGlobal], r.ID)
	}
	assert.Equal(t, 100.0, rowByID(cut.Table, "A").Stats[rating.ColOverallPct])
	assert.Less(t, rowByID(cut.Table, "A").Stats[rating.ColOverallPctGlobal], 100.0)
}

func TestMissingMetricScoresZeroIndex(t *testing.T) {
	res, err := newEngine().Run(scenario(), DefaultParams("MID"))
	require.NoError(t, err)
	assert.False(t, res.Table.HasColumn("shots_p90"))
	for _, v := range res.Table.Column(rating.IndexName("shooting")) {
		assert.Equal(t, 0.0, v)
	}
	for _, v := range res.Table.Column(rating.IndexPctName("shooting")) {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestSlidersShiftWeights(t *testing.T) {
	p := DefaultParams("MID")
	p.Sliders = map[string]float64{"passing": 3, "unknown_group": 5}
	res, err := newEngine().Run(scenario(), p)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Weights["passing"], 1e-12)
	assert.InDelta(t, 0.25, res.Weights["pressing"], 1e-12)
	assert.NotContains(t, res.Weights, "unknown_group")
}

func TestUnknownRole(t *testing.T) {
	_, err := newEngine().Run(scenario(), DefaultParams("libero"))
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestEmptyRolePopulation(t *testing.T) {
	e := New(WithLogger(quietLog()))
	res, err := e.Run(scenario(), DefaultParams("GK"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Table.Len())
	assert.Empty(t, res.Scored())
	assert.Equal(t, 7, res.Population.Len())
}

func TestMissingIdentityFails(t *testing.T) {
	in := scenario()
	in.SetIdentityColumns([]string{model.ColID, model.ColLeague, model.ColMinutes})
	_, err := newEngine().Run(in, DefaultParams("MID"))
	assert.ErrorIs(t, err, contextnorm.ErrMissingIdentity)
}

func TestTelemetry(t *testing.T) {
	tel := NewTelemetry()
	e := newEngine(WithTelemetry(tel))
	for i := 0; i < 2; i++ {
		_, err := e.Run(scenario(), DefaultParams("MID"))
		require.NoError(t, err)
	}

	stats, err := tel.Snapshot()
	require.NoError(t, err)
	require.Len(t, stats, len(Stages))
	assert.Equal(t, StageMinutes, stats[0].Stage)
	assert.Equal(t, uint64(2), stats[0].Calls)
	assert.Equal(t, 2, stats[0].Dropped, "one bench player per run")
	assert.Equal(t, 7, stats[0].Rows)
	assert.Equal(t, StageBudget, stats[len(stats)-1].Stage)

	runs, err := tel.Runs()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), runs["MID"])
}
