package buyscore

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-scout-metrics/internal/contextnorm"
	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/rating"
	"github.com/pable/go-scout-metrics/internal/zscore"
)

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"£5m", 5},
		{"€1.5M", 1.5},
		{"$12mn", 12},
		{"€ 30 million", 30},
		{"£750k", 0.75},
		{"900 thousand", 0.9},
		{"5000000", 5},
		{"£2,500,000", 2.5},
		{"€1.2bn", 1200},
		{"0", 0},
	}
	for _, c := range cases {
		got, ok := ParseValue(c.in)
		require.True(t, ok, c.in)
		assert.InDelta(t, c.want, got, 1e-9, c.in)
	}

	for _, bad := range []string{"", "-", "n/a", "free", "£m", "-5m", "5mx"} {
		_, ok := ParseValue(bad)
		assert.False(t, ok, bad)
		assert.Equal(t, Sentinel, ValueOrSentinel(bad), bad)
	}
}

func TestComponentFormulas(t *testing.T) {
	assert.InDelta(t, 1/math.Log(7), ValueEfficiency(1, 5, 2), 1e-12)
	assert.Greater(t, ValueEfficiency(1, 5, 2), ValueEfficiency(1, 50, 2))
	assert.False(t, model.IsKnown(ValueEfficiency(model.Unknown, 5, 2)))

	assert.InDelta(t, 0.5, AgePremium(24, 24, 3), 1e-12)
	assert.Greater(t, AgePremium(23, 24, 3), AgePremium(33, 24, 3))
	assert.False(t, model.IsKnown(AgePremium(model.Unknown, 24, 3)))

	assert.Equal(t, 1.0, Sustainability(0, 0, 2, 1, 0.5))
	// Overperformance costs twice as much as underperformance.
	assert.InDelta(t, math.Exp(-1), Sustainability(1, 0, 2, 1, 0.5), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), Sustainability(0, 1, 2, 1, 0.5), 1e-12)
}

func composeTable() *model.Table {
	rows := []*model.PlayerRecord{
		{ID: "a", League: "L", Age: 23, Minutes: 2000, Value: "£5m", Stats: map[string]float64{
			rating.ColOverallAdj: 1.0, contextnorm.ColGoalsMinusXG: 3, contextnorm.ColAssistsMinusXA: -1}},
		{ID: "b", League: "L", Age: 33, Minutes: 1000, Value: "£50m", Stats: map[string]float64{
			rating.ColOverallAdj: 1.0}},
		{ID: "c", League: "L", Age: 27, Minutes: 3000, Value: "unknown", Stats: map[string]float64{
			rating.ColOverallAdj: -0.5}},
		{ID: "d", League: "M", Age: 20, Minutes: 900, Value: "€900k", Stats: map[string]float64{
			rating.ColOverallAdj: 0.2}},
	}
	return model.NewTable(rows)
}

func TestCompose(t *testing.T) {
	tbl := composeTable()
	Compose(tbl, zscore.New(tbl), DefaultOptions(), quietLog())

	valueM := tbl.Column(ColValueM)
	assert.Equal(t, []float64{5, 50, Sentinel, 0.9}, valueM)

	rel := tbl.Column(ColReliability)
	assert.InDelta(t, 1.0, rel[0], 1e-12) // 2000 / 2000
	assert.InDelta(t, 0.5, rel[1], 1e-12)
	assert.InDelta(t, 1.5, rel[2], 1e-12) // 1.5 clipped
	assert.InDelta(t, 1.0, rel[3], 1e-12)

	sus := tbl.Column(ColSustainability)
	assert.InDelta(t, math.Exp(-0.5*(2*3+1)), sus[0], 1e-12)
	assert.Equal(t, 1.0, sus[1], "missing differentials assume sustainable")

	buy := tbl.Column(ColBuyScore)
	assert.Greater(t, buy[0], buy[1])
	assert.Equal(t, 0.0, buy[3], "single-player league standardizes to zero")

	eff := tbl.Column(ColValueEff)
	assert.Greater(t, eff[0], eff[1])
	age := tbl.Column(ColAgePremium)
	assert.Greater(t, age[0], age[1])
}

func TestBuyScoreIsWeightedZSum(t *testing.T) {
	tbl := composeTable()
	z := zscore.New(tbl)
	opts := DefaultOptions()
	Compose(tbl, z, opts, quietLog())

	w := opts.Weights
	buy := tbl.Column(ColBuyScore)
	for i := range tbl.Rows {
		want := w.Performance*tbl.Column(zscore.Name(rating.ColOverallAdj))[i] +
			w.Age*tbl.Column(zscore.Name(ColAgePremium))[i] +
			w.Value*tbl.Column(zscore.Name(ColValueEff))[i] +
			w.Reliability*tbl.Column(zscore.Name(ColReliability))[i] +
			w.Sustainability*tbl.Column(zscore.Name(ColSustainability))[i]
		assert.InDelta(t, want, buy[i], 1e-12)
	}
	assert.InDelta(t, 1.0, w.Performance+w.Age+w.Value+w.Reliability+w.Sustainability, 1e-12)
}

func TestApplyBudget(t *testing.T) {
	tbl := composeTable()
	Compose(tbl, zscore.New(tbl), DefaultOptions(), quietLog())

	kept := ApplyBudget(tbl, 10)
	var ids []string
	for _, r := range kept.Rows {
		ids = append(ids, r.ID)
		assert.LessOrEqual(t, r.Stats[ColValueM], 10.0)
	}
	assert.Equal(t, []string{"a", "d"}, ids)

	// Unknown values fail even an unbounded budget.
	for _, r := range ApplyBudget(tbl, math.Inf(1)).Rows {
		assert.NotEqual(t, "c", r.ID)
	}
	assert.Equal(t, 0, ApplyBudget(tbl, 0.5).Len())
}
