// Package buyscore composes the recruitment ranking score from Overall,
// market value, age, availability and finishing sustainability, and applies
// the transfer budget cut.
package buyscore

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-scout-metrics/internal/contextnorm"
	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/rating"
	"github.com/pable/go-scout-metrics/internal/zscore"
)

// Output columns.
const (
	ColValueM         = "value_m"
	ColValueEff       = "value_eff"
	ColAgePremium     = "age_premium"
	ColReliability    = "reliability"
	ColSustainability = "sustainability"
	ColBuyScore       = "buy_score"
)

// Weights are the fixed component weights of the BuyScore.
type Weights struct {
	Performance    float64
	Age            float64
	Value          float64
	Reliability    float64
	Sustainability float64
}

// Options holds the composer constants.
type Options struct {
	// ValueOffset is C in overall_adj / log(value_m + C); must exceed 1.
	ValueOffset float64
	AgePeak     float64
	AgeWidth    float64
	// ReliabilityMax caps minutes relative to the league average.
	ReliabilityMax float64
	// OverPenalty and UnderPenalty weigh finishing over- and
	// underperformance inside exp(-Decay * (...)).
	OverPenalty  float64
	UnderPenalty float64
	Decay        float64

	// GoalsDiff and AssistsDiff name the finishing differential columns.
	GoalsDiff   string
	AssistsDiff string

	Weights Weights
}

// DefaultOptions returns the production constants.
func DefaultOptions() Options {
	return Options{
		ValueOffset:    2,
		AgePeak:        24,
		AgeWidth:       3,
		ReliabilityMax: 1.5,
		OverPenalty:    2,
		UnderPenalty:   1,
		Decay:          0.5,
		GoalsDiff:      contextnorm.ColGoalsMinusXG,
		AssistsDiff:    contextnorm.ColAssistsMinusXA,
		Weights: Weights{
			Performance:    0.60,
			Age:            0.20,
			Value:          0.10,
			Reliability:    0.05,
			Sustainability: 0.05,
		},
	}
}

// Compose writes value_m, value_eff, age_premium, reliability,
// sustainability and buy_score onto t. overall_adj must already exist.
// Components are z-scored within league through z before weighting.
func Compose(t *model.Table, z *zscore.Scorer, opts Options, log logrus.FieldLogger) {
	n := t.Len()
	valueM := make([]float64, n)
	unknown := 0
	for i, r := range t.Rows {
		m, ok := ParseValue(r.Value)
		if !ok {
			m = Sentinel
			unknown++
		}
		valueM[i] = m
	}
	if unknown > 0 {
		log.WithField("players", unknown).Debug("unparseable market values treated as over budget")
	}
	t.SetColumn(ColValueM, valueM)

	overall := t.Column(rating.ColOverallAdj)
	eff := make([]float64, n)
	age := make([]float64, n)
	for i, r := range t.Rows {
		eff[i] = ValueEfficiency(overall[i], valueM[i], opts.ValueOffset)
		age[i] = AgePremium(r.Age, opts.AgePeak, opts.AgeWidth)
	}
	t.SetColumn(ColValueEff, eff)
	t.SetColumn(ColAgePremium, age)
	t.SetColumn(ColReliability, reliability(t, opts.ReliabilityMax))
	t.SetColumn(ColSustainability, sustainability(t, opts))

	w := opts.Weights
	parts := []struct {
		col string
		w   float64
	}{
		{rating.ColOverallAdj, w.Performance},
		{ColAgePremium, w.Age},
		{ColValueEff, w.Value},
		{ColReliability, w.Reliability},
		{ColSustainability, w.Sustainability},
	}
	buy := make([]float64, n)
	for _, p := range parts {
		for i, v := range z.Values(p.col) {
			buy[i] += p.w * v
		}
	}
	t.SetColumn(ColBuyScore, buy)
}

// ValueEfficiency returns overall / log(valueM + c).
func ValueEfficiency(overall, valueM, c float64) float64 {
	d := math.Log(valueM + c)
	if !model.IsKnown(overall) || !model.IsKnown(d) || d <= 0 {
		return model.Unknown
	}
	return overall / d
}

// AgePremium is the logistic 1 / (1 + exp((age - peak) / width)).
func AgePremium(age, peak, width float64) float64 {
	if !model.IsKnown(age) || width <= 0 {
		return model.Unknown
	}
	return 1 / (1 + math.Exp((age-peak)/width))
}

// Sustainability is exp(-decay * (overW*over + underW*under)).
func Sustainability(over, under, overW, underW, decay float64) float64 {
	return math.Exp(-decay * (overW*over + underW*under))
}

// reliability is minutes over the league-average minutes of the current rows,
// clipped to [0, hi]. Non-finite results are 0.
func reliability(t *model.Table, hi float64) []float64 {
	sum := make(map[string]float64)
	cnt := make(map[string]int)
	for _, r := range t.Rows {
		if model.IsKnown(r.Minutes) {
			sum[r.League] += r.Minutes
			cnt[r.League]++
		}
	}
	out := make([]float64, t.Len())
	for i, r := range t.Rows {
		if cnt[r.League] == 0 {
			continue
		}
		v := r.Minutes / (sum[r.League] / float64(cnt[r.League]))
		if !model.IsKnown(v) {
			continue
		}
		out[i] = math.Max(0, math.Min(hi, v))
	}
	return out
}

func sustainability(t *model.Table, opts Options) []float64 {
	var diffs [][]float64
	for _, col := range []string{opts.GoalsDiff, opts.AssistsDiff} {
		if col != "" && t.HasColumn(col) {
			diffs = append(diffs, t.Column(col))
		}
	}
	out := make([]float64, t.Len())
	for i := range out {
		var over, under float64
		for _, d := range diffs {
			v := d[i]
			if !model.IsKnown(v) {
				continue
			}
			over += math.Max(v, 0)
			under += math.Max(-v, 0)
		}
		out[i] = Sustainability(over, under, opts.OverPenalty, opts.UnderPenalty, opts.Decay)
	}
	return out
}

// ApplyBudget returns the rows of t whose value_m is at most budget. Rows
// with unknown values carry Sentinel and never pass.
func ApplyBudget(t *model.Table, budget float64) *model.Table {
	return t.Filter(func(r *model.PlayerRecord) bool {
		v, ok := r.Get(ColValueM)
		return ok && model.IsKnown(v) && v < Sentinel && v <= budget
	})
}
