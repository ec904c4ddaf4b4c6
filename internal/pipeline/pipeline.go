// Package pipeline runs the scoring stages in their fixed order:
//
//	minutes filter -> context -> role filter -> baseline -> indices ->
//	overall -> buy score -> budget
//
// Context is computed over the full minutes-filtered population before the
// role filter, because team aggregates need the whole roster. The input table
// is never modified.
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-scout-metrics/internal/buyscore"
	"github.com/pable/go-scout-metrics/internal/contextnorm"
	"github.com/pable/go-scout-metrics/internal/formula"
	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/rating"
	"github.com/pable/go-scout-metrics/internal/roles"
	"github.com/pable/go-scout-metrics/internal/zscore"
)

// ErrUnknownRole is returned when Params.Role names no catalog entry.
var ErrUnknownRole = errors.New("unknown role")

// Stage names, in execution order.
const (
	StageMinutes  = "minutes"
	StageContext  = "context"
	StageRole     = "role"
	StageBaseline = "baseline"
	StageIndices  = "indices"
	StageOverall  = "overall"
	StageBuyScore = "buyscore"
	StageBudget   = "budget"
)

// Stages lists every stage in execution order.
var Stages = []string{
	StageMinutes, StageContext, StageRole, StageBaseline,
	StageIndices, StageOverall, StageBuyScore, StageBudget,
}

// Params are the per-run inputs.
type Params struct {
	Role       string
	MinMinutes float64
	Budget     float64
	// Sliders multiply group weights; keys naming no group are ignored.
	Sliders map[string]float64
	// NoBudget skips the final budget cut.
	NoBudget bool
}

// DefaultParams returns the default run parameters for role.
func DefaultParams(role string) Params {
	return Params{Role: role, MinMinutes: 900, Budget: 10}
}

// StageTiming is the duration and output size of one stage in one run.
type StageTiming struct {
	Stage    string
	Duration time.Duration
	Rows     int
}

// Result is the output of one run.
type Result struct {
	// Table is the role-filtered table with every derived column, after the
	// budget cut.
	Table *model.Table
	// Population is the minutes-filtered, context-normalized table of all
	// roles, for league-level reporting.
	Population *model.Table
	Teams      []contextnorm.TeamContext

	Role    roles.RoleConfig
	Params  Params
	Weights map[string]float64
	Timings []StageTiming
}

// Engine holds the immutable configuration a run needs.
type Engine struct {
	catalog roles.Catalog
	aliases roles.Aliases
	mult    rating.LeagueMultipliers
	ctxOpts contextnorm.Options
	buyOpts buyscore.Options
	log     logrus.FieldLogger
	tel     *Telemetry
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog sets the role catalog.
func WithCatalog(c roles.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithAliases sets the position alias table.
func WithAliases(a roles.Aliases) Option {
	return func(e *Engine) {
		if a != nil {
			e.aliases = a
		}
	}
}

// WithLeagueMultipliers sets the league-strength table.
func WithLeagueMultipliers(m rating.LeagueMultipliers) Option {
	return func(e *Engine) { e.mult = m }
}

// WithContextOptions overrides the context normalizer settings.
func WithContextOptions(o contextnorm.Options) Option {
	return func(e *Engine) { e.ctxOpts = o }
}

// WithBuyScoreOptions overrides the BuyScore constants.
func WithBuyScoreOptions(o buyscore.Options) Option {
	return func(e *Engine) { e.buyOpts = o }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTelemetry records stage metrics on t.
func WithTelemetry(t *Telemetry) Option {
	return func(e *Engine) { e.tel = t }
}

// New returns an Engine with the built-in catalog, aliases and league table.
func New(opts ...Option) *Engine {
	e := &Engine{
		catalog: roles.DefaultCatalog(),
		aliases: roles.DefaultAliases(),
		mult:    rating.DefaultLeagueMultipliers(),
		ctxOpts: contextnorm.DefaultOptions(),
		buyOpts: buyscore.DefaultOptions(),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the engine's role catalog.
func (e *Engine) Catalog() roles.Catalog { return e.catalog }

// Aliases returns the engine's position alias table.
func (e *Engine) Aliases() roles.Aliases { return e.aliases }

// Run scores in under p. An empty role population yields an empty table, not
// an error.
func (e *Engine) Run(in *model.Table, p Params) (*Result, error) {
	rc, ok := e.catalog.Get(p.Role)
	if !ok {
		return nil, fmt.Errorf("run pipeline: %w: %q", ErrUnknownRole, p.Role)
	}
	role, err := roles.Compile(rc)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	log := e.log.WithField("role", role.Name)
	for k := range p.Sliders {
		if _, ok := role.Groups[k]; !ok {
			log.WithField("slider", k).Debug("slider names no group, ignored")
		}
	}

	res := &Result{Role: role.RoleConfig, Params: p}
	var rows int
	stage := func(name string, fn func() (int, error)) error {
		start := time.Now()
		before := rows
		n, err := fn()
		if err != nil {
			return err
		}
		d := time.Since(start)
		rows = n
		res.Timings = append(res.Timings, StageTiming{Stage: name, Duration: d, Rows: n})
		e.tel.observe(name, d, before, n)
		log.WithFields(logrus.Fields{"stage": name, "rows": n, "elapsed": d}).Debug("stage done")
		return nil
	}

	rows = in.Len()
	var pop, t *model.Table
	var z *zscore.Scorer

	err = stage(StageMinutes, func() (int, error) {
		pop = in.Clone().Filter(func(r *model.PlayerRecord) bool {
			return model.IsKnown(r.Minutes) && r.Minutes >= p.MinMinutes
		})
		return pop.Len(), nil
	})
	if err == nil {
		err = stage(StageContext, func() (int, error) {
			teams, err := contextnorm.Normalize(pop, e.ctxOpts, log)
			res.Teams = teams
			return pop.Len(), err
		})
	}
	if err == nil {
		err = stage(StageRole, func() (int, error) {
			t = pop.Filter(func(r *model.PlayerRecord) bool {
				return role.Accepts(e.canonical(r)...)
			}).Clone()
			z = zscore.New(t)
			return t.Len(), nil
		})
	}
	if err == nil {
		err = stage(StageBaseline, func() (int, error) {
			return t.Len(), e.baseline(t, role, log)
		})
	}
	if err == nil {
		err = stage(StageIndices, func() (int, error) {
			rating.ComputeIndices(t, z, role.RoleConfig, log)
			return t.Len(), nil
		})
	}
	if err == nil {
		err = stage(StageOverall, func() (int, error) {
			res.Weights = rating.ComputeOverall(t, z, role.RoleConfig, p.Sliders, e.mult)
			return t.Len(), nil
		})
	}
	if err == nil {
		err = stage(StageBuyScore, func() (int, error) {
			buyscore.Compose(t, z, e.buyOpts, log)
			return t.Len(), nil
		})
	}
	if err == nil && !p.NoBudget {
		err = stage(StageBudget, func() (int, error) {
			t = buyscore.ApplyBudget(t, p.Budget)
			rating.RefreshPercentile(t)
			return t.Len(), nil
		})
	}
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	e.tel.finish(role.Name)
	res.Table = t
	res.Population = pop
	log.WithFields(logrus.Fields{"population": pop.Len(), "scored": t.Len()}).Info("pipeline run complete")
	return res, nil
}

func (e *Engine) canonical(r *model.PlayerRecord) []string {
	pos := r.Positions()
	out := make([]string, len(pos))
	for i, p := range pos {
		out[i] = e.aliases.Canonical(p)
	}
	return out
}

// baseline evaluates every role formula. Formulas whose columns are missing
// are skipped so the metric stays absent.
func (e *Engine) baseline(t *model.Table, role *roles.Compiled, log logrus.FieldLogger) error {
	for _, name := range role.BaselineNames() {
		err := formula.Apply(t, name, role.Formulas[name])
		switch {
		case err == nil:
		case errors.Is(err, formula.ErrUnknownColumn):
			log.WithFields(logrus.Fields{"metric": name, "reason": err.Error()}).Debug("baseline metric skipped")
		default:
			return fmt.Errorf("baseline %s: %w", name, err)
		}
	}
	return nil
}

// Scored projects the result table into presentation records ordered by
// BuyScore, best first.
func (r *Result) Scored() []model.ScoredPlayer {
	idx := r.Role.IndexNames()
	out := make([]model.ScoredPlayer, 0, r.Table.Len())
	for _, row := range r.Table.Rows {
		col := func(name string) float64 {
			v, ok := row.Get(name)
			if !ok {
				return model.Unknown
			}
			return v
		}
		sp := model.ScoredPlayer{
			PlayerID:         row.ID,
			Season:           row.Season,
			Name:             row.Name,
			Team:             row.Team,
			League:           row.League,
			Age:              row.Age,
			Position:         row.Position1,
			Minutes:          row.Minutes,
			Value:            row.Value,
			ValueM:           col(buyscore.ColValueM),
			OverallRaw:       col(rating.ColOverallRaw),
			OverallAdj:       col(rating.ColOverallAdj),
			OverallPct:       col(rating.ColOverallPct),
			OverallPctGlobal: col(rating.ColOverallPctGlobal),
			ValueEff:         col(buyscore.ColValueEff),
			AgePremium:       col(buyscore.ColAgePremium),
			Reliability:      col(buyscore.ColReliability),
			Sustainability:   col(buyscore.ColSustainability),
			BuyScore:         col(buyscore.ColBuyScore),
		}
		if sp.ValueM >= buyscore.Sentinel {
			sp.ValueM = model.Unknown
		}
		for _, name := range idx {
			sp.Indices = append(sp.Indices, model.IndexScore{
				Name:  name,
				Value: col(rating.IndexName(name)),
				Pct:   col(rating.IndexPctName(name)),
			})
		}
		out = append(out, sp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BuyScore > out[j].BuyScore })
	return out
}
