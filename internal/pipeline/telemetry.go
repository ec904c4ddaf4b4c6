package pipeline

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Telemetry records per-stage durations and row counts on a private
// Prometheus registry. One Telemetry may be shared by several runs.
type Telemetry struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageRows     *prometheus.GaugeVec
	runs          *prometheus.CounterVec
	dropped       *prometheus.CounterVec
}

// NewTelemetry creates a Telemetry with its own registry.
func NewTelemetry() *Telemetry {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)
	return &Telemetry{
		registry: reg,
		stageDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scout",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"stage"}),
		stageRows: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "scout",
			Subsystem: "pipeline",
			Name:      "stage_rows",
			Help:      "Rows in the table after the stage last ran",
		}, []string{"stage"}),
		runs: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by role",
		}, []string{"role"}),
		dropped: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout",
			Subsystem: "pipeline",
			Name:      "dropped_rows_total",
			Help:      "Rows removed by filtering stages",
		}, []string{"stage"}),
	}
}

// Registry exposes the underlying registry.
func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

func (t *Telemetry) observe(stage string, d time.Duration, before, after int) {
	if t == nil {
		return
	}
	t.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	t.stageRows.WithLabelValues(stage).Set(float64(after))
	if before > after {
		t.dropped.WithLabelValues(stage).Add(float64(before - after))
	}
}

func (t *Telemetry) finish(role string) {
	if t == nil {
		return
	}
	t.runs.WithLabelValues(role).Inc()
}

// StageStats is the cumulative telemetry of one stage.
type StageStats struct {
	Stage   string
	Calls   uint64
	Seconds float64
	Rows    int
	Dropped int
}

// Snapshot gathers the registry into per-stage totals, in pipeline order.
func (t *Telemetry) Snapshot() ([]StageStats, error) {
	families, err := t.registry.Gather()
	if err != nil {
		return nil, err
	}
	by := make(map[string]*StageStats)
	get := func(m *dto.Metric) *StageStats {
		stage := labelValue(m, "stage")
		s, ok := by[stage]
		if !ok {
			s = &StageStats{Stage: stage}
			by[stage] = s
		}
		return s
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch f.GetName() {
			case "scout_pipeline_stage_duration_seconds":
				s := get(m)
				s.Calls = m.GetHistogram().GetSampleCount()
				s.Seconds = m.GetHistogram().GetSampleSum()
			case "scout_pipeline_stage_rows":
				get(m).Rows = int(m.GetGauge().GetValue())
			case "scout_pipeline_dropped_rows_total":
				get(m).Dropped = int(m.GetCounter().GetValue())
			}
		}
	}
	out := make([]StageStats, 0, len(by))
	for _, s := range by {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return stageOrder(out[i].Stage) < stageOrder(out[j].Stage) })
	return out, nil
}

// Runs returns the completed run count per role.
func (t *Telemetry) Runs() (map[string]uint64, error) {
	families, err := t.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]uint64)
	for _, f := range families {
		if f.GetName() != "scout_pipeline_runs_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			out[labelValue(m, "role")] = uint64(m.GetCounter().GetValue())
		}
	}
	return out, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func stageOrder(stage string) int {
	for i, s := range Stages {
		if s == stage {
			return i
		}
	}
	return len(Stages)
}
