package model

import (
	"math"
	"sort"
	"time"
)

// Identity column names as they appear in source datasets.
const (
	ColID        = "ID"
	ColName      = "Name"
	ColSeason    = "Season"
	ColTeam      = "Team"
	ColLeague    = "League"
	ColAge       = "Age"
	ColPosition1 = "Position_1"
	ColPosition2 = "Position_2"
	ColMinutes   = "Minutes"
	ColValue     = "Value"
)

// IdentityColumns lists every identity column in source order.
var IdentityColumns = []string{
	ColID, ColName, ColSeason, ColTeam, ColLeague, ColAge,
	ColPosition1, ColPosition2, ColMinutes, ColValue,
}

// Unknown is the value stored for a statistic that exists as a column but has
// no usable value for a given row.
var Unknown = math.NaN()

// IsKnown reports whether v is a finite value.
func IsKnown(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ---- Player-season records ----

// PlayerRecord is one player-season row. Stats holds both the raw numeric
// statistics loaded from the source and every derived column the pipeline
// appends.
type PlayerRecord struct {
	ID        string
	Name      string
	Season    string
	Team      string
	League    string
	Age       float64
	Position1 string
	Position2 string
	Minutes   float64
	Value     string // currency string, e.g. "£5m", "€750k"

	Stats map[string]float64
}

// Get returns the numeric value of a column. Age and Minutes are addressable
// by their identity column names. ok is false when the row has no such column.
func (r *PlayerRecord) Get(col string) (float64, bool) {
	switch col {
	case ColAge:
		return r.Age, true
	case ColMinutes:
		return r.Minutes, true
	}
	v, ok := r.Stats[col]
	return v, ok
}

// Set writes a numeric column value on the row.
func (r *PlayerRecord) Set(col string, v float64) {
	if r.Stats == nil {
		r.Stats = make(map[string]float64)
	}
	r.Stats[col] = v
}

// Per90 scales a season total to a per-90-minutes rate.
func (r *PlayerRecord) Per90(total float64) float64 {
	if r.Minutes <= 0 {
		return Unknown
	}
	return total / r.Minutes * 90
}

// Positions returns the non-empty position labels of the row.
func (r *PlayerRecord) Positions() []string {
	var out []string
	if r.Position1 != "" {
		out = append(out, r.Position1)
	}
	if r.Position2 != "" {
		out = append(out, r.Position2)
	}
	return out
}

func (r *PlayerRecord) clone() *PlayerRecord {
	cp := *r
	cp.Stats = make(map[string]float64, len(r.Stats))
	for k, v := range r.Stats {
		cp.Stats[k] = v
	}
	return &cp
}

// ---- Table ----

// Table is the in-memory player table every pipeline stage reads and extends.
// Columns are tracked at table level: a column exists when it was loaded from
// the source or appended by a stage, even if individual rows hold Unknown.
type Table struct {
	Rows []*PlayerRecord

	columns  map[string]struct{}
	order    []string
	identity map[string]struct{}
}

// NewTable builds a table from rows. Numeric columns are the union of the
// rows' Stats keys, in sorted order. All identity columns are assumed present.
func NewTable(rows []*PlayerRecord) *Table {
	t := &Table{
		Rows:     rows,
		columns:  make(map[string]struct{}),
		identity: make(map[string]struct{}, len(IdentityColumns)),
	}
	for _, c := range IdentityColumns {
		t.identity[c] = struct{}{}
	}
	var cols []string
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r.Stats {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	for _, c := range cols {
		t.addColumn(c)
	}
	return t
}

// SetIdentityColumns replaces the set of identity columns the source provided.
func (t *Table) SetIdentityColumns(cols []string) {
	t.identity = make(map[string]struct{}, len(cols))
	for _, c := range cols {
		t.identity[c] = struct{}{}
	}
}

// HasIdentity reports whether the source provided the identity column.
func (t *Table) HasIdentity(col string) bool {
	_, ok := t.identity[col]
	return ok
}

// IdentityColumns returns the identity columns present, in source order.
func (t *Table) IdentityColumns() []string {
	var out []string
	for _, c := range IdentityColumns {
		if t.HasIdentity(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether a numeric column exists.
func (t *Table) HasColumn(name string) bool {
	switch name {
	case ColAge, ColMinutes:
		return t.HasIdentity(name)
	}
	_, ok := t.columns[name]
	return ok
}

// Columns returns the numeric columns in the order they were added.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Column returns the values of a numeric column; rows lacking it yield Unknown.
func (t *Table) Column(name string) []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		v, ok := r.Get(name)
		if !ok {
			v = Unknown
		}
		out[i] = v
	}
	return out
}

// SetColumn writes vals onto every row and registers the column.
func (t *Table) SetColumn(name string, vals []float64) {
	if len(vals) != len(t.Rows) {
		panic("model: column length does not match table length")
	}
	for i, r := range t.Rows {
		r.Set(name, vals[i])
	}
	t.addColumn(name)
}

// Leagues returns the League value of every row.
func (t *Table) Leagues() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.League
	}
	return out
}

// Filter returns a table holding the rows for which keep returns true. Rows
// are shared with the receiver; the column registry is copied.
func (t *Table) Filter(keep func(*PlayerRecord) bool) *Table {
	out := t.emptyLike()
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Clone deep-copies the table so stages can extend it without touching the
// receiver's rows.
func (t *Table) Clone() *Table {
	out := t.emptyLike()
	out.Rows = make([]*PlayerRecord, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.clone()
	}
	return out
}

func (t *Table) emptyLike() *Table {
	out := &Table{
		columns:  make(map[string]struct{}, len(t.columns)),
		identity: make(map[string]struct{}, len(t.identity)),
	}
	for c := range t.identity {
		out.identity[c] = struct{}{}
	}
	for _, c := range t.order {
		out.addColumn(c)
	}
	return out
}

func (t *Table) addColumn(name string) {
	if _, ok := t.columns[name]; ok {
		return
	}
	t.columns[name] = struct{}{}
	t.order = append(t.order, name)
}

// ---- Scored output ----

// IndexScore is one composite index value and its percentile for a player.
type IndexScore struct {
	Name  string
	Value float64
	Pct   float64
}

// ScoredPlayer is the presentation-facing projection of a scored row.
type ScoredPlayer struct {
	PlayerID string
	Season   string
	Name     string
	Team     string
	League   string
	Age      float64
	Position string
	Minutes  float64
	Value    string
	ValueM   float64 // Unknown when Value could not be parsed

	OverallRaw       float64
	OverallAdj       float64
	OverallPct       float64
	OverallPctGlobal float64

	ValueEff       float64
	AgePremium     float64
	Reliability    float64
	Sustainability float64
	BuyScore       float64

	Indices []IndexScore
}

// ScoreRun describes one persisted pipeline run.
type ScoreRun struct {
	ID         string
	Role       string
	CreatedAt  time.Time
	MinMinutes float64
	Budget     float64
	Sliders    map[string]float64
	Players    int
}

// DatasetOverview is a lightweight summary of the stored source dataset.
type DatasetOverview struct {
	Players      int
	Teams        int
	Leagues      int
	StatColumns  int
	TotalMinutes float64
	MedianAge    float64
}
