package rating

import (
	"sort"
	"strings"
)

// DefaultLeagueMultiplier applies to leagues missing from the table.
const DefaultLeagueMultiplier = 0.8

// LeagueMultipliers is the immutable league-strength lookup used to scale
// Overall_raw into Overall_adj.
type LeagueMultipliers struct {
	table map[string]float64
	def   float64
}

// NewLeagueMultipliers copies table; keys match case-insensitively.
func NewLeagueMultipliers(table map[string]float64, def float64) LeagueMultipliers {
	m := LeagueMultipliers{table: make(map[string]float64, len(table)), def: def}
	for k, v := range table {
		m.table[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return m
}

// DefaultLeagueTable returns the built-in strength table for the major
// European competitions.
func DefaultLeagueTable() map[string]float64 {
	return map[string]float64{
		"Premier League":     1.00,
		"La Liga":            0.97,
		"Bundesliga":         0.95,
		"Serie A":            0.95,
		"Ligue 1":            0.92,
		"Primeira Liga":      0.85,
		"Eredivisie":         0.85,
		"Championship":       0.82,
		"Belgian Pro League": 0.82,
	}
}

// DefaultLeagueMultipliers wraps DefaultLeagueTable with the default fallback.
func DefaultLeagueMultipliers() LeagueMultipliers {
	return NewLeagueMultipliers(DefaultLeagueTable(), DefaultLeagueMultiplier)
}

// Lookup returns the multiplier of league, or the default.
func (m LeagueMultipliers) Lookup(league string) float64 {
	if v, ok := m.table[strings.ToLower(strings.TrimSpace(league))]; ok {
		return v
	}
	return m.def
}

// Has reports whether league has its own table entry.
func (m LeagueMultipliers) Has(league string) bool {
	_, ok := m.table[strings.ToLower(strings.TrimSpace(league))]
	return ok
}

// Default returns the fallback multiplier.
func (m LeagueMultipliers) Default() float64 { return m.def }

// Leagues returns the configured league keys in sorted order.
func (m LeagueMultipliers) Leagues() []string {
	out := make([]string, 0, len(m.table))
	for k := range m.table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
