package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// LeagueRunStats aggregates one league's rows within a stored run.
type LeagueRunStats struct {
	League      string
	Players     int
	AvgBuyScore float64
	MaxBuyScore float64
	AvgOverall  float64 // mean overall_pct
	AvgValueM   float64 // mean over priced players only
	Priced      int
}

// PlayerRunEntry is one appearance of a player in a stored run.
type PlayerRunEntry struct {
	RunID      string
	Role       string
	CreatedAt  time.Time
	PlayerID   string
	Season     string
	Name       string
	Rank       int
	BuyScore   float64
	OverallPct float64
}

// RunLeagueSummary returns per-league aggregates for a run, ordered by mean
// buy score descending.
func (db *DB) RunLeagueSummary(runID string) ([]LeagueRunStats, error) {
	rows, err := db.conn.Query(`
		SELECT league,
			COUNT(1),
			COALESCE(AVG(buy_score), 0),
			COALESCE(MAX(buy_score), 0),
			COALESCE(AVG(overall_pct), 0),
			COALESCE(AVG(CASE WHEN value_m IS NOT NULL THEN value_m END), 0),
			COUNT(value_m)
		FROM run_scores
		WHERE run_id = ?
		GROUP BY league
		ORDER BY AVG(buy_score) DESC, league`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeagueRunStats
	for rows.Next() {
		var s LeagueRunStats
		if err := rows.Scan(&s.League, &s.Players, &s.AvgBuyScore, &s.MaxBuyScore,
			&s.AvgOverall, &s.AvgValueM, &s.Priced); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PlayerRunHistory returns every stored run entry for the given player IDs,
// newest run first.
func (db *DB) PlayerRunHistory(playerIDs []string) ([]PlayerRunEntry, error) {
	if len(playerIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}
	q := fmt.Sprintf(`
		SELECT r.id, r.role, r.created_at, s.player_id, s.season, s.name, s.rank, s.buy_score, s.overall_pct
		FROM run_scores s
		JOIN runs r ON r.id = s.run_id
		WHERE s.player_id IN (%s)
		ORDER BY r.created_at DESC, s.rank`, placeholders(len(playerIDs)))
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRunEntry
	for rows.Next() {
		var e PlayerRunEntry
		var created string
		var buy, pct sql.NullFloat64
		if err := rows.Scan(&e.RunID, &e.Role, &created, &e.PlayerID, &e.Season, &e.Name, &e.Rank, &buy, &pct); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		e.CreatedAt = t
		e.BuyScore, e.OverallPct = fromNull(buy), fromNull(pct)
		out = append(out, e)
	}
	return out, rows.Err()
}

// placeholders returns a comma-separated string of n "?" for SQL IN clauses,
// e.g. placeholders(3) → "?,?,?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
