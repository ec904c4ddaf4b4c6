package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-scout-metrics/internal/model"
)

// SaveRun stores a scored run and its ranking. A missing run ID is filled with
// a new UUID; the stored ID is returned. Rank follows the order of scored.
func (db *DB) SaveRun(run model.ScoreRun, scored []model.ScoredPlayer) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	sliders, err := json.Marshal(run.Sliders)
	if err != nil {
		return "", fmt.Errorf("encode sliders: %w", err)
	}
	if run.Sliders == nil {
		sliders = []byte("{}")
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs(id, role, created_at, min_minutes, budget, sliders, players)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Role, run.CreatedAt.Format(time.RFC3339Nano),
		run.MinMinutes, run.Budget, string(sliders), len(scored),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	scoreStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO run_scores(
			run_id, rank, player_id, season, name, team, league, age, position, minutes, value, value_m,
			overall_raw, overall_adj, overall_pct, overall_pct_global,
			value_eff, age_premium, reliability, sustainability, buy_score
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return "", err
	}
	defer scoreStmt.Close()

	idxStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO run_indices(run_id, rank, name, value, pct)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer idxStmt.Close()

	for i, p := range scored {
		rank := i + 1
		_, err = scoreStmt.Exec(
			run.ID, rank, p.PlayerID, p.Season, p.Name, p.Team, p.League,
			nullFloat(p.Age), p.Position, nullFloat(p.Minutes), p.Value, nullFloat(p.ValueM),
			nullFloat(p.OverallRaw), nullFloat(p.OverallAdj), nullFloat(p.OverallPct), nullFloat(p.OverallPctGlobal),
			nullFloat(p.ValueEff), nullFloat(p.AgePremium), nullFloat(p.Reliability),
			nullFloat(p.Sustainability), nullFloat(p.BuyScore),
		)
		if err != nil {
			return "", fmt.Errorf("insert run_scores for %s: %w", p.PlayerID, err)
		}
		for _, ix := range p.Indices {
			if _, err := idxStmt.Exec(run.ID, rank, ix.Name, nullFloat(ix.Value), nullFloat(ix.Pct)); err != nil {
				return "", fmt.Errorf("insert run_indices for %s: %w", p.PlayerID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

const runColumns = `id, role, created_at, min_minutes, budget, sliders, players`

// ListRuns returns all stored runs, newest first.
func (db *DB) ListRuns() ([]model.ScoreRun, error) {
	rows, err := db.conn.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScoreRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRunByPrefix finds the newest run whose ID starts with prefix. It returns
// nil, nil when nothing matches.
func (db *DB) GetRunByPrefix(prefix string) (*model.ScoreRun, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id LIKE ?
		ORDER BY created_at DESC LIMIT 1`, prefix+"%")
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.ScoreRun, error) {
	var r model.ScoreRun
	var created, sliders string
	if err := s.Scan(&r.ID, &r.Role, &created, &r.MinMinutes, &r.Budget, &sliders, &r.Players); err != nil {
		return r, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return r, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	r.CreatedAt = t
	if err := json.Unmarshal([]byte(sliders), &r.Sliders); err != nil {
		return r, fmt.Errorf("decode sliders: %w", err)
	}
	return r, nil
}

// GetRunScores returns the ranking of a run, in rank order, with indices.
func (db *DB) GetRunScores(runID string) ([]model.ScoredPlayer, error) {
	rows, err := db.conn.Query(`
		SELECT rank, player_id, season, name, team, league, age, position, minutes, value, value_m,
			overall_raw, overall_adj, overall_pct, overall_pct_global,
			value_eff, age_premium, reliability, sustainability, buy_score
		FROM run_scores WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScoredPlayer
	pos := make(map[int]int)
	for rows.Next() {
		var rank int
		var p model.ScoredPlayer
		var f [12]sql.NullFloat64
		if err := rows.Scan(&rank, &p.PlayerID, &p.Season, &p.Name, &p.Team, &p.League, &f[0], &p.Position,
			&f[1], &p.Value, &f[2], &f[3], &f[4], &f[5], &f[6], &f[7], &f[8], &f[9], &f[10], &f[11]); err != nil {
			return nil, err
		}
		p.Age, p.Minutes, p.ValueM = fromNull(f[0]), fromNull(f[1]), fromNull(f[2])
		p.OverallRaw, p.OverallAdj = fromNull(f[3]), fromNull(f[4])
		p.OverallPct, p.OverallPctGlobal = fromNull(f[5]), fromNull(f[6])
		p.ValueEff, p.AgePremium, p.Reliability = fromNull(f[7]), fromNull(f[8]), fromNull(f[9])
		p.Sustainability, p.BuyScore = fromNull(f[10]), fromNull(f[11])
		pos[rank] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idxRows, err := db.conn.Query(`
		SELECT rank, name, value, pct FROM run_indices
		WHERE run_id = ? ORDER BY rank, name`, runID)
	if err != nil {
		return nil, err
	}
	defer idxRows.Close()
	for idxRows.Next() {
		var rank int
		var ix model.IndexScore
		var v, pct sql.NullFloat64
		if err := idxRows.Scan(&rank, &ix.Name, &v, &pct); err != nil {
			return nil, err
		}
		ix.Value, ix.Pct = fromNull(v), fromNull(pct)
		if i, ok := pos[rank]; ok {
			out[i].Indices = append(out[i].Indices, ix)
		}
	}
	return out, idxRows.Err()
}

// DeleteRun removes a run and its scores. It reports whether the run existed.
func (db *DB) DeleteRun(runID string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	for _, q := range []string{
		`DELETE FROM run_scores WHERE run_id = ?`,
		`DELETE FROM run_indices WHERE run_id = ?`,
	} {
		if _, err := tx.Exec(q, runID); err != nil {
			return false, err
		}
	}
	return n > 0, tx.Commit()
}
