package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pable/go-scout-metrics/internal/model"
)

// ErrNoDataset is returned when no dataset has been imported yet.
var ErrNoDataset = errors.New("no dataset imported")

// Meta keys written by ReplaceDataset.
const (
	MetaSource     = "source"
	MetaImportedAt = "imported_at"
)

// ReplaceDataset stores t as the current dataset, replacing any previous
// import. Rows are player-seasons: a repeated (ID, Season) pair fails the
// whole import. Unknown statistic values are not written.
func (db *DB) ReplaceDataset(t *model.Table, source string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"player_stats", "players", "dataset_columns", "dataset_meta"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	colStmt, err := tx.Prepare(`INSERT OR REPLACE INTO dataset_columns(name, kind, ordinal) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer colStmt.Close()
	ordinal := 0
	for _, c := range t.IdentityColumns() {
		if _, err := colStmt.Exec(c, "identity", ordinal); err != nil {
			return fmt.Errorf("insert column %s: %w", c, err)
		}
		ordinal++
	}
	for _, c := range t.Columns() {
		if _, err := colStmt.Exec(c, "stat", ordinal); err != nil {
			return fmt.Errorf("insert column %s: %w", c, err)
		}
		ordinal++
	}

	playerStmt, err := tx.Prepare(`
		INSERT INTO players(
			id, name, season, team, league, age, position_1, position_2, minutes, value
		) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer playerStmt.Close()

	statStmt, err := tx.Prepare(`INSERT INTO player_stats(player_seq, stat, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer statStmt.Close()

	for _, r := range t.Rows {
		res, err := playerStmt.Exec(
			r.ID, r.Name, r.Season, r.Team, r.League, nullFloat(r.Age),
			r.Position1, r.Position2, nullFloat(r.Minutes), r.Value,
		)
		if err != nil {
			return fmt.Errorf("insert player %s season %q: %w", r.ID, r.Season, err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert player %s: %w", r.ID, err)
		}
		for col, v := range r.Stats {
			if !model.IsKnown(v) {
				continue
			}
			if _, err := statStmt.Exec(seq, col, v); err != nil {
				return fmt.Errorf("insert stat %s for %s: %w", col, r.ID, err)
			}
		}
	}

	meta := map[string]string{
		MetaSource:     source,
		MetaImportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO dataset_meta(key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// LoadDataset rebuilds the stored dataset as a table. Every registered stat
// column is present on every row; values that were not stored are Unknown.
func (db *DB) LoadDataset() (*model.Table, error) {
	identity, stats, err := db.datasetColumns()
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(`
		SELECT seq, id, name, season, team, league, age, position_1, position_2, minutes, value
		FROM players ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*model.PlayerRecord
	bySeq := make(map[int64]*model.PlayerRecord)
	for rows.Next() {
		p := &model.PlayerRecord{Stats: make(map[string]float64, len(stats))}
		var seq int64
		var age, minutes sql.NullFloat64
		if err := rows.Scan(&seq, &p.ID, &p.Name, &p.Season, &p.Team, &p.League, &age,
			&p.Position1, &p.Position2, &minutes, &p.Value); err != nil {
			return nil, err
		}
		p.Age = fromNull(age)
		p.Minutes = fromNull(minutes)
		for _, c := range stats {
			p.Stats[c] = model.Unknown
		}
		players = append(players, p)
		bySeq[seq] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, ErrNoDataset
	}

	statRows, err := db.conn.Query(`SELECT player_seq, stat, value FROM player_stats`)
	if err != nil {
		return nil, err
	}
	defer statRows.Close()
	for statRows.Next() {
		var seq int64
		var name string
		var v float64
		if err := statRows.Scan(&seq, &name, &v); err != nil {
			return nil, err
		}
		if p, ok := bySeq[seq]; ok {
			p.Stats[name] = v
		}
	}
	if err := statRows.Err(); err != nil {
		return nil, err
	}

	t := model.NewTable(players)
	t.SetIdentityColumns(identity)
	return t, nil
}

func (db *DB) datasetColumns() (identity, stats []string, err error) {
	rows, err := db.conn.Query(`SELECT name, kind FROM dataset_columns ORDER BY ordinal`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, nil, err
		}
		if kind == "identity" {
			identity = append(identity, name)
		} else {
			stats = append(stats, name)
		}
	}
	return identity, stats, rows.Err()
}

// DatasetMeta returns the key/value metadata of the current import.
func (db *DB) DatasetMeta() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT key, value FROM dataset_meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// DatasetOverview summarises the stored dataset.
func (db *DB) DatasetOverview() (model.DatasetOverview, error) {
	var o model.DatasetOverview
	var total sql.NullFloat64
	err := db.conn.QueryRow(`
		SELECT COUNT(1), COUNT(DISTINCT league || '/' || team), COUNT(DISTINCT league), SUM(minutes)
		FROM players`).Scan(&o.Players, &o.Teams, &o.Leagues, &total)
	if err != nil {
		return o, err
	}
	o.TotalMinutes = total.Float64
	if err := db.conn.QueryRow(`SELECT COUNT(1) FROM dataset_columns WHERE kind = 'stat'`).Scan(&o.StatColumns); err != nil {
		return o, err
	}

	rows, err := db.conn.Query(`SELECT age FROM players WHERE age IS NOT NULL`)
	if err != nil {
		return o, err
	}
	defer rows.Close()
	var ages []float64
	for rows.Next() {
		var a float64
		if err := rows.Scan(&a); err != nil {
			return o, err
		}
		ages = append(ages, a)
	}
	if err := rows.Err(); err != nil {
		return o, err
	}
	o.MedianAge = model.Unknown
	if len(ages) > 0 {
		sort.Float64s(ages)
		o.MedianAge = stat.Quantile(0.5, stat.Empirical, ages, nil)
	}
	return o, nil
}

// QueryRaw runs an arbitrary read query and returns column names and every
// row rendered as text. NULL renders as an empty string.
func (db *DB) QueryRaw(query string, args ...any) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatCell(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// ErrUnknownStat is returned by StatLeaders for a column the dataset lacks.
var ErrUnknownStat = errors.New("unknown stat column")

// StatColumns returns the statistic columns of the current import in file
// order.
func (db *DB) StatColumns() ([]string, error) {
	_, stats, err := db.datasetColumns()
	return stats, err
}

// StatLeaders returns the player-seasons with the highest stored value of
// stat, optionally restricted to one league, as a text grid like QueryRaw.
// limit <= 0 returns every row.
func (db *DB) StatLeaders(stat, league string, limit int) ([]string, [][]string, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(1) FROM dataset_columns WHERE kind = 'stat' AND name = ?`, stat).Scan(&n); err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStat, stat)
	}
	if limit <= 0 {
		limit = -1
	}
	return db.QueryRaw(`
		SELECT p.id, p.season, p.name, p.team, p.league, p.minutes, s.value
		FROM player_stats s
		JOIN players p ON p.seq = s.player_seq
		WHERE s.stat = ? AND (? = '' OR p.league = ?)
		ORDER BY s.value DESC, p.id, p.season
		LIMIT ?`, stat, league, league, limit)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// nullFloat maps Unknown to SQL NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return model.Unknown
	}
	return v.Float64
}
