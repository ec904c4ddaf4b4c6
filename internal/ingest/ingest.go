// Package ingest loads season-aggregate player statistics from CSV.
//
// Identity headers are matched case-insensitively against a small alias
// table; every other header becomes a numeric statistic column. Blank cells
// and the usual placeholders ("-", "NA", "N/A", "nan") load as unknown.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pable/go-scout-metrics/internal/model"
)

var (
	// ErrNoHeader is returned for an empty input.
	ErrNoHeader = errors.New("csv has no header row")
	// ErrDuplicatePlayer is returned when two rows share an ID and Season.
	ErrDuplicatePlayer = errors.New("duplicate player-season")
)

var identityAliases = map[string]string{
	"id":             model.ColID,
	"player_id":      model.ColID,
	"name":           model.ColName,
	"player":         model.ColName,
	"season":         model.ColSeason,
	"team":           model.ColTeam,
	"squad":          model.ColTeam,
	"club":           model.ColTeam,
	"league":         model.ColLeague,
	"comp":           model.ColLeague,
	"competition":    model.ColLeague,
	"age":            model.ColAge,
	"position_1":     model.ColPosition1,
	"position1":      model.ColPosition1,
	"pos":            model.ColPosition1,
	"position":       model.ColPosition1,
	"position_2":     model.ColPosition2,
	"position2":      model.ColPosition2,
	"minutes":        model.ColMinutes,
	"min":            model.ColMinutes,
	"mins":           model.ColMinutes,
	"value":          model.ColValue,
	"market_value":   model.ColValue,
	"transfer_value": model.ColValue,
}

// Report summarises one load.
type Report struct {
	Rows         int
	StatColumns  []string
	Identity     []string
	Missing      []string // identity columns absent from the header
	UnknownCells int
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (*model.Table, *Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, rep, err := Load(f)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, rep, nil
}

// Load reads a header row followed by one row per player-season.
func Load(r io.Reader) (*model.Table, *Report, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	identity := make(map[int]string)
	stats := make(map[int]string)
	seen := make(map[string]bool)
	rep := &Report{}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		name := h
		if id, ok := identityAliases[strings.ToLower(h)]; ok {
			name = id
		}
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		if _, ok := identityAliases[strings.ToLower(h)]; ok {
			identity[i] = name
		} else {
			stats[i] = name
			rep.StatColumns = append(rep.StatColumns, name)
		}
	}
	for _, c := range model.IdentityColumns {
		if seen[c] {
			rep.Identity = append(rep.Identity, c)
		} else {
			rep.Missing = append(rep.Missing, c)
		}
	}

	var rows []*model.PlayerRecord
	firstLine := make(map[[2]string]int)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		p := &model.PlayerRecord{
			Age:     model.Unknown,
			Minutes: model.Unknown,
			Stats:   make(map[string]float64, len(stats)),
		}
		for i, col := range identity {
			if i >= len(rec) {
				continue
			}
			setIdentity(p, col, strings.TrimSpace(rec[i]))
		}
		for i, col := range stats {
			v := model.Unknown
			if i < len(rec) {
				v = ParseNumber(rec[i])
			}
			if !model.IsKnown(v) {
				rep.UnknownCells++
			}
			p.Stats[col] = v
		}
		if p.ID == "" {
			p.ID = strconv.Itoa(line - 1)
		}
		key := [2]string{p.ID, p.Season}
		if prev, ok := firstLine[key]; ok {
			return nil, nil, fmt.Errorf("line %d: %w: id %s season %q already on line %d",
				line, ErrDuplicatePlayer, p.ID, p.Season, prev)
		}
		firstLine[key] = line
		rows = append(rows, p)
	}
	rep.Rows = len(rows)

	t := model.NewTable(rows)
	t.SetIdentityColumns(rep.Identity)
	return t, rep, nil
}

func setIdentity(p *model.PlayerRecord, col, v string) {
	switch col {
	case model.ColID:
		p.ID = v
	case model.ColName:
		p.Name = v
	case model.ColSeason:
		p.Season = v
	case model.ColTeam:
		p.Team = v
	case model.ColLeague:
		p.League = v
	case model.ColAge:
		p.Age = ParseAge(v)
	case model.ColPosition1:
		// "DF,MF" style cells carry both positions.
		if a, b, ok := strings.Cut(v, ","); ok {
			p.Position1 = strings.TrimSpace(a)
			if p.Position2 == "" {
				p.Position2 = strings.TrimSpace(b)
			}
		} else {
			p.Position1 = v
		}
	case model.ColPosition2:
		if v != "" {
			p.Position2 = v
		}
	case model.ColMinutes:
		p.Minutes = ParseNumber(v)
	case model.ColValue:
		p.Value = v
	}
}

// ParseNumber parses a numeric cell. Thousands separators are ignored;
// placeholders and garbage yield Unknown.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	switch strings.ToLower(s) {
	case "", "-", "na", "n/a", "nan", "null":
		return model.Unknown
	}
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Unknown
	}
	return v
}

// ParseAge accepts plain years or the "years-days" form, e.g. "23-151".
func ParseAge(s string) float64 {
	years, days, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok || years == "" {
		return ParseNumber(s)
	}
	y, d := ParseNumber(years), ParseNumber(days)
	if !model.IsKnown(y) {
		return model.Unknown
	}
	if model.IsKnown(d) {
		y += d / 365
	}
	return y
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
