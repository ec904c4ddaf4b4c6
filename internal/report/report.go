package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-scout-metrics/internal/contextnorm"
	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/pipeline"
	"github.com/pable/go-scout-metrics/internal/rating"
	"github.com/pable/go-scout-metrics/internal/roles"
	"github.com/pable/go-scout-metrics/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// PrintRunHeader prints a one-line summary of a run's parameters.
func PrintRunHeader(w io.Writer, run model.ScoreRun) {
	id := run.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = "unsaved"
	}
	fmt.Fprintf(w, "\nRole: %s  |  Min minutes: %.0f  |  Budget: £%.1fm  |  Sliders: %s  |  Players: %d  |  Run: %s\n\n",
		run.Role, run.MinMinutes, run.Budget, formatSliders(run.Sliders), run.Players, id)
}

// PrintRanking prints the scored players in the given order. top limits the
// number of rows; zero prints all. focusID marks one player's row with ">".
func PrintRanking(w io.Writer, players []model.ScoredPlayer, top int, focusID string) {
	if len(players) == 0 {
		fmt.Fprintln(w, "No players passed the filters.")
		return
	}
	if top > 0 && len(players) > top {
		players = players[:top]
	}

	var indexNames []string
	for _, ix := range players[0].Indices {
		indexNames = append(indexNames, ix.Name)
	}

	table := newTable(w)
	header := []any{" ", "#", "NAME", "SEASON", "TEAM", "LEAGUE", "AGE", "MIN", "VALUE",
		"OVR", "OVR%", "GLOBAL%", "VALUE_EFF", "AGE_PREM", "RELIAB", "SUSTAIN", "BUY"}
	for _, n := range indexNames {
		header = append(header, strings.ToUpper(n)+"%")
	}
	table.Header(header...)

	for i, p := range players {
		marker := " "
		if focusID != "" && p.PlayerID == focusID {
			marker = ">"
		}
		row := []any{
			marker,
			strconv.Itoa(i + 1),
			p.Name,
			p.Season,
			p.Team,
			p.League,
			num(p.Age, "%.0f"),
			num(p.Minutes, "%.0f"),
			money(p.ValueM),
			num(p.OverallAdj, "%.2f"),
			num(p.OverallPct, "%.0f"),
			num(p.OverallPctGlobal, "%.0f"),
			num(p.ValueEff, "%.3f"),
			num(p.AgePremium, "%.2f"),
			num(p.Reliability, "%.2f"),
			num(p.Sustainability, "%.2f"),
			num(p.BuyScore, "%.2f"),
		}
		for _, ix := range p.Indices {
			row = append(row, num(ix.Pct, "%.0f"))
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintPlayerDetail prints one player's score breakdown with every index.
func PrintPlayerDetail(w io.Writer, role string, p model.ScoredPlayer) {
	fmt.Fprintf(w, "\n%s (%s)  |  %s, %s  |  Age %s  |  %s min [%s]  |  %s\n",
		p.Name, role, p.Team, p.League, num(p.Age, "%.0f"), num(p.Minutes, "%.0f"),
		sampleFlag(p.Minutes), money(p.ValueM))

	table := newTable(w)
	table.Header("INDEX", "VALUE", "PCT")
	for _, ix := range p.Indices {
		table.Append(ix.Name, num(ix.Value, "%.3f"), num(ix.Pct, "%.0f"))
	}
	table.Append("overall", num(p.OverallAdj, "%.3f"), num(p.OverallPct, "%.0f"))
	table.Append("buy_score", num(p.BuyScore, "%.3f"), "—")
	table.Render()
}

// PrintRuns prints stored runs, newest first.
func PrintRuns(w io.Writer, runs []model.ScoreRun) {
	table := newTable(w)
	table.Header("RUN", "CREATED", "ROLE", "MIN_MIN", "BUDGET", "SLIDERS", "PLAYERS")
	for _, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append(
			id,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Role,
			fmt.Sprintf("%.0f", r.MinMinutes),
			fmt.Sprintf("£%.1fm", r.Budget),
			formatSliders(r.Sliders),
			strconv.Itoa(r.Players),
		)
	}
	table.Render()
}

// PrintRunLeagues prints per-league aggregates of a stored run.
func PrintRunLeagues(w io.Writer, stats []storage.LeagueRunStats) {
	table := newTable(w)
	table.Header("LEAGUE", "PLAYERS", "PRICED", "AVG_VALUE", "AVG_OVR%", "AVG_BUY", "MAX_BUY")
	for _, s := range stats {
		avgValue := "—"
		if s.Priced > 0 {
			avgValue = fmt.Sprintf("£%.1fm", s.AvgValueM)
		}
		table.Append(
			s.League,
			strconv.Itoa(s.Players),
			strconv.Itoa(s.Priced),
			avgValue,
			fmt.Sprintf("%.0f", s.AvgOverall),
			fmt.Sprintf("%.2f", s.AvgBuyScore),
			fmt.Sprintf("%.2f", s.MaxBuyScore),
		)
	}
	table.Render()
}

// PrintRunHistory prints stored run appearances of players.
func PrintRunHistory(w io.Writer, entries []storage.PlayerRunEntry) {
	table := newTable(w)
	table.Header("RUN", "CREATED", "ROLE", "NAME", "SEASON", "RANK", "OVR%", "BUY")
	for _, e := range entries {
		id := e.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append(
			id,
			e.CreatedAt.Local().Format("2006-01-02"),
			e.Role,
			e.Name,
			e.Season,
			strconv.Itoa(e.Rank),
			num(e.OverallPct, "%.0f"),
			num(e.BuyScore, "%.2f"),
		)
	}
	table.Render()
}

// PrintLeagueStyles prints league-level style means with the league's rank
// per style in parentheses.
func PrintLeagueStyles(w io.Writer, styles []contextnorm.LeagueStyle) {
	table := newTable(w)
	header := []any{"LEAGUE", "TEAMS"}
	for _, c := range contextnorm.StyleClasses {
		header = append(header, strings.ToUpper(c))
	}
	table.Header(header...)
	for _, s := range styles {
		row := []any{s.League, strconv.Itoa(s.Teams)}
		for _, c := range contextnorm.StyleClasses {
			v := s.Means[c]
			if !model.IsKnown(v) {
				row = append(row, "—")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f (%d)", v, s.Ranks[c]))
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintLeagueMultipliers prints the strength multiplier applied to each
// league; leagues without a table entry show the fallback.
func PrintLeagueMultipliers(w io.Writer, m rating.LeagueMultipliers, leagues []string) {
	table := newTable(w)
	table.Header("LEAGUE", "MULTIPLIER", "SOURCE")
	for _, l := range leagues {
		src := "table"
		if !m.Has(l) {
			src = "default"
		}
		table.Append(l, fmt.Sprintf("%.2f", m.Lookup(l)), src)
	}
	table.Render()
}

// PrintRoles prints a one-line summary of every role in the catalog.
func PrintRoles(w io.Writer, cat roles.Catalog) {
	table := newTable(w)
	table.Header("ROLE", "POSITIONS", "METRICS", "INDICES", "GROUPS", "DESCRIPTION")
	for _, name := range cat.Names() {
		r := cat[name]
		table.Append(
			name,
			strings.Join(r.Positions, ","),
			strconv.Itoa(len(r.Baseline)),
			strings.Join(r.IndexNames(), ","),
			strings.Join(r.GroupNames(), ","),
			r.Description,
		)
	}
	table.Render()
}

// PrintRoleDetail prints a role's baseline formulas, index weights and
// group weights after slider normalization.
func PrintRoleDetail(w io.Writer, r roles.RoleConfig, weights map[string]float64) {
	fmt.Fprintf(w, "\nRole %s: %s\nPositions: %s\n\n", r.Name, r.Description, strings.Join(r.Positions, ", "))

	table := newTable(w)
	table.Header("METRIC", "FORMULA", "INVERTED")
	for _, m := range r.BaselineNames() {
		inv := ""
		if r.IsInverted(m) {
			inv = "yes"
		}
		table.Append(m, r.Baseline[m], inv)
	}
	table.Render()
	fmt.Fprintln(w)

	table = newTable(w)
	table.Header("INDEX", "METRIC", "WEIGHT")
	for _, ix := range r.IndexNames() {
		metrics := make([]string, 0, len(r.Indices[ix]))
		for m := range r.Indices[ix] {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			table.Append(ix, m, fmt.Sprintf("%+.2f", r.Indices[ix][m]))
		}
	}
	table.Render()
	fmt.Fprintln(w)

	table = newTable(w)
	table.Header("GROUP", "MEMBERS", "BASE", "EFFECTIVE")
	for _, g := range r.GroupNames() {
		eff := "—"
		if v, ok := weights[g]; ok {
			eff = fmt.Sprintf("%.3f", v)
		}
		table.Append(g, strings.Join(r.Groups[g], ","), fmt.Sprintf("%.2f", r.Weights[g]), eff)
	}
	table.Render()
}

// PrintPlayerRoles prints a player's score in every role that accepts them.
func PrintPlayerRoles(w io.Writer, scores map[string]model.ScoredPlayer) {
	names := make([]string, 0, len(scores))
	for n := range scores {
		names = append(names, n)
	}
	sort.Strings(names)

	table := newTable(w)
	table.Header("ROLE", "OVR", "OVR%", "VALUE_EFF", "AGE_PREM", "RELIAB", "SUSTAIN", "BUY")
	for _, n := range names {
		p := scores[n]
		table.Append(
			n,
			num(p.OverallAdj, "%.2f"),
			num(p.OverallPct, "%.0f"),
			num(p.ValueEff, "%.3f"),
			num(p.AgePremium, "%.2f"),
			num(p.Reliability, "%.2f"),
			num(p.Sustainability, "%.2f"),
			num(p.BuyScore, "%.2f"),
		)
	}
	table.Render()
}

// PrintTimings prints per-stage durations and output sizes of one run.
func PrintTimings(w io.Writer, timings []pipeline.StageTiming) {
	table := newTable(w)
	table.Header("STAGE", "ROWS", "TIME")
	var total time.Duration
	for _, t := range timings {
		total += t.Duration
		table.Append(t.Stage, strconv.Itoa(t.Rows), t.Duration.Round(time.Microsecond).String())
	}
	table.Append("total", "", total.Round(time.Microsecond).String())
	table.Render()
}

// PrintTelemetry prints cumulative stage telemetry.
func PrintTelemetry(w io.Writer, stats []pipeline.StageStats) {
	table := newTable(w)
	table.Header("STAGE", "CALLS", "ROWS", "DROPPED", "SECONDS")
	for _, s := range stats {
		table.Append(
			s.Stage,
			strconv.FormatUint(s.Calls, 10),
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.Dropped),
			fmt.Sprintf("%.4f", s.Seconds),
		)
	}
	table.Render()
}

// PrintDatasetOverview prints a summary of the stored dataset.
func PrintDatasetOverview(w io.Writer, o model.DatasetOverview, meta map[string]string) {
	fmt.Fprintf(w, "\nSource: %s  |  Imported: %s\n\n", or(meta[storage.MetaSource], "—"), or(meta[storage.MetaImportedAt], "—"))
	table := newTable(w)
	table.Header("PLAYERS", "TEAMS", "LEAGUES", "STATS", "MINUTES", "MEDIAN_AGE")
	table.Append(
		strconv.Itoa(o.Players),
		strconv.Itoa(o.Teams),
		strconv.Itoa(o.Leagues),
		strconv.Itoa(o.StatColumns),
		fmt.Sprintf("%.0f", o.TotalMinutes),
		num(o.MedianAge, "%.1f"),
	)
	table.Render()
}

// PrintQueryResult prints a text grid from storage.QueryRaw with a row count.
func PrintQueryResult(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

// sampleFlag grades how much a season's minutes can be trusted.
func sampleFlag(minutes float64) string {
	switch {
	case !model.IsKnown(minutes):
		return "UNKNOWN"
	case minutes >= 2000:
		return "OK"
	case minutes >= 1200:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

func num(v float64, format string) string {
	if !model.IsKnown(v) {
		return "—"
	}
	return fmt.Sprintf(format, v)
}

func money(m float64) string {
	if !model.IsKnown(m) {
		return "n/a"
	}
	if m < 1 {
		return fmt.Sprintf("£%.0fk", m*1000)
	}
	return fmt.Sprintf("£%.1fm", m)
}

func formatSliders(s map[string]float64) string {
	if len(s) == 0 {
		return "—"
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, s[k])
	}
	return strings.Join(parts, ",")
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
