package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/model"
	"github.com/pable/go-scout-metrics/internal/pipeline"
	"github.com/pable/go-scout-metrics/internal/report"
	"github.com/pable/go-scout-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session against the database. The dataset is loaded once
and every score in the session shares one set of stage counters, printed by
'stats'. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

// shellSession holds what stays loaded between REPL commands.
type shellSession struct {
	db     *storage.DB
	table  *model.Table
	engine *pipeline.Engine
	tel    *pipeline.Telemetry
	last   *pipeline.Result
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	tel := pipeline.NewTelemetry()
	engine, err := newEngine(tel)
	if err != nil {
		return err
	}
	s := &shellSession{db: db, engine: engine, tel: tel}
	s.table, err = db.LoadDataset()
	if err != nil && !errors.Is(err, storage.ErrNoDataset) {
		return fmt.Errorf("load dataset: %w", err)
	}

	cGreeting.Println("scoutmetrics shell")
	if s.table == nil {
		cWarn.Println("no dataset imported; only 'list', 'show' and 'roles' will work")
	} else {
		cMuted.Printf("%d players loaded\n", len(s.table.Rows))
	}
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("scoutmetrics")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list", "runs":
			s.list()
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <run-prefix> [--player <id>]")
				continue
			}
			s.show(args[0], flagValue(args[1:], "--player"))
		case "score":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: score <role> [budget] [group=multiplier ...]")
				continue
			}
			s.score(args)
		case "save":
			s.save()
		case "player":
			season := flagValue(args, "--season")
			ids := withoutFlag(args, "--season")
			if len(ids) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <id> [<id>...] [--season <season>]")
				continue
			}
			s.player(ids, season)
		case "roles":
			report.PrintRoles(os.Stdout, s.engine.Catalog())
		case "leagues":
			s.leagues()
		case "stats":
			s.stats()
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list stored runs"},
		{"show <run-prefix>", "show a stored run's ranking"},
		{"show <run-prefix> --player <id>", "same, highlighting one player"},
		{"score <role> [budget] [group=x ...]", "score the dataset for a role"},
		{"save", "store the last score in the database"},
		{"player <id> [...] [--season <s>]", "score players under every matching role"},
		{"roles", "list configured roles"},
		{"leagues", "rank leagues by team playing style"},
		{"stats", "stage counters for this session"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) list() {
	runs, err := s.db.ListRuns()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(runs) == 0 {
		cMuted.Println("No runs stored yet.")
		return
	}
	cHeader.Fprintf(os.Stdout, "%-10s  %-6s  %-16s  %8s  %7s\n", "RUN", "ROLE", "CREATED", "BUDGET", "PLAYERS")
	cMuted.Fprintf(os.Stdout, "%-10s  %-6s  %-16s  %8s  %7s\n",
		"──────────", "──────", "────────────────", "────────", "───────")
	for _, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		budget := "none"
		if r.Budget > 0 {
			budget = fmt.Sprintf("%.1fm", r.Budget)
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-6s  %-16s  %8s  %7d\n",
			id, r.Role, r.CreatedAt.Format("2006-01-02 15:04"), budget, r.Players)
	}
}

func (s *shellSession) show(prefix, focus string) {
	if err := showRun(s.db, prefix, focus, cfg.Top, false); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func (s *shellSession) requireDataset() bool {
	if s.table == nil {
		cError.Fprintln(os.Stderr, "no dataset imported; run 'scoutmetrics import <players.csv>' first")
		return false
	}
	return true
}

// score parses "score <role> [budget] [group=multiplier ...]". A budget of 0
// skips the budget cut.
func (s *shellSession) score(args []string) {
	if !s.requireDataset() {
		return
	}
	p := pipeline.DefaultParams(args[0])
	p.MinMinutes = cfg.MinMinutes
	p.Budget = cfg.Budget

	var pairs []string
	for _, a := range args[1:] {
		if strings.Contains(a, "=") {
			pairs = append(pairs, a)
			continue
		}
		b, err := strconv.ParseFloat(a, 64)
		if err != nil || b < 0 {
			cError.Fprintf(os.Stderr, "invalid budget %q\n", a)
			return
		}
		p.Budget = b
	}
	if p.Budget == 0 {
		p.NoBudget = true
	}
	sliders, err := parseSliders(pairs, cfg.Sliders)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	p.Sliders = sliders

	res, err := s.engine.Run(s.table, p)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	s.last = res
	scored := res.Scored()
	report.PrintRunHeader(os.Stdout, runRecord(res, len(scored)))
	report.PrintRanking(os.Stdout, scored, cfg.Top, "")
}

func (s *shellSession) save() {
	if s.last == nil {
		cWarn.Fprintln(os.Stderr, "nothing to save; run 'score' first")
		return
	}
	scored := s.last.Scored()
	id, err := s.db.SaveRun(runRecord(s.last, len(scored)), scored)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	cMuted.Printf("saved run %s\n", id)
}

func (s *shellSession) player(ids []string, season string) {
	if !s.requireDataset() {
		return
	}
	for _, id := range ids {
		scores, err := scorePlayer(s.engine, s.table, id, season, cfg.MinMinutes)
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		cHeader.Printf("\n%s\n", id)
		if len(scores) == 0 {
			cMuted.Println("no scorable role")
			continue
		}
		report.PrintPlayerRoles(os.Stdout, scores)
	}
}

func (s *shellSession) leagues() {
	if !s.requireDataset() {
		return
	}
	styles, err := leagueStyles(s.table, cfg.MinMinutes)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintLeagueStyles(os.Stdout, styles)
}

func (s *shellSession) stats() {
	runs, err := s.tel.Runs()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(runs) == 0 {
		cMuted.Println("No scores in this session yet.")
		return
	}
	roleNames := make([]string, 0, len(runs))
	for r := range runs {
		roleNames = append(roleNames, r)
	}
	sort.Strings(roleNames)
	for _, r := range roleNames {
		fmt.Print("  ")
		cCmd.Printf("%-8s", r)
		fmt.Printf("%d runs\n", runs[r])
	}
	fmt.Println()

	stages, err := s.tel.Snapshot()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintTelemetry(os.Stdout, stages)
}

// withoutFlag returns args with name and its value removed.
func withoutFlag(args []string, name string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		if args[i] == name {
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out
}

// flagValue returns the token following name in args, or "".
func flagValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}
