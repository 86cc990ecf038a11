package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/patterns"
	"github.com/pable/go-lol-coach/internal/report"
	"github.com/pable/go-lol-coach/internal/storage"
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
	Use:   "shell [GameName#TAG|puuid]",
	Short: "Start an interactive REPL session",
	Long: "Open a persistent session against the coach database. Select a player with 'use'\n" +
		"(or pass one as an argument), then browse matches, deaths and patterns. Type 'help'.",
	Args: cobra.MaximumNArgs(1),
	RunE: runShell,
}

type shell struct {
	db     *storage.DB
	player *model.Player
}

func runShell(_ *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	sh := &shell{db: db}
	cGreeting.Println("lolcoach shell")
	cMuted.Println("type 'help' or 'exit'")
	if len(args) == 1 {
		sh.use(args[0])
	}
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("lolcoach")
		if sh.player != nil {
			cMuted.Printf(" (%s)", sh.player.RiotID)
		}
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
		case "players":
			sh.report(listPlayers(db))
		case "use":
			if len(args) != 1 {
				cError.Fprintln(os.Stderr, "usage: use <GameName#TAG|puuid>")
				continue
			}
			sh.use(args[0])
		case "sql":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: sql <query>")
				continue
			}
			sh.report(querySQL(db, strings.Join(args, " ")))
		case "archive":
			sh.archive()
		case "list", "matches", "patterns", "focus", "deaths", "zones", "show", "trend":
			if sh.player == nil {
				cWarn.Fprintln(os.Stderr, "no player selected: 'use <GameName#TAG>' first")
				continue
			}
			sh.playerCommand(cmd, args)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q: type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"players", "list stored players"},
		{"use <GameName#TAG|puuid>", "select a player"},
		{"list", "the player's analysed matches"},
		{"show <match-prefix>", "one match and its deaths"},
		{"deaths [early|mid|late]", "the player's most recent deaths"},
		{"zones", "death counts per map zone"},
		{"trend", "deaths per match, oldest first"},
		{"patterns", "tracked patterns with status"},
		{"focus", "the current priority pattern"},
		{"archive", "match archive size"},
		{"sql <query>", "raw SQL against the database"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-30s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (sh *shell) report(err error) {
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func (sh *shell) use(arg string) {
	p, err := resolvePlayer(sh.db, arg)
	if err != nil {
		sh.report(err)
		return
	}
	sh.player = p
	n, err := sh.db.CountSessions(p.ID)
	if err != nil {
		sh.report(err)
		return
	}
	cMuted.Printf("selected %s (%s, %d coaching sessions)\n", p.RiotID, p.Platform, n)
}

func (sh *shell) archive() {
	n, raw, stored, err := sh.db.ArchiveStats()
	if err != nil {
		sh.report(err)
		return
	}
	ratio := 0.0
	if stored > 0 {
		ratio = float64(raw) / float64(stored)
	}
	fmt.Printf("%d matches archived: %d KiB raw, %d KiB stored (%.1fx)\n", n, raw/1024, stored/1024, ratio)
}

func (sh *shell) playerCommand(cmd string, args []string) {
	id := sh.player.ID
	switch cmd {
	case "list", "matches":
		ms, err := sh.db.ListMatches(id, 20)
		if err != nil {
			sh.report(err)
			return
		}
		if len(ms) == 0 {
			cMuted.Println("No matches stored.")
			return
		}
		report.PrintMatchTable(os.Stdout, ms)

	case "show":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: show <match-prefix>")
			return
		}
		sh.report(showMatch(sh.db, id, args[0]))

	case "deaths":
		f := storage.DeathFilter{Limit: 25}
		if len(args) > 0 {
			f.Phase = model.GamePhase(args[0])
		}
		ds, err := sh.db.Deaths(id, f)
		if err != nil {
			sh.report(err)
			return
		}
		if len(ds) == 0 {
			cMuted.Println("No deaths match.")
			return
		}
		report.PrintDeathTable(os.Stdout, ds, true)

	case "trend":
		rows, err := sh.db.GetMatchTrend(id, 20)
		if err != nil {
			sh.report(err)
			return
		}
		if len(rows) == 0 {
			cMuted.Println("No analysed matches.")
			return
		}
		report.PrintTrendTable(os.Stdout, rows)

	case "zones":
		counts, err := sh.db.DeathsByZone(id)
		if err != nil {
			sh.report(err)
			return
		}
		report.PrintZoneTable(os.Stdout, counts)

	case "patterns", "focus":
		ps, err := sh.db.ListPatterns(id)
		if err != nil {
			sh.report(err)
			return
		}
		priority := patterns.Priority(ps)
		if cmd == "patterns" {
			if len(ps) == 0 {
				cMuted.Println("No patterns tracked yet.")
				return
			}
			cHeader.Printf("--- Patterns: %s ---\n", sh.player.RiotID)
			report.PrintPatternTable(os.Stdout, ps, priority)
			return
		}
		report.PrintPriority(os.Stdout, priority)
	}
}
