package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/storage"
)

var (
	cActive    = color.New(color.FgRed, color.Bold)
	cImproving = color.New(color.FgYellow)
	cBroken    = color.New(color.FgGreen)
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintMatchSummary prints a one-line header for a stored match.
func PrintMatchSummary(w io.Writer, s model.MatchSummary) {
	result := "LOSS"
	if s.Win {
		result = "WIN"
	}
	fmt.Fprintf(w, "\nMatch: %s  |  Date: %s  |  %s %s  |  %s  |  %d/%d/%d  |  Duration: %s\n\n",
		s.MatchID, s.PlayedAt.Format("2006-01-02 15:04"), s.Champion, roleLabel(s.Role),
		result, s.Kills, s.Deaths, s.Assists, clock(int64(s.GameDurationSec)*1000))
}

// PrintMatchTable lists stored matches.
func PrintMatchTable(w io.Writer, matches []model.MatchSummary) {
	table := newTable(w)
	table.Header("DATE", "MATCH", "CHAMPION", "ROLE", "RESULT", "K/D/A", "KDA", "CS", "CS/MIN", "VISION", "DURATION", "TIMELINE")

	for i := range matches {
		s := &matches[i]
		result := "L"
		if s.Win {
			result = "W"
		}
		tl := "no"
		if s.HasTimeline {
			tl = "yes"
		}
		table.Append(
			s.PlayedAt.Format("2006-01-02"),
			s.MatchID,
			s.Champion,
			roleLabel(s.Role),
			result,
			fmt.Sprintf("%d/%d/%d", s.Kills, s.Deaths, s.Assists),
			fmt.Sprintf("%.2f", s.KDA()),
			strconv.Itoa(s.CS),
			fmt.Sprintf("%.1f", s.CSPerMin()),
			strconv.Itoa(s.VisionScore),
			clock(int64(s.GameDurationSec)*1000),
			tl,
		)
	}
	table.Render()
}

// PrintDeathTable lists death records. When showMatch is set the match id
// column is included.
func PrintDeathTable(w io.Writer, ds []model.DeathRecord, showMatch bool) {
	table := newTable(w)
	header := []any{"TIME", "PHASE", "ZONE", "KILLER", "ASSISTS", "TYPE", "WARD", "GOLD±", "CS±", "LVL±"}
	if showMatch {
		header = append([]any{"MATCH"}, header...)
	}
	table.Header(header...)

	for i := range ds {
		d := &ds[i]
		assists := "—"
		if len(d.AssistingChampions) > 0 {
			assists = strings.Join(d.AssistingChampions, ", ")
		}
		ward := "no"
		if d.HadWardNearby {
			ward = "yes"
		}
		row := []any{
			clock(d.TimestampMs),
			string(d.Phase),
			string(d.Zone),
			d.KillerChampion,
			assists,
			string(d.DeathType),
			ward,
			signed(d.GoldDiff),
			signed(d.CSDiff),
			signed(d.LevelDiff),
		}
		if showMatch {
			row = append([]any{d.MatchID}, row...)
		}
		table.Append(row...)
	}
	table.Render()
}

// PrintPatternTable lists tracked patterns with their status colored.
// The priority pattern, if any, is marked with ">".
func PrintPatternTable(w io.Writer, ps []model.Pattern, priority *model.Pattern) {
	table := newTable(w)
	table.Header(" ", "PATTERN", "CATEGORY", "OCC", "STATUS", "SINCE", "STREAK", "SCORE", "SAMPLES")

	for i := range ps {
		p := &ps[i]
		marker := " "
		if priority != nil && p.Key == priority.Key && p.Subject == priority.Subject {
			marker = ">"
		}
		table.Append(
			marker,
			p.Label(),
			p.Category,
			strconv.Itoa(p.Occurrences),
			StatusColor(p.Status).Sprint(string(p.Status)),
			strconv.Itoa(p.GamesSinceLast),
			strconv.Itoa(p.ImprovementStreak),
			fmt.Sprintf("%.2f", p.PriorityScore()),
			strings.Join(p.SampleMatchIDs, " "),
		)
	}
	table.Render()
}

// PrintPriority describes the current focus pattern.
func PrintPriority(w io.Writer, p *model.Pattern) {
	if p == nil {
		fmt.Fprintln(w, "No active pattern: nothing to focus on right now.")
		return
	}
	fmt.Fprintf(w, "Focus: %s (%s)\n  %s\n", p.Label(), p.Category, p.Description)
}

// StatusColor returns the color used for a pattern status.
func StatusColor(s model.PatternStatus) *color.Color {
	switch s {
	case model.StatusActive:
		return cActive
	case model.StatusImproving:
		return cImproving
	case model.StatusBroken:
		return cBroken
	}
	return color.New()
}

// PrintZoneTable prints death counts per zone with a proportional bar.
func PrintZoneTable(w io.Writer, counts []storage.ZoneCount) {
	total, most := 0, 0
	for _, c := range counts {
		total += c.Count
		most = max(most, c.Count)
	}

	table := newTable(w)
	table.Header("ZONE", "DEATHS", "SHARE", "")
	for _, c := range counts {
		share := 0.0
		if total > 0 {
			share = float64(c.Count) / float64(total) * 100
		}
		table.Append(
			string(c.Zone),
			strconv.Itoa(c.Count),
			fmt.Sprintf("%.0f%%", share),
			bar(c.Count, most, 20),
		)
	}
	table.Render()
}

func bar(n, most, width int) string {
	if most == 0 || n == 0 {
		return ""
	}
	filled := n * width / most
	if filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", filled)
}

// clock formats milliseconds as m:ss.
func clock(ms int64) string {
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func signed(v int) string {
	if v > 0 {
		return "+" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

func roleLabel(role string) string {
	if role == "" {
		return "—"
	}
	return role
}

// PrintRows prints an arbitrary result set, as returned by a raw query.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
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
}

// PrintPlayerOverviewTable lists tracked players with their stored counts.
func PrintPlayerOverviewTable(w io.Writer, ps []storage.PlayerOverview) {
	table := newTable(w)
	table.Header("RIOT ID", "PLATFORM", "MATCHES", "DEATHS", "DEATHS/GAME", "ACTIVE PATTERNS")
	for i := range ps {
		p := &ps[i]
		table.Append(
			p.Player.RiotID,
			p.Player.Platform,
			strconv.Itoa(p.Matches),
			strconv.Itoa(p.Deaths),
			fmt.Sprintf("%.1f", p.DeathsPerGame()),
			strconv.Itoa(p.ActivePatterns),
		)
	}
	table.Render()
}

// PrintTrendTable prints one row per match, oldest first, with a running
// average of deaths per game.
func PrintTrendTable(w io.Writer, rows []storage.MatchTrend) {
	table := newTable(w)
	table.Header("DATE", "MATCH", "CHAMPION", "RESULT", "DEATHS", "EARLY", "MID", "LATE", "NO WARD", "RIVER", "AVG DEATHS")

	total := 0
	for i := range rows {
		r := &rows[i]
		total += r.Deaths
		result := "L"
		if r.Win {
			result = "W"
		}
		table.Append(
			r.PlayedAt.Format("2006-01-02"),
			r.MatchID,
			r.Champion,
			result,
			strconv.Itoa(r.Deaths),
			strconv.Itoa(r.Early),
			strconv.Itoa(r.Mid),
			strconv.Itoa(r.Late),
			strconv.Itoa(r.Unwarded),
			strconv.Itoa(r.River),
			fmt.Sprintf("%.1f", float64(total)/float64(i+1)),
		)
	}
	table.Render()
}
