package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/storage"
)

func init() {
	color.NoColor = true
}

func TestPrintMatchTable(t *testing.T) {
	var buf bytes.Buffer
	PrintMatchTable(&buf, []model.MatchSummary{{
		MatchID: "EUW1_1", Champion: "Jinx", Role: "BOTTOM", Win: true,
		Kills: 8, Deaths: 2, Assists: 6, CS: 240, VisionScore: 21, GameDurationSec: 1800,
		PlayedAt: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC), HasTimeline: true,
	}})
	out := buf.String()
	for _, want := range []string{"EUW1_1", "Jinx", "BOTTOM", "8/2/6", "7.00", "8.0", "30:00", "2026-03-01", "yes"} {
		assert.Contains(t, out, want)
	}
}

func TestPrintDeathTable(t *testing.T) {
	var buf bytes.Buffer
	PrintDeathTable(&buf, []model.DeathRecord{{
		MatchID: "EUW1_1", TimestampMs: 754000, Phase: model.PhaseMid, Zone: model.ZoneRiverBot,
		KillerChampion: "Elise", AssistingChampions: []string{"Caitlyn", "Nautilus"},
		GoldDiff: 620, CSDiff: -4, DeathType: model.DeathGank,
	}}, true)
	out := buf.String()
	for _, want := range []string{"MATCH", "EUW1_1", "12:34", "river_bot", "Elise", "Caitlyn, Nautilus", "gank", "+620", "-4"} {
		assert.Contains(t, out, want)
	}

	buf.Reset()
	PrintDeathTable(&buf, []model.DeathRecord{{MatchID: "EUW1_1"}}, false)
	assert.NotContains(t, buf.String(), "EUW1_1")
}

func TestPrintPatternTable(t *testing.T) {
	ps := []model.Pattern{
		{Key: model.PatternRiverDeathNoWard, Category: "vision", Occurrences: 4, Status: model.StatusActive,
			SampleMatchIDs: []string{"EUW1_1", "EUW1_2"}},
		{Key: model.PatternDiesToSameChampion, Subject: "Zed", Category: "matchup", Occurrences: 3,
			Status: model.StatusBroken, GamesSinceLast: 5, ImprovementStreak: 5},
	}
	var buf bytes.Buffer
	PrintPatternTable(&buf, ps, &ps[0])
	out := buf.String()

	assert.Contains(t, out, "river death no ward")
	assert.Contains(t, out, "dies to same champ (Zed)")
	assert.Contains(t, out, "EUW1_1 EUW1_2")
	assert.Contains(t, out, "4.00")
	assert.Contains(t, out, "0.50")
	assert.Contains(t, out, "broken")

	var marked []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, ">") {
			marked = append(marked, line)
		}
	}
	if assert.Len(t, marked, 1) {
		assert.Contains(t, marked[0], "river death no ward")
	}
}

func TestPrintPriority(t *testing.T) {
	var buf bytes.Buffer
	PrintPriority(&buf, nil)
	assert.Contains(t, buf.String(), "No active pattern")

	buf.Reset()
	PrintPriority(&buf, &model.Pattern{Key: model.PatternDiesWhenAhead, Category: "trading", Description: "Died 3 times while ahead in lane"})
	assert.Equal(t, "Focus: dies when ahead (trading)\n  Died 3 times while ahead in lane\n", buf.String())
}

func TestPrintZoneTable(t *testing.T) {
	var buf bytes.Buffer
	PrintZoneTable(&buf, []storage.ZoneCount{
		{Zone: model.ZoneBotLane, Count: 6},
		{Zone: model.ZoneRiverBot, Count: 3},
		{Zone: model.ZoneUnknown, Count: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "bot_lane")
	assert.Contains(t, out, "60%")
	assert.Contains(t, out, strings.Repeat("█", 20))
	assert.Contains(t, out, strings.Repeat("█", 10))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "0:00", clock(0))
	assert.Equal(t, "9:05", clock(545999))
	assert.Equal(t, "+3", signed(3))
	assert.Equal(t, "0", signed(0))
	assert.Equal(t, "-7", signed(-7))
	assert.Equal(t, "", bar(0, 5, 20))
	assert.Equal(t, "█", bar(1, 100, 20))
	assert.Equal(t, cActive, StatusColor(model.StatusActive))
	assert.Equal(t, cBroken, StatusColor(model.StatusBroken))
}

func TestPrintRows(t *testing.T) {
	var buf bytes.Buffer
	PrintRows(&buf, []string{"zone", "n"}, [][]string{{"river_top", "4"}, {"NULL", "1"}})
	out := buf.String()
	assert.Contains(t, out, "river_top")
	assert.Contains(t, out, "NULL")
}

func TestPrintPlayerOverviewTable(t *testing.T) {
	var buf bytes.Buffer
	PrintPlayerOverviewTable(&buf, []storage.PlayerOverview{{
		Player:  model.Player{RiotID: "Faker#KR1", Platform: "kr"},
		Matches: 4, Deaths: 10, ActivePatterns: 2,
	}})
	out := buf.String()
	for _, want := range []string{"Faker#KR1", "kr", "2.5", "ACTIVE PATTERNS"} {
		assert.Contains(t, out, want)
	}
}

func TestPrintTrendTable(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	PrintTrendTable(&buf, []storage.MatchTrend{
		{MatchID: "EUW1_1", PlayedAt: day, Champion: "Ahri", Deaths: 6, Early: 3, Mid: 2, Late: 1, Unwarded: 4, River: 2},
		{MatchID: "EUW1_2", PlayedAt: day.Add(24 * time.Hour), Champion: "Ahri", Win: true, Deaths: 3},
	})
	out := buf.String()
	assert.Contains(t, out, "EUW1_1")
	assert.Contains(t, out, "2026-03-02")
	assert.Contains(t, out, "6.0")
	assert.Contains(t, out, "4.5")
}
