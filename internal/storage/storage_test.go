package storage

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/pable/go-lol-coach/internal/model"
	"github.com/pable/go-lol-coach/internal/patterns"
)

var _ patterns.Store = (*DB)(nil)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustPlayer(t *testing.T, db *DB, puuid string) *model.Player {
	t.Helper()
	p, err := db.GetOrCreatePlayer(puuid, "Faker#KR1", "kr")
	if err != nil {
		t.Fatalf("GetOrCreatePlayer: %v", err)
	}
	return p
}

func TestGetOrCreatePlayer(t *testing.T) {
	db := openMemDB(t)

	p1 := mustPlayer(t, db, "puuid-1")
	if p1.ID == 0 {
		t.Fatal("expected non-zero player id")
	}

	// Same PUUID, empty riot id: row reused, riot id kept.
	p2, err := db.GetOrCreatePlayer("puuid-1", "", "")
	if err != nil {
		t.Fatalf("GetOrCreatePlayer again: %v", err)
	}
	if p2.ID != p1.ID {
		t.Errorf("expected same id %d, got %d", p1.ID, p2.ID)
	}
	if p2.RiotID != "Faker#KR1" || p2.Platform != "kr" {
		t.Errorf("riot id/platform lost: %+v", p2)
	}

	byRiot, err := db.GetPlayerByRiotID("faker#kr1")
	if err != nil {
		t.Fatalf("GetPlayerByRiotID: %v", err)
	}
	if byRiot == nil || byRiot.ID != p1.ID {
		t.Errorf("case-insensitive riot id lookup failed: %+v", byRiot)
	}

	missing, err := db.GetPlayerByPUUID("nope")
	if err != nil {
		t.Fatalf("GetPlayerByPUUID: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown puuid")
	}

	if _, err := db.GetOrCreatePlayer("", "x", "y"); err == nil {
		t.Error("expected error for empty puuid")
	}

	list, err := db.ListPlayers()
	if err != nil {
		t.Fatalf("ListPlayers: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 player, got %d", len(list))
	}
}

func sampleDeaths(matchID string) []model.DeathRecord {
	return []model.DeathRecord{
		{
			MatchID: matchID, TimestampMs: 300000, Phase: model.PhaseEarly,
			X: 4000, Y: 13000, Zone: model.ZoneRiverTop,
			KillerChampion: "Elise", KillerParticipantID: 7,
			AssistingChampions: []string{"Caitlyn", "Nautilus"},
			GoldDiff: 600, CSDiff: 12, LevelDiff: 1, PlayerGold: 3200,
			PlayerChampion: "Jinx", DeathType: model.DeathGank,
		},
		{
			MatchID: matchID, TimestampMs: 900000, Phase: model.PhaseMid,
			X: 9000, Y: 1500, Zone: model.ZoneBotLane,
			KillerChampion: "Caitlyn", KillerParticipantID: 6,
			HadWardNearby: true, PlayerChampion: "Jinx", DeathType: model.DeathSoloKill,
		},
	}
}

func TestSaveMatchRoundTrip(t *testing.T) {
	db := openMemDB(t)
	p := mustPlayer(t, db, "puuid-1")

	played := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	s := model.MatchSummary{
		MatchID: "NA1_5000", PlayerID: p.ID, Champion: "Jinx", Role: "BOTTOM", Win: true,
		Kills: 8, Deaths: 2, Assists: 10, CS: 210, VisionScore: 18,
		GameDurationSec: 1800, PlayedAt: played, HasTimeline: true,
	}
	if err := db.SaveMatch(s, sampleDeaths("NA1_5000")); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}

	exists, err := db.MatchExists(p.ID, "NA1_5000")
	if err != nil {
		t.Fatalf("MatchExists: %v", err)
	}
	if !exists {
		t.Error("expected match to exist")
	}

	got, err := db.GetMatchByPrefix(p.ID, "5000")
	if err != nil {
		t.Fatalf("GetMatchByPrefix: %v", err)
	}
	if got == nil {
		t.Fatal("expected match for prefix without region")
	}
	if !got.Win || got.CS != 210 || !got.PlayedAt.Equal(played) || !got.HasTimeline {
		t.Errorf("summary mismatch: %+v", got)
	}

	deaths, err := db.Deaths(p.ID, DeathFilter{})
	if err != nil {
		t.Fatalf("Deaths: %v", err)
	}
	if len(deaths) != 2 {
		t.Fatalf("expected 2 deaths, got %d", len(deaths))
	}
	d := deaths[0]
	if d.Zone != model.ZoneRiverTop || d.Phase != model.PhaseEarly || d.DeathType != model.DeathGank {
		t.Errorf("enum round trip failed: %+v", d)
	}
	if len(d.AssistingChampions) != 2 || d.AssistingChampions[1] != "Nautilus" {
		t.Errorf("assisting champions: %v", d.AssistingChampions)
	}
	if d.GoldDiff != 600 || d.PlayerGold != 3200 || d.HadWardNearby {
		t.Errorf("context mismatch: %+v", d)
	}
	if !deaths[1].HadWardNearby || len(deaths[1].AssistingChampions) != 0 {
		t.Errorf("second death mismatch: %+v", deaths[1])
	}

	// Re-saving replaces, not duplicates.
	if err := db.SaveMatch(s, sampleDeaths("NA1_5000")[:1]); err != nil {
		t.Fatalf("SaveMatch again: %v", err)
	}
	deaths, _ = db.Deaths(p.ID, DeathFilter{})
	if len(deaths) != 1 {
		t.Errorf("expected 1 death after re-save, got %d", len(deaths))
	}
}

func TestDeathFilters(t *testing.T) {
	db := openMemDB(t)
	p := mustPlayer(t, db, "puuid-1")

	for i, id := range []string{"NA1_1", "NA1_2"} {
		s := model.MatchSummary{
			MatchID: id, PlayerID: p.ID, HasTimeline: true,
			PlayedAt: time.Date(2025, 3, 1+i, 0, 0, 0, 0, time.UTC),
		}
		if err := db.SaveMatch(s, sampleDeaths(id)); err != nil {
			t.Fatalf("SaveMatch %s: %v", id, err)
		}
	}

	river, err := db.Deaths(p.ID, DeathFilter{Zone: model.ZoneRiverTop})
	if err != nil {
		t.Fatalf("Deaths by zone: %v", err)
	}
	if len(river) != 2 {
		t.Errorf("expected 2 river deaths, got %d", len(river))
	}
	// Newest match first.
	if river[0].MatchID != "NA1_2" {
		t.Errorf("expected NA1_2 first, got %s", river[0].MatchID)
	}

	mid, _ := db.Deaths(p.ID, DeathFilter{Phase: model.PhaseMid, Limit: 1})
	if len(mid) != 1 || mid[0].Phase != model.PhaseMid {
		t.Errorf("phase filter with limit: %+v", mid)
	}

	byMatch, err := db.DeathsForMatches(p.ID, []string{"NA1_1", "NA1_9"})
	if err != nil {
		t.Fatalf("DeathsForMatches: %v", err)
	}
	if len(byMatch["NA1_1"]) != 2 || len(byMatch["NA1_9"]) != 0 {
		t.Errorf("DeathsForMatches grouping: %v", byMatch)
	}
	if byMatch["NA1_1"][0].TimestampMs > byMatch["NA1_1"][1].TimestampMs {
		t.Error("deaths within a match should be in timeline order")
	}

	zones, err := db.DeathsByZone(p.ID)
	if err != nil {
		t.Fatalf("DeathsByZone: %v", err)
	}
	if len(zones) != 2 || zones[0].Count != 2 {
		t.Errorf("zone counts: %+v", zones)
	}

	matches, err := db.ListMatches(p.ID, 0)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(matches) != 2 || matches[0].MatchID != "NA1_2" {
		t.Errorf("ListMatches order: %+v", matches)
	}
}

func TestPatternLifecycle(t *testing.T) {
	db := openMemDB(t)
	p := mustPlayer(t, db, "puuid-1")

	up := model.PatternUpsert{
		Key: model.PatternRiverDeathNoWard, Category: "vision",
		Description:    "Died in river 3 times without ward coverage",
		Occurrences:    3,
		SampleMatchIDs: []string{"NA1_1", "NA1_2", "NA1_3"},
		LastMatchID:    "NA1_3",
	}
	if err := db.UpsertPattern(p.ID, up); err != nil {
		t.Fatalf("UpsertPattern: %v", err)
	}

	got, err := db.GetPattern(p.ID, model.PatternRiverDeathNoWard, "")
	if err != nil {
		t.Fatalf("GetPattern: %v", err)
	}
	if got == nil {
		t.Fatal("expected pattern")
	}
	if got.Status != model.StatusActive || got.GamesSinceLast != 0 || got.Occurrences != 3 {
		t.Errorf("fresh pattern: %+v", got)
	}
	if len(got.SampleMatchIDs) != 3 || got.FirstSeenAt.IsZero() {
		t.Errorf("samples/first seen: %+v", got)
	}

	for i := 0; i < 4; i++ {
		if err := db.AgeAllPatterns(p.ID); err != nil {
			t.Fatalf("AgeAllPatterns: %v", err)
		}
	}
	got, _ = db.GetPattern(p.ID, model.PatternRiverDeathNoWard, "")
	if got.GamesSinceLast != 4 {
		t.Errorf("expected games_since_last 4, got %d", got.GamesSinceLast)
	}

	got.Status = model.StatusImproving
	got.ImprovementStreak = 4
	if err := db.UpdatePatternStatus(got); err != nil {
		t.Fatalf("UpdatePatternStatus: %v", err)
	}

	// A refresh with a smaller count keeps the larger one and reactivates.
	up.Occurrences = 2
	if err := db.UpsertPattern(p.ID, up); err != nil {
		t.Fatalf("UpsertPattern refresh: %v", err)
	}
	got, _ = db.GetPattern(p.ID, model.PatternRiverDeathNoWard, "")
	if got.Occurrences != 3 {
		t.Errorf("occurrences decreased to %d", got.Occurrences)
	}
	if got.Status != model.StatusActive || got.GamesSinceLast != 0 || got.ImprovementStreak != 0 {
		t.Errorf("refresh should reset lifecycle: %+v", got)
	}

	if err := db.UpdatePatternStatus(&model.Pattern{ID: 999}); err == nil {
		t.Error("expected error updating unknown pattern")
	}
}

func TestPatternSubjectsAndActive(t *testing.T) {
	db := openMemDB(t)
	p := mustPlayer(t, db, "puuid-1")

	for _, champ := range []string{"Zed", "Ahri"} {
		err := db.UpsertPattern(p.ID, model.PatternUpsert{
			Key: model.PatternDiesToSameChampion, Subject: champ, Category: "matchup",
			Description: "Died to " + champ + " 3 times", Occurrences: 3,
		})
		if err != nil {
			t.Fatalf("UpsertPattern %s: %v", champ, err)
		}
	}
	err := db.UpsertPattern(p.ID, model.PatternUpsert{
		Key: model.PatternCaughtSidelane, Category: "macro", Occurrences: 9,
	})
	if err != nil {
		t.Fatalf("UpsertPattern: %v", err)
	}

	all, err := db.ListPatterns(p.ID)
	if err != nil {
		t.Fatalf("ListPatterns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 patterns, got %d", len(all))
	}

	zed := all[0]
	zed.Status = model.StatusBroken
	if err := db.UpdatePatternStatus(&zed); err != nil {
		t.Fatalf("UpdatePatternStatus: %v", err)
	}

	active, err := db.ActivePatterns(p.ID)
	if err != nil {
		t.Fatalf("ActivePatterns: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active patterns, got %d", len(active))
	}
	if active[0].Key != model.PatternCaughtSidelane {
		t.Errorf("expected most frequent first, got %s", active[0].Key)
	}

	other := mustPlayer(t, db, "puuid-2")
	none, _ := db.ListPatterns(other.ID)
	if len(none) != 0 {
		t.Errorf("patterns leaked across players: %d", len(none))
	}
}

func TestSessions(t *testing.T) {
	db := openMemDB(t)
	p := mustPlayer(t, db, "puuid-1")

	last, err := db.LastSession(p.ID)
	if err != nil {
		t.Fatalf("LastSession: %v", err)
	}
	if last != nil {
		t.Error("expected no session yet")
	}

	first := &model.Session{
		PlayerID: p.ID, FocusArea: "vision", PatternKey: model.PatternRiverDeathNoWard,
		MatchesAnalyzed: 20, StartedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	second := &model.Session{
		PlayerID: p.ID, FocusArea: "trading", PatternKey: model.PatternDiesWhenAhead,
		MatchesAnalyzed: 5, Opener: "Last time we talked about vision. ",
		StartedAt: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
	}
	for _, s := range []*model.Session{second, first} {
		if err := db.CreateSession(s); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		if s.ID == "" {
			t.Error("expected session id to be assigned")
		}
	}

	last, err = db.LastSession(p.ID)
	if err != nil {
		t.Fatalf("LastSession: %v", err)
	}
	if last == nil || last.ID != second.ID || last.FocusArea != "trading" {
		t.Errorf("expected latest session, got %+v", last)
	}
	if !last.StartedAt.Equal(second.StartedAt) {
		t.Errorf("started_at round trip: %v", last.StartedAt)
	}

	n, err := db.CountSessions(p.ID)
	if err != nil {
		t.Fatalf("CountSessions: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 sessions, got %d", n)
	}
}

func TestArchive(t *testing.T) {
	db := openMemDB(t)

	match := bytes.Repeat([]byte(`{"metadata":{"matchId":"NA1_1"}}`), 50)
	timeline := bytes.Repeat([]byte(`{"info":{"frames":[]}}`), 50)
	if err := db.PutArchive("NA1_1", match, timeline); err != nil {
		t.Fatalf("PutArchive: %v", err)
	}
	if err := db.PutArchive("NA1_2", match, nil); err != nil {
		t.Fatalf("PutArchive without timeline: %v", err)
	}

	m, tl, ok, err := db.GetArchive("NA1_1")
	if err != nil || !ok {
		t.Fatalf("GetArchive: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(m, match) || !bytes.Equal(tl, timeline) {
		t.Error("archive payload mismatch")
	}

	_, tl, ok, err = db.GetArchive("NA1_2")
	if err != nil || !ok || tl != nil {
		t.Errorf("expected nil timeline: ok=%v err=%v len=%d", ok, err, len(tl))
	}

	_, _, ok, err = db.GetArchive("missing")
	if err != nil || ok {
		t.Errorf("missing archive: ok=%v err=%v", ok, err)
	}

	count, raw, stored, err := db.ArchiveStats()
	if err != nil {
		t.Fatalf("ArchiveStats: %v", err)
	}
	if count != 2 || stored >= raw {
		t.Errorf("archive stats: count=%d raw=%d stored=%d", count, raw, stored)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	mustPlayer(t, db, "puuid-1")

	cols, rows, err := db.QueryRaw("SELECT puuid, riot_id, NULL AS nothing FROM players")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 3 || cols[0] != "puuid" {
		t.Errorf("columns: %v", cols)
	}
	if len(rows) != 1 || rows[0][0] != "puuid-1" || rows[0][2] != "NULL" {
		t.Errorf("rows: %v", rows)
	}

	if _, _, err := db.QueryRaw("SELECT * FROM no_such_table"); err == nil {
		t.Error("expected error for bad query")
	}
}

func TestInTxRollsBack(t *testing.T) {
	db := openMemDB(t)
	p := mustPlayer(t, db, "puuid-1")

	boom := errors.New("boom")
	err := db.InTx(func(tx *DB) error {
		if err := tx.SaveMatch(model.MatchSummary{MatchID: "NA1_1", PlayerID: p.ID}, sampleDeaths("NA1_1")); err != nil {
			return err
		}
		if err := tx.UpsertPattern(p.ID, model.PatternUpsert{Key: model.PatternDiesWhenAhead, Occurrences: 2}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	exists, err := db.MatchExists(p.ID, "NA1_1")
	if err != nil {
		t.Fatalf("MatchExists: %v", err)
	}
	if exists {
		t.Error("match survived rollback")
	}
	ps, err := db.ListPatterns(p.ID)
	if err != nil {
		t.Fatalf("ListPatterns: %v", err)
	}
	if len(ps) != 0 {
		t.Errorf("patterns survived rollback: %+v", ps)
	}

	if err := db.InTx(func(tx *DB) error {
		return tx.SaveMatch(model.MatchSummary{MatchID: "NA1_2", PlayerID: p.ID}, nil)
	}); err != nil {
		t.Fatalf("InTx commit: %v", err)
	}
	if exists, _ := db.MatchExists(p.ID, "NA1_2"); !exists {
		t.Error("committed match missing")
	}
}
