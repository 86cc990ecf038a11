package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pable/go-lol-coach/internal/model"
)

// DeathFilter narrows a death query. Zero values match everything.
type DeathFilter struct {
	Phase   model.GamePhase
	Zone    model.MapZone
	MatchID string
	Limit   int
}

const deathColumns = `d.match_id, d.timestamp_ms, d.phase, d.position_x, d.position_y, d.zone,
	d.killer_champion, d.killer_participant_id, d.assisting_champions,
	d.had_ward_nearby, d.gold_diff, d.cs_diff, d.level_diff,
	d.player_gold, d.player_champion, d.death_type`

// Deaths returns the player's deaths, newest match first and in timeline
// order within a match.
func (db *DB) Deaths(playerID int64, f DeathFilter) ([]model.DeathRecord, error) {
	where := []string{"d.player_id = ?"}
	args := []any{playerID}
	if f.Phase != "" {
		where = append(where, "d.phase = ?")
		args = append(args, string(f.Phase))
	}
	if f.Zone != "" {
		where = append(where, "d.zone = ?")
		args = append(args, string(f.Zone))
	}
	if f.MatchID != "" {
		where = append(where, "d.match_id = ?")
		args = append(args, f.MatchID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	q := `SELECT ` + deathColumns + `
		FROM deaths d
		JOIN matches m ON m.match_id = d.match_id AND m.player_id = d.player_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY m.played_at DESC, d.match_id DESC, d.timestamp_ms ASC, d.id ASC
		LIMIT ?`
	return db.queryDeaths(q, args...)
}

// DeathsForMatches returns deaths grouped by match id for the given matches.
// Matches with no deaths have no entry.
func (db *DB) DeathsForMatches(playerID int64, matchIDs []string) (map[string][]model.DeathRecord, error) {
	out := make(map[string][]model.DeathRecord, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}
	args := []any{playerID}
	for _, id := range matchIDs {
		args = append(args, id)
	}
	q := `SELECT ` + deathColumns + `
		FROM deaths d
		WHERE d.player_id = ? AND d.match_id IN (` + placeholders(len(matchIDs)) + `)
		ORDER BY d.match_id, d.timestamp_ms, d.id`
	ds, err := db.queryDeaths(q, args...)
	if err != nil {
		return nil, err
	}
	for _, d := range ds {
		out[d.MatchID] = append(out[d.MatchID], d)
	}
	return out, nil
}

// ZoneCount is one row of the death heatmap.
type ZoneCount struct {
	Zone  model.MapZone
	Count int
}

// DeathsByZone counts the player's deaths per zone, most frequent first.
func (db *DB) DeathsByZone(playerID int64) ([]ZoneCount, error) {
	rows, err := db.conn.Query(`
		SELECT zone, COUNT(*) AS n FROM deaths
		WHERE player_id = ?
		GROUP BY zone ORDER BY n DESC, zone`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ZoneCount
	for rows.Next() {
		var z ZoneCount
		var zone string
		if err := rows.Scan(&zone, &z.Count); err != nil {
			return nil, err
		}
		z.Zone = model.MapZone(zone)
		out = append(out, z)
	}
	return out, rows.Err()
}

func (db *DB) queryDeaths(q string, args ...any) ([]model.DeathRecord, error) {
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DeathRecord
	for rows.Next() {
		var d model.DeathRecord
		var phase, zone, deathType, assisting string
		var ward int
		if err := rows.Scan(
			&d.MatchID, &d.TimestampMs, &phase, &d.X, &d.Y, &zone,
			&d.KillerChampion, &d.KillerParticipantID, &assisting,
			&ward, &d.GoldDiff, &d.CSDiff, &d.LevelDiff,
			&d.PlayerGold, &d.PlayerChampion, &deathType,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(assisting), &d.AssistingChampions); err != nil {
			return nil, fmt.Errorf("decode assisting champions for %s: %w", d.MatchID, err)
		}
		d.Phase = model.GamePhase(phase)
		d.Zone = model.MapZone(zone)
		d.DeathType = model.DeathType(deathType)
		d.HadWardNearby = ward != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
