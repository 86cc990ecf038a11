package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pable/go-lol-coach/internal/model"
)

// SaveMatch stores a match summary and its deaths in one transaction,
// replacing any deaths previously stored for the same match and player.
func (db *DB) SaveMatch(s model.MatchSummary, deaths []model.DeathRecord) error {
	return db.InTx(func(tx *DB) error {
		return tx.saveMatch(s, deaths)
	})
}

func (db *DB) saveMatch(s model.MatchSummary, deaths []model.DeathRecord) error {
	tx := db.conn
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO matches(
			match_id, player_id, champion, role, win, kills, deaths, assists,
			cs, vision_score, game_duration_sec, played_at, has_timeline, analyzed_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.MatchID, s.PlayerID, s.Champion, s.Role, boolInt(s.Win),
		s.Kills, s.Deaths, s.Assists, s.CS, s.VisionScore, s.GameDurationSec,
		formatTime(s.PlayedAt), boolInt(s.HasTimeline), db.stamp(),
	)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", s.MatchID, err)
	}

	if _, err := tx.Exec(`DELETE FROM deaths WHERE match_id = ? AND player_id = ?`, s.MatchID, s.PlayerID); err != nil {
		return fmt.Errorf("clear deaths for %s: %w", s.MatchID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO deaths(
			match_id, player_id, timestamp_ms, phase, position_x, position_y, zone,
			killer_champion, killer_participant_id, assisting_champions,
			had_ward_nearby, gold_diff, cs_diff, level_diff,
			player_gold, player_champion, death_type
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range deaths {
		assisting, err := json.Marshal(nonNil(d.AssistingChampions))
		if err != nil {
			return fmt.Errorf("encode assisting champions: %w", err)
		}
		_, err = stmt.Exec(
			s.MatchID, s.PlayerID, d.TimestampMs, string(d.Phase), d.X, d.Y, string(d.Zone),
			d.KillerChampion, d.KillerParticipantID, string(assisting),
			boolInt(d.HadWardNearby), d.GoldDiff, d.CSDiff, d.LevelDiff,
			d.PlayerGold, d.PlayerChampion, string(d.DeathType),
		)
		if err != nil {
			return fmt.Errorf("insert death at %dms in %s: %w", d.TimestampMs, s.MatchID, err)
		}
	}
	return nil
}

// MatchExists reports whether the match was already analysed for the player.
func (db *DB) MatchExists(playerID int64, matchID string) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(1) FROM matches WHERE player_id = ? AND match_id = ?`, playerID, matchID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const matchColumns = `match_id, player_id, champion, role, win, kills, deaths, assists,
	cs, vision_score, game_duration_sec, played_at, has_timeline`

func scanMatch(sc interface{ Scan(...any) error }) (model.MatchSummary, error) {
	var s model.MatchSummary
	var win, hasTimeline int
	var playedAt string
	err := sc.Scan(&s.MatchID, &s.PlayerID, &s.Champion, &s.Role, &win,
		&s.Kills, &s.Deaths, &s.Assists, &s.CS, &s.VisionScore, &s.GameDurationSec,
		&playedAt, &hasTimeline)
	if err != nil {
		return s, err
	}
	s.Win = win != 0
	s.HasTimeline = hasTimeline != 0
	s.PlayedAt = parseTime(playedAt)
	return s, nil
}

// ListMatches returns the player's matches, newest first. limit <= 0 means all.
func (db *DB) ListMatches(playerID int64, limit int) ([]model.MatchSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT `+matchColumns+`
		FROM matches WHERE player_id = ?
		ORDER BY played_at DESC, match_id DESC
		LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchSummary
	for rows.Next() {
		s, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetMatchByPrefix finds the player's first match whose id starts with prefix.
// The region prefix ("NA1_") may be omitted.
func (db *DB) GetMatchByPrefix(playerID int64, prefix string) (*model.MatchSummary, error) {
	row := db.conn.QueryRow(`
		SELECT `+matchColumns+`
		FROM matches
		WHERE player_id = ? AND (match_id LIKE ? OR match_id LIKE ? ESCAPE '\')
		ORDER BY played_at DESC LIMIT 1`, playerID, prefix+"%", "%\\_"+prefix+"%")
	s, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
