package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pable/go-lol-coach/internal/model"
)

// CreateSession inserts s, assigning an id and start time when unset.
func (db *DB) CreateSession(s *model.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = db.now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO coaching_sessions(id, player_id, focus_area, pattern_key, matches_analyzed, opener, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.PlayerID, s.FocusArea, string(s.PatternKey), s.MatchesAnalyzed, s.Opener, formatTime(s.StartedAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// LastSession returns the player's most recent session, or nil, nil.
func (db *DB) LastSession(playerID int64) (*model.Session, error) {
	var s model.Session
	var key, startedAt string
	err := db.conn.QueryRow(`
		SELECT id, player_id, focus_area, pattern_key, matches_analyzed, opener, started_at
		FROM coaching_sessions WHERE player_id = ?
		ORDER BY started_at DESC LIMIT 1`, playerID).
		Scan(&s.ID, &s.PlayerID, &s.FocusArea, &key, &s.MatchesAnalyzed, &s.Opener, &startedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.PatternKey = model.PatternKey(key)
	s.StartedAt = parseTime(startedAt)
	return &s, nil
}

// CountSessions returns how many sessions the player has had.
func (db *DB) CountSessions(playerID int64) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM coaching_sessions WHERE player_id = ?`, playerID).Scan(&n)
	return n, err
}
