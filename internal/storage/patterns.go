package storage

import (
	"encoding/json"
	"fmt"

	"github.com/pable/go-lol-coach/internal/model"
)

const patternColumns = `id, player_id, pattern_key, subject, category, description,
	occurrences, status, games_since_last, improvement_streak,
	sample_match_ids, last_match_id, first_seen_at, last_seen_at`

// UpsertPattern inserts or refreshes the (player, key, subject) row. A
// refresh marks the pattern active and resets games-since and streak;
// occurrences never go down.
func (db *DB) UpsertPattern(playerID int64, u model.PatternUpsert) error {
	samples, err := json.Marshal(nonNil(u.SampleMatchIDs))
	if err != nil {
		return fmt.Errorf("encode samples: %w", err)
	}
	now := db.stamp()
	_, err = db.conn.Exec(`
		INSERT INTO patterns(
			player_id, pattern_key, subject, category, description, occurrences,
			status, games_since_last, improvement_streak,
			sample_match_ids, last_match_id, first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, 'active', 0, 0, ?, ?, ?, ?)
		ON CONFLICT(player_id, pattern_key, subject) DO UPDATE SET
			category           = excluded.category,
			description        = excluded.description,
			occurrences        = MAX(patterns.occurrences, excluded.occurrences),
			status             = 'active',
			games_since_last   = 0,
			improvement_streak = 0,
			sample_match_ids   = excluded.sample_match_ids,
			last_match_id      = excluded.last_match_id,
			last_seen_at       = excluded.last_seen_at`,
		playerID, string(u.Key), u.Subject, u.Category, u.Description, u.Occurrences,
		string(samples), u.LastMatchID, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert pattern %s: %w", u.Key, err)
	}
	return nil
}

// AgeAllPatterns adds one game to games_since_last for every pattern of the player.
func (db *DB) AgeAllPatterns(playerID int64) error {
	_, err := db.conn.Exec(
		`UPDATE patterns SET games_since_last = games_since_last + 1 WHERE player_id = ?`, playerID)
	return err
}

// UpdatePatternStatus persists the lifecycle fields of p.
func (db *DB) UpdatePatternStatus(p *model.Pattern) error {
	res, err := db.conn.Exec(`
		UPDATE patterns SET status = ?, games_since_last = ?, improvement_streak = ?
		WHERE id = ?`,
		string(p.Status), p.GamesSinceLast, p.ImprovementStreak, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pattern %d not found", p.ID)
	}
	return nil
}

// ListPatterns returns every pattern of the player in insertion order.
func (db *DB) ListPatterns(playerID int64) ([]model.Pattern, error) {
	return db.queryPatterns(`
		SELECT `+patternColumns+` FROM patterns
		WHERE player_id = ? ORDER BY id`, playerID)
}

// ActivePatterns returns active and improving patterns, most frequent first.
func (db *DB) ActivePatterns(playerID int64) ([]model.Pattern, error) {
	return db.queryPatterns(`
		SELECT `+patternColumns+` FROM patterns
		WHERE player_id = ? AND status IN ('active', 'improving')
		ORDER BY occurrences DESC, id`, playerID)
}

// GetPattern returns the pattern for (player, key, subject), or nil, nil.
func (db *DB) GetPattern(playerID int64, key model.PatternKey, subject string) (*model.Pattern, error) {
	ps, err := db.queryPatterns(`
		SELECT `+patternColumns+` FROM patterns
		WHERE player_id = ? AND pattern_key = ? AND subject = ?`, playerID, string(key), subject)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, nil
	}
	return &ps[0], nil
}

func (db *DB) queryPatterns(q string, args ...any) ([]model.Pattern, error) {
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Pattern
	for rows.Next() {
		var p model.Pattern
		var key, status, samples, firstSeen, lastSeen string
		if err := rows.Scan(
			&p.ID, &p.PlayerID, &key, &p.Subject, &p.Category, &p.Description,
			&p.Occurrences, &status, &p.GamesSinceLast, &p.ImprovementStreak,
			&samples, &p.LastMatchID, &firstSeen, &lastSeen,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(samples), &p.SampleMatchIDs); err != nil {
			return nil, fmt.Errorf("decode samples for pattern %d: %w", p.ID, err)
		}
		p.Key = model.PatternKey(key)
		p.Status = model.PatternStatus(status)
		p.FirstSeenAt = parseTime(firstSeen)
		p.LastSeenAt = parseTime(lastSeen)
		out = append(out, p)
	}
	return out, rows.Err()
}
