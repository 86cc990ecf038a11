package storage

import (
	"time"

	"github.com/pable/go-lol-coach/internal/model"
)

// DBOverview holds database-wide counts.
type DBOverview struct {
	Players       int
	Matches       int
	Deaths        int
	Sessions      int
	Earliest      time.Time
	Latest        time.Time
	PatternCounts map[model.PatternStatus]int
}

// PlayerOverview summarises one tracked player.
type PlayerOverview struct {
	Player         model.Player
	Matches        int
	Deaths         int
	ActivePatterns int
}

// DeathsPerGame returns stored deaths per analysed match.
func (p *PlayerOverview) DeathsPerGame() float64 {
	if p.Matches == 0 {
		return 0
	}
	return float64(p.Deaths) / float64(p.Matches)
}

// MatchTrend is one match's death profile, for chronological trends.
type MatchTrend struct {
	MatchID  string
	PlayedAt time.Time
	Champion string
	Win      bool
	Deaths   int
	Early    int
	Mid      int
	Late     int
	Unwarded int
	River    int
}

// GetDBOverview returns high-level counts across all players.
func (db *DB) GetDBOverview() (*DBOverview, error) {
	ov := &DBOverview{PatternCounts: map[model.PatternStatus]int{}}
	var earliest, latest string
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM players),
			(SELECT COUNT(*) FROM matches),
			(SELECT COUNT(*) FROM deaths),
			(SELECT COUNT(*) FROM coaching_sessions),
			COALESCE((SELECT MIN(played_at) FROM matches WHERE played_at != ''), ''),
			COALESCE((SELECT MAX(played_at) FROM matches WHERE played_at != ''), '')`).
		Scan(&ov.Players, &ov.Matches, &ov.Deaths, &ov.Sessions, &earliest, &latest)
	if err != nil {
		return nil, err
	}
	ov.Earliest, ov.Latest = parseTime(earliest), parseTime(latest)

	rows, err := db.conn.Query(`SELECT status, COUNT(*) FROM patterns GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		ov.PatternCounts[model.PatternStatus(status)] = n
	}
	return ov, rows.Err()
}

// GetPlayerOverviews returns per-player counts, most matches first.
func (db *DB) GetPlayerOverviews() ([]PlayerOverview, error) {
	rows, err := db.conn.Query(`
		SELECT p.id, p.puuid, p.riot_id, p.platform,
			(SELECT COUNT(*) FROM matches m WHERE m.player_id = p.id),
			(SELECT COUNT(*) FROM deaths d WHERE d.player_id = p.id),
			(SELECT COUNT(*) FROM patterns t WHERE t.player_id = p.id AND t.status = 'active')
		FROM players p
		ORDER BY 5 DESC, p.riot_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerOverview
	for rows.Next() {
		var o PlayerOverview
		if err := rows.Scan(&o.Player.ID, &o.Player.PUUID, &o.Player.RiotID, &o.Player.Platform,
			&o.Matches, &o.Deaths, &o.ActivePatterns); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetMatchTrend returns the player's last n matches, oldest first, with
// death counts by phase. n <= 0 returns every match.
func (db *DB) GetMatchTrend(playerID int64, n int) ([]MatchTrend, error) {
	if n <= 0 {
		n = -1
	}
	rows, err := db.conn.Query(`
		SELECT * FROM (
			SELECT m.match_id, m.played_at, m.champion, m.win,
				COUNT(d.id),
				COALESCE(SUM(d.phase = 'early'), 0),
				COALESCE(SUM(d.phase = 'mid'), 0),
				COALESCE(SUM(d.phase = 'late'), 0),
				COALESCE(SUM(d.had_ward_nearby = 0), 0),
				COALESCE(SUM(d.zone LIKE 'river%'), 0)
			FROM matches m
			LEFT JOIN deaths d ON d.match_id = m.match_id AND d.player_id = m.player_id
			WHERE m.player_id = ? AND m.has_timeline = 1
			GROUP BY m.match_id
			ORDER BY m.played_at DESC, m.match_id DESC
			LIMIT ?
		) ORDER BY 2 ASC, 1 ASC`, playerID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchTrend
	for rows.Next() {
		var t MatchTrend
		var playedAt string
		var win int
		if err := rows.Scan(&t.MatchID, &playedAt, &t.Champion, &win,
			&t.Deaths, &t.Early, &t.Mid, &t.Late, &t.Unwarded, &t.River); err != nil {
			return nil, err
		}
		t.PlayedAt = parseTime(playedAt)
		t.Win = win != 0
		out = append(out, t)
	}
	return out, rows.Err()
}
