package storage

import (
	"database/sql"
	"fmt"

	"github.com/pable/go-lol-coach/internal/model"
)

// GetOrCreatePlayer returns the player with the given PUUID, inserting it if
// needed. A non-empty riotID or platform refreshes the stored value.
func (db *DB) GetOrCreatePlayer(puuid, riotID, platform string) (*model.Player, error) {
	if puuid == "" {
		return nil, fmt.Errorf("get or create player: empty puuid")
	}
	_, err := db.conn.Exec(`
		INSERT INTO players(puuid, riot_id, platform, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(puuid) DO UPDATE SET
			riot_id  = CASE WHEN excluded.riot_id  != '' THEN excluded.riot_id  ELSE players.riot_id  END,
			platform = CASE WHEN excluded.platform != '' THEN excluded.platform ELSE players.platform END`,
		puuid, riotID, platform, db.stamp())
	if err != nil {
		return nil, fmt.Errorf("upsert player: %w", err)
	}
	return db.GetPlayerByPUUID(puuid)
}

// GetPlayerByPUUID returns nil, nil when no player matches.
func (db *DB) GetPlayerByPUUID(puuid string) (*model.Player, error) {
	return db.scanPlayer(db.conn.QueryRow(
		`SELECT id, riot_id, puuid, platform FROM players WHERE puuid = ?`, puuid))
}

// GetPlayerByRiotID looks a player up by GameName#TAG, case-insensitively.
func (db *DB) GetPlayerByRiotID(riotID string) (*model.Player, error) {
	return db.scanPlayer(db.conn.QueryRow(
		`SELECT id, riot_id, puuid, platform FROM players WHERE riot_id = ? COLLATE NOCASE LIMIT 1`, riotID))
}

func (db *DB) scanPlayer(row *sql.Row) (*model.Player, error) {
	var p model.Player
	err := row.Scan(&p.ID, &p.RiotID, &p.PUUID, &p.Platform)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlayers returns every tracked player ordered by Riot ID.
func (db *DB) ListPlayers() ([]model.Player, error) {
	rows, err := db.conn.Query(`SELECT id, riot_id, puuid, platform FROM players ORDER BY riot_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.RiotID, &p.PUUID, &p.Platform); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
