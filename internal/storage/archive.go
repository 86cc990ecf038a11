package storage

import (
	"database/sql"
	"fmt"
)

// PutArchive stores the raw match and timeline payloads for matchID,
// zstd-compressed. timeline may be nil.
func (db *DB) PutArchive(matchID string, match, timeline []byte) error {
	var tl []byte
	if timeline != nil {
		tl = db.enc.EncodeAll(timeline, nil)
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO match_archive(match_id, match_blob, timeline_blob, raw_bytes, stored_at)
		VALUES (?, ?, ?, ?, ?)`,
		matchID, db.enc.EncodeAll(match, nil), tl, len(match)+len(timeline), db.stamp())
	if err != nil {
		return fmt.Errorf("archive %s: %w", matchID, err)
	}
	return nil
}

// GetArchive returns the decompressed payloads for matchID. ok is false when
// nothing is archived.
func (db *DB) GetArchive(matchID string) (match, timeline []byte, ok bool, err error) {
	var mBlob, tBlob []byte
	err = db.conn.QueryRow(
		`SELECT match_blob, timeline_blob FROM match_archive WHERE match_id = ?`, matchID).
		Scan(&mBlob, &tBlob)
	if err == sql.ErrNoRows {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}

	match, err = db.dec.DecodeAll(mBlob, nil)
	if err != nil {
		return nil, nil, false, fmt.Errorf("decompress match %s: %w", matchID, err)
	}
	if len(tBlob) > 0 {
		timeline, err = db.dec.DecodeAll(tBlob, nil)
		if err != nil {
			return nil, nil, false, fmt.Errorf("decompress timeline %s: %w", matchID, err)
		}
	}
	return match, timeline, true, nil
}

// ArchiveStats reports how many matches are archived and their raw and
// stored sizes in bytes.
func (db *DB) ArchiveStats() (count int, rawBytes, storedBytes int64, err error) {
	err = db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(raw_bytes), 0),
		       COALESCE(SUM(LENGTH(match_blob) + COALESCE(LENGTH(timeline_blob), 0)), 0)
		FROM match_archive`).Scan(&count, &rawBytes, &storedBytes)
	return count, rawBytes, storedBytes, err
}
