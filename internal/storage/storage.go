package storage

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout sorts lexicographically, so ORDER BY on the text column works.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// querier is the subset of sql.DB and sql.Tx the store uses.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Prepare(query string) (*sql.Stmt, error)
}

// DB wraps a sql.DB for the coaching store. A DB handed to an InTx
// callback runs every query inside that transaction.
type DB struct {
	root *sql.DB
	conn querier
	inTx bool
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	now  func() time.Time
}

// Open opens (or creates) the SQLite database at the given path and applies the schema.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &DB{root: conn, conn: conn, enc: enc, dec: dec, now: time.Now}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	db.dec.Close()
	db.enc.Close()
	return db.root.Close()
}

// InTx runs fn against a DB bound to a single transaction, committing if fn
// returns nil and rolling back otherwise. Nested calls reuse the outer
// transaction. The store holds one connection, so fn must not use the
// outer DB.
func (db *DB) InTx(fn func(tx *DB) error) error {
	if db.inTx {
		return fn(db)
	}
	sqlTx, err := db.root.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	txDB := *db
	txDB.conn = sqlTx
	txDB.inTx = true
	if err := fn(&txDB); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (db *DB) stamp() string {
	return formatTime(db.now())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
