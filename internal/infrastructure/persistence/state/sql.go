package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// SQLStore keeps blobs in a single key-value table. The same code serves a
// local sqlite3 file and a remote libsql database; callers pick by driver
// name and DSN.
type SQLStore struct {
	db *sql.DB
}

const createBlobsTable = `
CREATE TABLE IF NOT EXISTS beacon_state (
	key   TEXT PRIMARY KEY,
	blob  BLOB NOT NULL,
	saved_at TEXT NOT NULL DEFAULT (datetime('now'))
)`

// NewSQLStore opens the connection, verifies it, and ensures the state
// table exists. driverName is "sqlite3" or "libsql".
func NewSQLStore(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", driverName, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("state: ping %s: %w", driverName, err)
	}
	if _, err := db.Exec(createBlobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("state: create table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM beacon_state WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("state: select %q: %w", key, err)
	}
	return blob, nil
}

func (s *SQLStore) Save(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO beacon_state (key, blob, saved_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, saved_at = excluded.saved_at`,
		key, blob)
	if err != nil {
		return fmt.Errorf("state: upsert %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }
