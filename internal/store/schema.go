// Package store provides the SQLite-backed note repository with optional
// FTS5 full-text search.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	owner      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '[]',
	images     TEXT NOT NULL DEFAULT '[]',
	body       TEXT NOT NULL DEFAULT '',
	target     TEXT,
	due_date   INTEGER,
	progress   TEXT NOT NULL,
	category   TEXT NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_created  ON notes(created_at);
CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category);
CREATE INDEX IF NOT EXISTS idx_notes_progress ON notes(progress);

CREATE TABLE IF NOT EXISTS note_images (
	note_id TEXT NOT NULL,
	key     TEXT NOT NULL,
	UNIQUE(note_id, key)
);

CREATE INDEX IF NOT EXISTS idx_note_images_key ON note_images(key);
`

// DB wraps a sql.DB with note repository operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
