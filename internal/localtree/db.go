// Package localtree provides the SQLite-backed local bookmark tree: the
// hierarchy the synchronizer converges toward remote state.
package localtree

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS bookmarks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id  INTEGER NOT NULL DEFAULT 0,
	kind       TEXT NOT NULL CHECK (kind IN ('bookmark', 'folder')),
	title      TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	date_added INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_bookmarks_parent ON bookmarks(parent_id);
`

// Root folders are seeded once and never touched again. Explicit ids bump
// the AUTOINCREMENT sequence past them, so user nodes start at 3.
const seedRootsSQL = `
INSERT OR IGNORE INTO bookmarks (id, parent_id, kind, title) VALUES
	(1, 0, 'folder', 'Bookmarks bar'),
	(2, 0, 'folder', 'Other bookmarks');
`

// DB wraps a sql.DB with bookmark-tree operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database, applies the schema, and
// seeds the two fixed root folders.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("localtree: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("localtree: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("localtree: apply schema: %w", err)
	}
	if _, err := conn.Exec(seedRootsSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("localtree: seed roots: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
