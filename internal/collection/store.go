// Package collection provides the server-side store for the authoritative
// remote bookmark set: a flat list of nodes replaced wholesale on upload.
package collection

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL CHECK (kind IN ('bookmark', 'folder')),
	title      TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	date_added INTEGER NOT NULL DEFAULT 0,
	position   INTEGER NOT NULL
);
`

// Store wraps a sql.DB with collection operations. Node ids are opaque
// strings chosen by the uploading client; the store never mints ids.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("collection: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("collection: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("collection: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// List returns every node in upload order.
func (s *Store) List() ([]models.Node, error) {
	rows, err := s.conn.Query(`
		SELECT id, parent_id, kind, title, url, date_added
		FROM nodes ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("collection: list: %w", err)
	}
	defer rows.Close()

	out := []models.Node{}
	for rows.Next() {
		var n models.Node
		var kind string
		if err := rows.Scan(&n.ID, &n.ParentID, &kind, &n.Title, &n.URL, &n.DateAdded); err != nil {
			return nil, fmt.Errorf("collection: scan: %w", err)
		}
		n.Kind = models.Kind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the entire collection for nodes within one transaction.
func (s *Store) ReplaceAll(nodes []models.Node) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("collection: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM nodes`); err != nil {
		return fmt.Errorf("collection: clear: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO nodes (id, parent_id, kind, title, url, date_added, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("collection: prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, n := range nodes {
		if _, err := stmt.Exec(n.ID, n.ParentID, string(n.Kind), n.Title, n.URL, n.DateAdded, i); err != nil {
			return fmt.Errorf("collection: insert %q: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// Checksum returns a digest of the current collection content, used as the
// HTTP entity tag for conditional fetches.
func (s *Store) Checksum() (string, error) {
	nodes, err := s.List()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(models.Envelope{Bookmarks: nodes})
	if err != nil {
		return "", fmt.Errorf("collection: checksum marshal: %w", err)
	}
	return checksum.Sum(data), nil
}
