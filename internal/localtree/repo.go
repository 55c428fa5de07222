package localtree

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("localtree: bad id %q: %w", id, apperr.ErrNotFound)
	}
	return n, nil
}

func formatID(n int64) string {
	return strconv.FormatInt(n, 10)
}

// folderExists reports whether id refers to an existing folder row or one
// of the fixed roots.
func (db *DB) folderExists(id int64) (bool, error) {
	var kind string
	err := db.conn.QueryRow(`SELECT kind FROM bookmarks WHERE id = ?`, id).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("localtree: lookup folder: %w", err)
	}
	return kind == string(models.KindFolder), nil
}

// Create inserts a new node under parentID and returns the new node's id.
// The parent must be an existing folder (the fixed roots qualify).
func (db *DB) Create(parentID string, kind models.Kind, title, url string, dateAdded int64) (string, error) {
	pid, err := parseID(parentID)
	if err != nil {
		return "", err
	}
	ok, err := db.folderExists(pid)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("localtree: create under %q: %w", parentID, apperr.ErrNotFound)
	}
	if kind == models.KindFolder {
		url = ""
	}
	res, err := db.conn.Exec(`
		INSERT INTO bookmarks (parent_id, kind, title, url, date_added)
		VALUES (?, ?, ?, ?, ?)
	`, pid, string(kind), title, url, dateAdded)
	if err != nil {
		return "", fmt.Errorf("localtree: create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("localtree: created id: %w", err)
	}
	return formatID(id), nil
}

// UpdateTitle changes a node's title. Root folders are immutable.
func (db *DB) UpdateTitle(id, title string) error {
	if models.IsRootID(id) {
		return apperr.ErrRootImmutable
	}
	nid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := db.conn.Exec(`UPDATE bookmarks SET title = ? WHERE id = ?`, title, nid)
	if err != nil {
		return fmt.Errorf("localtree: update title: %w", err)
	}
	return affectedOne(res, id)
}

// Move reparents a node. The target must be an existing folder, and a
// folder may not be moved into its own subtree.
func (db *DB) Move(id, newParentID string) error {
	if models.IsRootID(id) {
		return apperr.ErrRootImmutable
	}
	nid, err := parseID(id)
	if err != nil {
		return err
	}
	pid, err := parseID(newParentID)
	if err != nil {
		return err
	}
	ok, err := db.folderExists(pid)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("localtree: move target %q: %w", newParentID, apperr.ErrNotFound)
	}
	inSubtree, err := db.isDescendant(pid, nid)
	if err != nil {
		return err
	}
	if inSubtree || pid == nid {
		return fmt.Errorf("localtree: move %s into own subtree", id)
	}
	res, err := db.conn.Exec(`UPDATE bookmarks SET parent_id = ? WHERE id = ?`, pid, nid)
	if err != nil {
		return fmt.Errorf("localtree: move: %w", err)
	}
	return affectedOne(res, id)
}

// Remove deletes a single node. Folders must be empty; use RemoveSubtree
// to delete a folder together with its descendants.
func (db *DB) Remove(id string) error {
	if models.IsRootID(id) {
		return apperr.ErrRootImmutable
	}
	nid, err := parseID(id)
	if err != nil {
		return err
	}
	var children int
	if err := db.conn.QueryRow(`SELECT count(*) FROM bookmarks WHERE parent_id = ?`, nid).Scan(&children); err != nil {
		return fmt.Errorf("localtree: count children: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("localtree: remove %s: folder not empty", id)
	}
	res, err := db.conn.Exec(`DELETE FROM bookmarks WHERE id = ?`, nid)
	if err != nil {
		return fmt.Errorf("localtree: remove: %w", err)
	}
	return affectedOne(res, id)
}

// RemoveSubtree deletes a node and all of its descendants.
func (db *DB) RemoveSubtree(id string) error {
	if models.IsRootID(id) {
		return apperr.ErrRootImmutable
	}
	nid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := db.conn.Exec(`
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM bookmarks WHERE id = ?
			UNION ALL
			SELECT b.id FROM bookmarks b JOIN subtree s ON b.parent_id = s.id
		)
		DELETE FROM bookmarks WHERE id IN (SELECT id FROM subtree)
	`, nid)
	if err != nil {
		return fmt.Errorf("localtree: remove subtree: %w", err)
	}
	return affectedOne(res, id)
}

// HasBookmarks reports whether any user bookmark exists in the tree.
func (db *DB) HasBookmarks() (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT count(*) FROM bookmarks WHERE kind = 'bookmark'`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("localtree: has bookmarks: %w", err)
	}
	return n > 0, nil
}

// isDescendant reports whether candidate lies in the subtree rooted at root.
func (db *DB) isDescendant(candidate, root int64) (bool, error) {
	var n int
	err := db.conn.QueryRow(`
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM bookmarks WHERE parent_id = ?
			UNION ALL
			SELECT b.id FROM bookmarks b JOIN subtree s ON b.parent_id = s.id
		)
		SELECT count(*) FROM subtree WHERE id = ?
	`, root, candidate).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("localtree: descendant check: %w", err)
	}
	return n > 0, nil
}

func affectedOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("localtree: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("localtree: node %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
