package localtree

import (
	"fmt"
	"log/slog"

	"github.com/starford/raido/internal/models"
)

// Tree returns the full local hierarchy rooted at the synthetic umbrella
// node "0". Children are ordered by id, which on this store is creation
// order.
func (db *DB) Tree() (*models.TreeNode, error) {
	rows, err := db.conn.Query(`
		SELECT id, parent_id, kind, title, url, date_added
		FROM bookmarks ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("localtree: tree query: %w", err)
	}
	defer rows.Close()

	root := &models.TreeNode{Node: models.NewFolder(models.UmbrellaRootID, "", "", 0)}
	byID := map[string]*models.TreeNode{models.UmbrellaRootID: root}
	var all []*models.TreeNode

	for rows.Next() {
		var (
			id, parent, dateAdded int64
			kind, title, url      string
		)
		if err := rows.Scan(&id, &parent, &kind, &title, &url, &dateAdded); err != nil {
			return nil, fmt.Errorf("localtree: tree scan: %w", err)
		}
		tn := &models.TreeNode{Node: models.Node{
			ID:        formatID(id),
			ParentID:  formatID(parent),
			Kind:      models.Kind(kind),
			Title:     title,
			URL:       url,
			DateAdded: dateAdded,
		}}
		byID[tn.ID] = tn
		all = append(all, tn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("localtree: tree rows: %w", err)
	}

	// Attach children in id order. Rows with a vanished parent are dropped
	// rather than misplaced; that never happens through this store's API.
	for _, tn := range all {
		if parent, ok := byID[tn.ParentID]; ok {
			parent.Children = append(parent.Children, tn)
		}
	}
	return root, nil
}

// Flatten walks the tree in pre-order and produces the transport node list.
// The three system containers are skipped as entries but descended into, so
// they never appear in the flattened output.
func Flatten(root *models.TreeNode) []models.Node {
	out := []models.Node{}
	var walk func(tn *models.TreeNode)
	walk = func(tn *models.TreeNode) {
		if !models.IsRootID(tn.ID) {
			out = append(out, tn.Node)
		}
		for _, child := range tn.Children {
			walk(child)
		}
	}
	walk(root)
	return out
}

// FlattenSafe enumerates and flattens the local tree, failing closed: an
// enumeration error is logged and an empty list returned, because this
// commonly runs from background triggers with no caller able to react.
func FlattenSafe(store Store, logger *slog.Logger) []models.Node {
	root, err := store.Tree()
	if err != nil {
		logger.Error("localtree: enumerate failed", slog.String("error", err.Error()))
		return []models.Node{}
	}
	return Flatten(root)
}
