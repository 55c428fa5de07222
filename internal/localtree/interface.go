package localtree

import "github.com/starford/raido/internal/models"

// Store defines the local bookmark tree operations the synchronizer needs.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type Store interface {
	Tree() (*models.TreeNode, error)
	Create(parentID string, kind models.Kind, title, url string, dateAdded int64) (string, error)
	UpdateTitle(id, title string) error
	Move(id, newParentID string) error
	Remove(id string) error
	RemoveSubtree(id string) error
	HasBookmarks() (bool, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
