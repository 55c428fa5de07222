// Package models defines the domain types for Raido.
package models

// Kind discriminates the two node variants. A bookmark carries a URL and
// never has children; a folder has no URL and may own children.
type Kind string

const (
	KindBookmark Kind = "bookmark"
	KindFolder   Kind = "folder"
)

// Root container ids. They exist in both origins, are never created,
// renamed, or deleted, and never appear in flattened node lists.
const (
	UmbrellaRootID = "0" // traversed but never materialized as a node
	BarRootID      = "1" // default placement for orphaned items
	OtherRootID    = "2"
)

// IsRootID reports whether id names one of the three system containers.
func IsRootID(id string) bool {
	return id == UmbrellaRootID || id == BarRootID || id == OtherRootID
}

// IsFixedRootID reports whether id names one of the two fixed folder roots
// that may act as a parent.
func IsFixedRootID(id string) bool {
	return id == BarRootID || id == OtherRootID
}

// Node is the flattened transport representation of a bookmark or folder.
// Ids are opaque and only meaningful within their origin: a local id and a
// remote id are never comparable.
type Node struct {
	ID        string `json:"id"`
	ParentID  string `json:"parentId,omitempty"`
	Kind      Kind   `json:"type"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	DateAdded int64  `json:"dateAdded,omitempty"` // ms since epoch, 0 = undated
}

// NewBookmark builds a bookmark node.
func NewBookmark(id, parentID, title, url string, dateAdded int64) Node {
	return Node{ID: id, ParentID: parentID, Kind: KindBookmark, Title: title, URL: url, DateAdded: dateAdded}
}

// NewFolder builds a folder node.
func NewFolder(id, parentID, title string, dateAdded int64) Node {
	return Node{ID: id, ParentID: parentID, Kind: KindFolder, Title: title, DateAdded: dateAdded}
}

// IsFolder reports whether the node is the folder variant.
func (n Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// TreeNode is the in-memory hierarchical representation of the local tree.
// Children ownership is exclusive: a child appears under exactly one parent.
// The transport form (Node) never carries children.
type TreeNode struct {
	Node
	Children []*TreeNode
}

// Envelope is the wire format of the remote collection endpoint.
type Envelope struct {
	Bookmarks []Node `json:"bookmarks"`
}
