// Package sync implements bidirectional reconciliation between the local
// bookmark tree and the remote collection.
//
// Two modes exist. Seed adopts the remote set into an empty local tree (or
// merges new remote URLs into a non-empty one) and pushes the resulting
// snapshot back. Converge makes the local tree match the remote set without
// touching the remote side.
package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/localtree"
	"github.com/starford/raido/internal/models"
)

// Source is the remote collection surface the reconciler needs.
type Source interface {
	FetchAll(ctx context.Context, token string) ([]models.Node, error)
	ReplaceAll(ctx context.Context, token string, nodes []models.Node) error
}

// Reconciler drives local mutations to converge on remote state. Runs are
// strictly sequential: an invocation that overlaps an in-flight run returns
// apperr.ErrSyncBusy instead of racing on the tree.
type Reconciler struct {
	store   localtree.Store
	remote  Source
	logger  *slog.Logger
	running atomic.Bool
}

// New creates a reconciler over the given local store and remote source.
func New(store localtree.Store, remote Source, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, remote: remote, logger: logger}
}

func (r *Reconciler) acquire() error {
	if !r.running.CompareAndSwap(false, true) {
		return apperr.ErrSyncBusy
	}
	return nil
}

func (r *Reconciler) release() {
	r.running.Store(false)
}

// folderKey identifies a local folder by title under a resolved local
// parent, the match criterion Converge uses instead of cross-origin ids.
type folderKey struct {
	title    string
	parentID string
}

// run holds the per-invocation reconciliation state. It is created afresh
// for every run and never shared: the folder mapping and processed set are
// scoped to a single invocation.
type run struct {
	store  localtree.Store
	logger *slog.Logger

	remoteByID map[string]models.Node
	// folderMap maps remote folder ids to local folder ids. It is seeded
	// with the fixed roots mapped to themselves.
	folderMap map[string]string
	// processed tracks remote ids already handled, so the main loop skips
	// folders that were materialized early as someone's parent.
	processed map[string]struct{}
	// visiting guards the recursive parent resolution against cycles in
	// the remote parent chain.
	visiting map[string]struct{}
	// localFolders matches existing local folders by title+parent. Only
	// populated by Converge; when nil, folders are always created anew.
	localFolders map[folderKey]string
}

func newRun(store localtree.Store, logger *slog.Logger, remoteNodes []models.Node) *run {
	rs := &run{
		store:      store,
		logger:     logger,
		remoteByID: make(map[string]models.Node, len(remoteNodes)),
		folderMap: map[string]string{
			models.BarRootID:   models.BarRootID,
			models.OtherRootID: models.OtherRootID,
		},
		processed: make(map[string]struct{}),
		visiting:  make(map[string]struct{}),
	}
	for _, n := range remoteNodes {
		rs.remoteByID[n.ID] = n
	}
	return rs
}

// resolveParent returns the local folder id under which the remote node n
// belongs, materializing missing ancestor folders first. An absent,
// cyclic, or non-folder parent is not an error: the node falls back to the
// first fixed root.
func (rs *run) resolveParent(n models.Node) string {
	p := n.ParentID
	if p == "" || p == models.UmbrellaRootID {
		return models.BarRootID
	}
	if local, ok := rs.folderMap[p]; ok {
		return local
	}
	parent, ok := rs.remoteByID[p]
	if !ok || !parent.IsFolder() {
		return models.BarRootID
	}
	if _, cyclic := rs.visiting[p]; cyclic {
		return models.BarRootID
	}
	return rs.materializeFolder(parent)
}

// materializeFolder ensures a local folder exists for the remote folder f
// and returns its local id, resolving f's own parent chain first so a
// child is never created before its container. The remote id is recorded
// in the folder mapping and the processed set either way.
func (rs *run) materializeFolder(f models.Node) string {
	if local, ok := rs.folderMap[f.ID]; ok {
		return local
	}
	rs.visiting[f.ID] = struct{}{}
	parentLocal := rs.resolveParent(f)
	delete(rs.visiting, f.ID)

	rs.processed[f.ID] = struct{}{}

	if rs.localFolders != nil {
		if local, ok := rs.localFolders[folderKey{title: f.Title, parentID: parentLocal}]; ok {
			rs.folderMap[f.ID] = local
			return local
		}
	}

	local, err := rs.store.Create(parentLocal, models.KindFolder, f.Title, "", f.DateAdded)
	if err != nil {
		rs.logger.Warn("sync: create folder failed",
			slog.String("title", f.Title), slog.String("error", err.Error()))
		return models.BarRootID
	}
	rs.folderMap[f.ID] = local
	if rs.localFolders != nil {
		rs.localFolders[folderKey{title: f.Title, parentID: parentLocal}] = local
	}
	rs.logger.Debug("sync: created folder",
		slog.String("title", f.Title), slog.String("local_id", local))
	return local
}

// stripRoots drops the three system containers from a remote node list.
// They exist in every origin and are never synchronized themselves. The
// input slice is left untouched; fetch sources may hand over their own
// backing array.
func stripRoots(nodes []models.Node) []models.Node {
	out := make([]models.Node, 0, len(nodes))
	for _, n := range nodes {
		if !models.IsRootID(n.ID) {
			out = append(out, n)
		}
	}
	return out
}
