package sync

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/raido/internal/localtree"
	"github.com/starford/raido/internal/models"
)

// byDateAdded orders nodes by ascending creation time. Undated nodes carry
// a zero timestamp and therefore sort first. The sort is stable so equal
// timestamps keep their remote order.
func byDateAdded(nodes []models.Node) []models.Node {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b models.Node) int {
		return cmp.Compare(a.DateAdded, b.DateAdded)
	})
	return out
}

// Seed pulls the remote set and adopts it into the local tree.
//
// With an empty local tree the remote nodes are recreated locally in
// chronological order, materializing ancestor folders on demand. With a
// non-empty local tree only remote bookmarks whose URL is absent locally
// are appended under the first fixed root; folder structure is not
// reconstructed for them.
//
// Either way Seed finishes by pushing the resulting local snapshot back to
// the remote store, so the remote gains any locally pre-existing bookmarks.
func (r *Reconciler) Seed(ctx context.Context, token string) error {
	if err := r.acquire(); err != nil {
		return err
	}
	defer r.release()

	remoteNodes, err := r.remote.FetchAll(ctx, token)
	if err != nil {
		return fmt.Errorf("sync: seed fetch: %w", err)
	}
	remoteNodes = stripRoots(remoteNodes)

	hasLocal, err := r.store.HasBookmarks()
	if err != nil {
		return fmt.Errorf("sync: seed local check: %w", err)
	}

	if hasLocal {
		r.mergeAppend(remoteNodes)
	} else {
		r.adopt(remoteNodes)
	}

	snapshot := localtree.FlattenSafe(r.store, r.logger)
	if err := r.remote.ReplaceAll(ctx, token, snapshot); err != nil {
		return fmt.Errorf("sync: seed push-back: %w", err)
	}
	r.logger.Info("sync: seed complete",
		slog.Int("remote_nodes", len(remoteNodes)),
		slog.Int("snapshot", len(snapshot)),
		slog.Bool("merged", hasLocal))
	return nil
}

// adopt recreates every remote node locally in ascending dateAdded order.
// Parents are materialized on demand, so a child whose folder is
// chronologically younger is still created after that folder exists.
func (r *Reconciler) adopt(remoteNodes []models.Node) {
	rs := newRun(r.store, r.logger, remoteNodes)

	for _, n := range byDateAdded(remoteNodes) {
		if _, done := rs.processed[n.ID]; done {
			continue
		}
		if n.IsFolder() {
			rs.materializeFolder(n)
			continue
		}
		rs.processed[n.ID] = struct{}{}
		parent := rs.resolveParent(n)
		if _, err := r.store.Create(parent, models.KindBookmark, n.Title, n.URL, n.DateAdded); err != nil {
			r.logger.Warn("sync: create bookmark failed",
				slog.String("title", n.Title), slog.String("error", err.Error()))
		}
	}
}

// mergeAppend appends remote bookmarks whose URL is not present locally.
// URL is the identity here, never the id. New items land under the first
// fixed root; orphaned remote folder structure is intentionally not
// reconstructed in this branch.
func (r *Reconciler) mergeAppend(remoteNodes []models.Node) {
	seen := make(map[string]struct{})
	for _, n := range localtree.FlattenSafe(r.store, r.logger) {
		if !n.IsFolder() {
			seen[n.URL] = struct{}{}
		}
	}

	for _, n := range byDateAdded(remoteNodes) {
		if n.IsFolder() {
			continue
		}
		if _, dup := seen[n.URL]; dup {
			continue
		}
		if _, err := r.store.Create(models.BarRootID, models.KindBookmark, n.Title, n.URL, n.DateAdded); err != nil {
			r.logger.Warn("sync: merge bookmark failed",
				slog.String("title", n.Title), slog.String("error", err.Error()))
			continue
		}
		seen[n.URL] = struct{}{}
	}
}
