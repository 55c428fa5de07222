package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/localtree"
	"github.com/starford/raido/internal/models"
)

// Converge makes the local tree match the remote set. The remote side is
// authoritative and is not modified by this run.
//
// Bookmarks are matched by URL, folders by title under the resolved
// parent. Local bookmarks absent from the remote URL set are deleted;
// local folders that no remote folder maps onto are deleted with their
// subtree. Matched bookmarks whose title or parent diverged are updated
// and moved; remote wins on conflict.
//
// Every local mutation is attempted independently: a failing item is
// logged and skipped, never aborting the run. Only a missing credential
// or a failed remote fetch aborts early.
func (r *Reconciler) Converge(ctx context.Context, token string) error {
	if err := r.acquire(); err != nil {
		return err
	}
	defer r.release()

	remoteNodes, err := r.remote.FetchAll(ctx, token)
	if err != nil {
		return fmt.Errorf("sync: converge fetch: %w", err)
	}
	remoteNodes = stripRoots(remoteNodes)
	local := localtree.FlattenSafe(r.store, r.logger)

	// Partition both origins: bookmarks keyed by URL, folders by id.
	remoteURLs := make(map[string]struct{})
	remoteFolderIDs := make(map[string]struct{})
	for _, n := range remoteNodes {
		if n.IsFolder() {
			remoteFolderIDs[n.ID] = struct{}{}
		} else {
			remoteURLs[n.URL] = struct{}{}
		}
	}
	localByURL := make(map[string]models.Node)
	var localFolders []models.Node
	for _, n := range local {
		if n.IsFolder() {
			localFolders = append(localFolders, n)
		} else if _, dup := localByURL[n.URL]; !dup {
			localByURL[n.URL] = n
		}
	}

	// Deletion pass, bookmarks: remote is authoritative for presence.
	for _, n := range local {
		if n.IsFolder() {
			continue
		}
		if _, ok := remoteURLs[n.URL]; ok {
			continue
		}
		if err := r.store.Remove(n.ID); err != nil {
			r.logger.Warn("sync: remove bookmark failed",
				slog.String("title", n.Title), slog.String("error", err.Error()))
			continue
		}
		delete(localByURL, n.URL)
		r.logger.Debug("sync: removed stale bookmark", slog.String("title", n.Title))
	}

	// Creation/update pass in chronological order. Matching local folders
	// by title+parent populates the run's folder mapping, which the folder
	// deletion pass below uses to keep matched folders alive.
	rs := newRun(r.store, r.logger, remoteNodes)
	rs.localFolders = make(map[folderKey]string, len(localFolders))
	for _, f := range localFolders {
		key := folderKey{title: f.Title, parentID: f.ParentID}
		if _, dup := rs.localFolders[key]; !dup {
			rs.localFolders[key] = f.ID
		}
	}

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
		existing, ok := localByURL[n.URL]
		if !ok {
			if _, err := r.store.Create(parent, models.KindBookmark, n.Title, n.URL, n.DateAdded); err != nil {
				r.logger.Warn("sync: create bookmark failed",
					slog.String("title", n.Title), slog.String("error", err.Error()))
			}
			continue
		}
		if existing.Title != n.Title {
			if err := r.store.UpdateTitle(existing.ID, n.Title); err != nil {
				r.logger.Warn("sync: update title failed",
					slog.String("title", n.Title), slog.String("error", err.Error()))
			}
		}
		if existing.ParentID != parent {
			if err := r.store.Move(existing.ID, parent); err != nil {
				r.logger.Warn("sync: move bookmark failed",
					slog.String("title", n.Title), slog.String("error", err.Error()))
			}
		}
	}

	// Deletion pass, folders. A local folder survives when its id appears
	// remotely or when the mapping claimed it for a remote folder; anything
	// else is stale structure and goes with its subtree.
	kept := make(map[string]struct{}, len(rs.folderMap))
	for _, localID := range rs.folderMap {
		kept[localID] = struct{}{}
	}
	for _, f := range localFolders {
		if _, ok := remoteFolderIDs[f.ID]; ok {
			continue
		}
		if _, ok := kept[f.ID]; ok {
			continue
		}
		if err := r.store.RemoveSubtree(f.ID); err != nil {
			// An ancestor removed earlier in this pass takes its
			// descendants with it.
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			r.logger.Warn("sync: remove folder failed",
				slog.String("title", f.Title), slog.String("error", err.Error()))
			continue
		}
		r.logger.Debug("sync: removed stale folder", slog.String("title", f.Title))
	}

	r.logger.Info("sync: converge complete",
		slog.Int("remote_nodes", len(remoteNodes)),
		slog.Int("local_nodes", len(local)))
	return nil
}
