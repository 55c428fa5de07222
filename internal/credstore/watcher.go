package credstore

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/raido/internal/apperr"
)

// LoginCallback is invoked with the new token when a credential appears or
// changes on disk.
type LoginCallback func(token string)

// Watch observes the token file until ctx is cancelled and calls cb when a
// login happens (the file gains a token it did not have, or the token
// changes). The file's directory is watched rather than the file itself,
// because Set replaces the file by rename.
func (s *Store) Watch(ctx context.Context, logger *slog.Logger, cb LoginCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return err
	}

	last, err := s.Get()
	if err != nil && !errors.Is(err, apperr.ErrNoCredential) {
		return err
	}

	logger.Info("credstore: watching for login", slog.String("path", s.path))

	for {
		select {
		case <-ctx.Done():
			logger.Info("credstore: watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != s.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			token, err := s.Get()
			if err != nil {
				// Logged out or unreadable; nothing to trigger.
				last = ""
				continue
			}
			if token == last {
				continue
			}
			last = token
			logger.Info("credstore: credential changed")
			if cb != nil {
				cb(token)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("credstore: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
