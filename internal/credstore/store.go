// Package credstore persists the bearer credential for the remote
// collection service. A missing token is the normal logged-out state, not
// a failure.
package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/apperr"
)

// Store keeps a single bearer token in a mode-0600 file.
type Store struct {
	path string
}

// New creates a store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the token file location, for watchers.
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored token. An absent or empty file yields
// apperr.ErrNoCredential.
func (s *Store) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", apperr.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("credstore: read: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", apperr.ErrNoCredential
	}
	return token, nil
}

// Set writes the token atomically: tmp file, fsync, rename.
func (s *Store) Set(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credstore: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".raido-cred-*")
	if err != nil {
		return fmt.Errorf("credstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("credstore: chmod: %w", err)
	}
	if _, err := tmp.WriteString(token + "\n"); err != nil {
		return fmt.Errorf("credstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("credstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("credstore: rename: %w", err)
	}
	success = true
	return nil
}

// Remove deletes the stored token. Removing an absent token is not an
// error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("credstore: remove: %w", err)
	}
	return nil
}
