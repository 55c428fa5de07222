// Package testutil provides shared test helpers for setting up bookmark
// trees and collection services.
package testutil

import (
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/collection"
	"github.com/starford/raido/internal/localtree"
)

// TestTree creates a temporary local bookmark tree that is automatically
// cleaned up.
func TestTree(t *testing.T) *localtree.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-tree-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := localtree.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCollection creates a temporary server-side collection store.
func TestCollection(t *testing.T) *collection.Store {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-collection-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := collection.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestService starts a collection service over httptest, token-protected,
// and returns its base URL together with the backing store.
func TestService(t *testing.T, token string) (string, *collection.Store) {
	t.Helper()
	store := TestCollection(t)
	root := chi.NewRouter()
	root.Mount("/api", api.NewRouter(store, token != "", token, nil))
	srv := httptest.NewServer(root)
	t.Cleanup(srv.Close)
	return srv.URL, store
}
