package localtree

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRootsSeeded(t *testing.T) {
	db := testDB(t)
	root, err := db.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if root.ID != models.UmbrellaRootID {
		t.Errorf("root id = %q, want %q", root.ID, models.UmbrellaRootID)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 root folders, got %d", len(root.Children))
	}
	if root.Children[0].ID != models.BarRootID || root.Children[1].ID != models.OtherRootID {
		t.Errorf("root children = %q, %q", root.Children[0].ID, root.Children[1].ID)
	}
}

func TestRootsSeededOnce(t *testing.T) {
	f, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	db.Close()

	// Reopening must not duplicate the root folders.
	db, err = Open(f.Name())
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db.Close()
	root, err := db.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(root.Children) != 2 {
		t.Errorf("expected 2 root folders after reopen, got %d", len(root.Children))
	}
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	db := testDB(t)
	a, err := db.Create(models.BarRootID, models.KindFolder, "Work", "", 10)
	if err != nil {
		t.Fatalf("Create folder: %v", err)
	}
	b, err := db.Create(a, models.KindBookmark, "Site", "https://x.test", 20)
	if err != nil {
		t.Fatalf("Create bookmark: %v", err)
	}
	if a != "3" || b != "4" {
		t.Errorf("ids = %q, %q, want 3, 4", a, b)
	}
}

func TestCreateUnderMissingParent(t *testing.T) {
	db := testDB(t)
	if _, err := db.Create("99", models.KindBookmark, "x", "https://x.test", 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateUnderBookmarkFails(t *testing.T) {
	db := testDB(t)
	bm, _ := db.Create(models.BarRootID, models.KindBookmark, "x", "https://x.test", 0)
	if _, err := db.Create(bm, models.KindBookmark, "y", "https://y.test", 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFolderCreateDropsURL(t *testing.T) {
	db := testDB(t)
	id, _ := db.Create(models.BarRootID, models.KindFolder, "F", "https://leak.test", 0)
	root, _ := db.Tree()
	flat := Flatten(root)
	for _, n := range flat {
		if n.ID == id && n.URL != "" {
			t.Errorf("folder carries url %q", n.URL)
		}
	}
}

func TestUpdateTitleAndMove(t *testing.T) {
	db := testDB(t)
	f, _ := db.Create(models.BarRootID, models.KindFolder, "Work", "", 0)
	bm, _ := db.Create(models.BarRootID, models.KindBookmark, "Site", "https://x.test", 0)

	if err := db.UpdateTitle(bm, "Renamed"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	if err := db.Move(bm, f); err != nil {
		t.Fatalf("Move: %v", err)
	}

	root, _ := db.Tree()
	flat := Flatten(root)
	var got models.Node
	for _, n := range flat {
		if n.ID == bm {
			got = n
		}
	}
	if got.Title != "Renamed" {
		t.Errorf("title = %q", got.Title)
	}
	if got.ParentID != f {
		t.Errorf("parent = %q, want %q", got.ParentID, f)
	}
}

func TestMoveIntoOwnSubtreeFails(t *testing.T) {
	db := testDB(t)
	outer, _ := db.Create(models.BarRootID, models.KindFolder, "outer", "", 0)
	inner, _ := db.Create(outer, models.KindFolder, "inner", "", 0)
	if err := db.Move(outer, inner); err == nil {
		t.Error("expected error moving folder into its own subtree")
	}
	if err := db.Move(outer, outer); err == nil {
		t.Error("expected error moving folder into itself")
	}
}

func TestRemoveSubtree(t *testing.T) {
	db := testDB(t)
	f, _ := db.Create(models.BarRootID, models.KindFolder, "doomed", "", 0)
	sub, _ := db.Create(f, models.KindFolder, "sub", "", 0)
	_, _ = db.Create(sub, models.KindBookmark, "deep", "https://deep.test", 0)
	keep, _ := db.Create(models.BarRootID, models.KindBookmark, "keep", "https://keep.test", 0)

	if err := db.RemoveSubtree(f); err != nil {
		t.Fatalf("RemoveSubtree: %v", err)
	}
	root, _ := db.Tree()
	flat := Flatten(root)
	if len(flat) != 1 || flat[0].ID != keep {
		t.Errorf("flat = %+v, want only %s", flat, keep)
	}
}

func TestRemoveNonEmptyFolderFails(t *testing.T) {
	db := testDB(t)
	f, _ := db.Create(models.BarRootID, models.KindFolder, "full", "", 0)
	_, _ = db.Create(f, models.KindBookmark, "x", "https://x.test", 0)
	if err := db.Remove(f); err == nil {
		t.Error("expected error removing non-empty folder")
	}
	if err := db.RemoveSubtree(f); err != nil {
		t.Errorf("RemoveSubtree: %v", err)
	}
}

func TestRootsImmutable(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{models.UmbrellaRootID, models.BarRootID, models.OtherRootID} {
		if err := db.UpdateTitle(id, "x"); !errors.Is(err, apperr.ErrRootImmutable) {
			t.Errorf("UpdateTitle(%s) = %v", id, err)
		}
		if err := db.Remove(id); !errors.Is(err, apperr.ErrRootImmutable) {
			t.Errorf("Remove(%s) = %v", id, err)
		}
		if err := db.RemoveSubtree(id); !errors.Is(err, apperr.ErrRootImmutable) {
			t.Errorf("RemoveSubtree(%s) = %v", id, err)
		}
	}
}

func TestFlattenSkipsRootsAndKeepsPreOrder(t *testing.T) {
	db := testDB(t)
	f, _ := db.Create(models.BarRootID, models.KindFolder, "Work", "", 0)
	inner, _ := db.Create(f, models.KindBookmark, "Inner", "https://inner.test", 0)
	other, _ := db.Create(models.OtherRootID, models.KindBookmark, "Other", "https://other.test", 0)

	root, err := db.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	flat := Flatten(root)

	want := []string{f, inner, other}
	if len(flat) != len(want) {
		t.Fatalf("flat len = %d, want %d", len(flat), len(want))
	}
	for i, id := range want {
		if flat[i].ID != id {
			t.Errorf("flat[%d].ID = %q, want %q", i, flat[i].ID, id)
		}
		if models.IsRootID(flat[i].ID) {
			t.Errorf("flat[%d] is a system root", i)
		}
	}
}

func TestHasBookmarks(t *testing.T) {
	db := testDB(t)
	got, err := db.HasBookmarks()
	if err != nil || got {
		t.Fatalf("HasBookmarks on fresh tree = %v, %v", got, err)
	}
	// Folders alone do not count.
	_, _ = db.Create(models.BarRootID, models.KindFolder, "F", "", 0)
	if got, _ = db.HasBookmarks(); got {
		t.Error("folders should not count as bookmarks")
	}
	_, _ = db.Create(models.BarRootID, models.KindBookmark, "b", "https://b.test", 0)
	if got, _ = db.HasBookmarks(); !got {
		t.Error("expected HasBookmarks after creating a bookmark")
	}
}

func TestFlattenSafeFailsClosed(t *testing.T) {
	db := testDB(t)
	db.Close()
	flat := FlattenSafe(db, discardLogger())
	if flat == nil || len(flat) != 0 {
		t.Errorf("flat = %v, want empty non-nil slice", flat)
	}
}
