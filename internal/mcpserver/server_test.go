package mcpserver

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/localtree"
	"github.com/starford/raido/internal/models"
)

func testServer(t *testing.T, syncNow SyncFunc) (*Server, *localtree.DB) {
	t.Helper()

	dbFile, err := os.CreateTemp("", "raido-mcp-test-*.db")
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

	return New(db, syncNow), db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_bookmarks":
		result, err = srv.listBookmarks(ctx, req)
	case "add_bookmark":
		result, err = srv.addBookmark(ctx, req)
	case "remove_bookmark":
		result, err = srv.removeBookmark(ctx, req)
	case "sync_now":
		result, err = srv.runSync(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAddAndListBookmarks(t *testing.T) {
	srv, _ := testServer(t, nil)

	res := callTool(t, srv, "add_bookmark", map[string]interface{}{
		"title": "Site",
		"url":   "https://x.test",
	})
	if res.IsError {
		t.Fatalf("add_bookmark failed: %s", resultText(res))
	}

	res = callTool(t, srv, "list_bookmarks", nil)
	text := resultText(res)
	if !strings.Contains(text, "https://x.test") {
		t.Errorf("list output missing bookmark: %s", text)
	}
}

func TestRemoveBookmarkSubtree(t *testing.T) {
	srv, db := testServer(t, nil)
	folder, _ := db.Create(models.BarRootID, models.KindFolder, "F", "", 0)
	_, _ = db.Create(folder, models.KindBookmark, "in", "https://in.test", 0)

	res := callTool(t, srv, "remove_bookmark", map[string]interface{}{"id": folder})
	if res.IsError {
		t.Fatalf("remove_bookmark failed: %s", resultText(res))
	}

	res = callTool(t, srv, "list_bookmarks", nil)
	if strings.Contains(resultText(res), "https://in.test") {
		t.Error("subtree not removed")
	}
}

func TestSyncNow(t *testing.T) {
	called := false
	srv, _ := testServer(t, func(ctx context.Context) error {
		called = true
		return nil
	})
	res := callTool(t, srv, "sync_now", nil)
	if res.IsError || !called {
		t.Errorf("sync_now: called=%v, result=%s", called, resultText(res))
	}
}

func TestSyncNowReportsFailure(t *testing.T) {
	srv, _ := testServer(t, func(ctx context.Context) error {
		return errors.New("remote unavailable")
	})
	res := callTool(t, srv, "sync_now", nil)
	if !res.IsError {
		t.Error("expected error result")
	}
}

func TestSyncNowWithoutRemote(t *testing.T) {
	srv, _ := testServer(t, nil)
	res := callTool(t, srv, "sync_now", nil)
	if !res.IsError {
		t.Error("expected error result when no remote is configured")
	}
}
