// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Raido bookmark tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/localtree"
	"github.com/starford/raido/internal/models"
)

// SyncFunc triggers one convergence run against the remote collection.
type SyncFunc func(ctx context.Context) error

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp     *server.MCPServer
	store   localtree.Store
	syncNow SyncFunc
}

// New creates a new MCP server with all Raido tools registered. syncNow
// may be nil, in which case the sync_now tool reports that no remote is
// configured.
func New(store localtree.Store, syncNow SyncFunc) *Server {
	s := &Server{store: store, syncNow: syncNow}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_bookmarks",
		mcp.WithDescription("List the local bookmark tree as a flat JSON array of nodes."),
	), s.listBookmarks)

	s.mcp.AddTool(mcp.NewTool("add_bookmark",
		mcp.WithDescription("Create a bookmark in the local tree. It is uploaded on the next sync."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Display title")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Bookmark URL")),
		mcp.WithString("parent", mcp.Description("Parent folder id (defaults to the bookmarks bar)")),
	), s.addBookmark)

	s.mcp.AddTool(mcp.NewTool("remove_bookmark",
		mcp.WithDescription("Remove a bookmark or folder (folders are removed with their subtree)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id to remove")),
	), s.removeBookmark)

	s.mcp.AddTool(mcp.NewTool("sync_now",
		mcp.WithDescription("Run one convergence pass against the remote collection."),
	), s.runSync)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func (s *Server) listBookmarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := s.store.Tree()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(localtree.Flatten(root), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parent := models.BarRootID
	if p, err := req.RequireString("parent"); err == nil && p != "" {
		parent = p
	}

	id, err := s.store.Create(parent, models.KindBookmark, title, url, nowMillis())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) removeBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.RemoveSubtree(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s", id)), nil
}

func (s *Server) runSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.syncNow == nil {
		return mcp.NewToolResultError("no remote configured"), nil
	}
	if err := s.syncNow(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("sync complete"), nil
}
