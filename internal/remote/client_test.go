package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

func TestFetchAllDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.Envelope{Bookmarks: []models.Node{
			models.NewBookmark("b1", models.BarRootID, "Site", "https://x.test", 10),
		}})
	}))
	defer srv.Close()

	nodes, err := New(srv.URL).FetchAll(context.Background(), "tok")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(nodes) != 1 || nodes[0].URL != "https://x.test" {
		t.Errorf("nodes = %+v", nodes)
	}
}

func TestFetchAllEmptyEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	nodes, err := New(srv.URL).FetchAll(context.Background(), "tok")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if nodes == nil || len(nodes) != 0 {
		t.Errorf("nodes = %v, want empty non-nil slice", nodes)
	}
}

func TestFetchAllStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchAll(context.Background(), "tok")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Errorf("err = %v, want StatusError 502", err)
	}
}

func TestMissingCredentialIsPreconditionFailure(t *testing.T) {
	c := New("http://unused.test")
	if _, err := c.FetchAll(context.Background(), ""); !errors.Is(err, apperr.ErrNoCredential) {
		t.Errorf("FetchAll err = %v", err)
	}
	if err := c.ReplaceAll(context.Background(), "", nil); !errors.Is(err, apperr.ErrNoCredential) {
		t.Errorf("ReplaceAll err = %v", err)
	}
}

func TestFetchChangedUsesETag(t *testing.T) {
	var gotIfNoneMatch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIfNoneMatch = r.Header.Get("If-None-Match")
		if gotIfNoneMatch == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(`{"bookmarks":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.FetchChanged(context.Background(), "tok"); err != nil {
		t.Fatalf("first FetchChanged: %v", err)
	}
	_, err := c.FetchChanged(context.Background(), "tok")
	if !errors.Is(err, apperr.ErrNotModified) {
		t.Fatalf("second FetchChanged err = %v, want ErrNotModified", err)
	}
	if gotIfNoneMatch != `"v1"` {
		t.Errorf("If-None-Match = %q", gotIfNoneMatch)
	}
}

func TestReplaceAllPostsSnapshot(t *testing.T) {
	var got models.Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	nodes := []models.Node{models.NewFolder("3", models.BarRootID, "Work", 5)}
	if err := New(srv.URL).ReplaceAll(context.Background(), "tok", nodes); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if len(got.Bookmarks) != 1 || got.Bookmarks[0].Title != "Work" {
		t.Errorf("uploaded = %+v", got.Bookmarks)
	}
}
