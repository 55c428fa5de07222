// Package remote implements the HTTP client for the bookmark collection
// service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// StatusError reports a non-2xx response from the collection endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: unexpected status %d", e.Code)
}

// Client talks to a single collection endpoint with a bearer credential
// supplied per call. It remembers the entity tag of the last successful
// fetch so FetchChanged can short-circuit unchanged collections.
//
// Client is not safe for concurrent use; reconciliation runs are strictly
// sequential by design.
type Client struct {
	baseURL string
	http    *http.Client
	etag    string
}

// New creates a client for the collection service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) endpoint() string {
	return c.baseURL + "/api/bookmarks"
}

// FetchAll GETs the full remote node set. A missing envelope field decodes
// to an empty list. Non-2xx responses yield a *StatusError.
func (c *Client) FetchAll(ctx context.Context, token string) ([]models.Node, error) {
	return c.fetch(ctx, token, false)
}

// FetchChanged behaves like FetchAll but sends If-None-Match with the last
// seen entity tag; an unchanged collection yields apperr.ErrNotModified.
func (c *Client) FetchChanged(ctx context.Context, token string) ([]models.Node, error) {
	return c.fetch(ctx, token, true)
}

func (c *Client) fetch(ctx context.Context, token string, conditional bool) ([]models.Node, error) {
	if token == "" {
		return nil, apperr.ErrNoCredential
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if conditional && c.etag != "" {
		req.Header.Set("If-None-Match", c.etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, apperr.ErrNotModified
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var env models.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("remote: decode: %w", err)
	}
	if tag := resp.Header.Get("ETag"); tag != "" {
		c.etag = tag
	}
	if env.Bookmarks == nil {
		return []models.Node{}, nil
	}
	return env.Bookmarks, nil
}

// ReplaceAll POSTs the full local snapshot as the new remote state. The
// server replaces its collection wholesale; no merge happens server-side.
func (c *Client) ReplaceAll(ctx context.Context, token string, nodes []models.Node) error {
	if token == "" {
		return apperr.ErrNoCredential
	}
	body, err := json.Marshal(models.Envelope{Bookmarks: nodes})
	if err != nil {
		return fmt.Errorf("remote: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: upload: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	// The upload invalidates whatever tag we last saw.
	c.etag = ""
	return nil
}
