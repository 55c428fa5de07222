package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/collection"
	"github.com/starford/raido/internal/sse"
)

// NewRouter creates a chi router with the collection routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(store *collection.Store, authEnabled bool, token string, broker *sse.Broker) chi.Router {
	h := NewHandler(store, broker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/bookmarks", h.GetBookmarks)
	r.Post("/bookmarks", h.ReplaceBookmarks)

	if broker != nil {
		r.Get("/events", func(w http.ResponseWriter, req *http.Request) {
			broker.ServeHTTP(w, req)
		})
	}

	return r
}
