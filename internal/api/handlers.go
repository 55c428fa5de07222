package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/collection"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/sse"
)

// Handler holds the collection route handlers.
type Handler struct {
	store  *collection.Store
	broker *sse.Broker
}

// NewHandler creates a Handler. broker may be nil when no event stream is
// mounted.
func NewHandler(store *collection.Store, broker *sse.Broker) *Handler {
	return &Handler{store: store, broker: broker}
}

// GetBookmarks returns the full collection in a {bookmarks: [...]} envelope
// with a strong ETag. An If-None-Match hit yields 304 with no body.
func (h *Handler) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.store.List()
	if err != nil {
		slog.Error("list collection failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("storage failure"))
		return
	}

	body, err := json.Marshal(models.Envelope{Bookmarks: nodes})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("encode failure"))
		return
	}
	tag := checksum.ETag(body)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", tag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ReplaceBookmarks accepts a {bookmarks: [...]} envelope and replaces the
// collection wholesale. The server never merges.
func (h *Handler) ReplaceBookmarks(w http.ResponseWriter, r *http.Request) {
	var env models.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	for _, n := range env.Bookmarks {
		if n.ID == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("node without id"))
			return
		}
		switch n.Kind {
		case models.KindBookmark:
			if n.URL == "" {
				writeJSON(w, http.StatusBadRequest, errorBody("bookmark without url: "+n.ID))
				return
			}
		case models.KindFolder:
			if n.URL != "" {
				writeJSON(w, http.StatusBadRequest, errorBody("folder with url: "+n.ID))
				return
			}
		default:
			writeJSON(w, http.StatusBadRequest, errorBody("unknown node type: "+n.ID))
			return
		}
	}

	if err := h.store.ReplaceAll(env.Bookmarks); err != nil {
		slog.Error("replace collection failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("storage failure"))
		return
	}

	if h.broker != nil {
		if cs, err := h.store.Checksum(); err == nil {
			h.broker.PublishCollectionUpdated(cs)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
