package handler

import (
	"net/http"

	"github.com/exitravels/backoffice/internal/dashboard"
	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository"
)

// FeedStatus reports the server-wide live subscriptions.
type FeedStatus interface {
	Feeds() map[model.Collection]dashboard.FeedState
}

// Handler serves the cross-cutting endpoints (health, CORS).
type Handler struct {
	db          repository.DB
	feeds       FeedStatus
	frontendURL string
}

// New creates the handler. feeds may be nil when no watcher runs.
func New(db repository.DB, feeds FeedStatus, frontendURL string) *Handler {
	return &Handler{db: db, feeds: feeds, frontendURL: frontendURL}
}

// CORS allows the dashboard front end, with cookies, the confirmation
// header and a readable Content-Disposition on exports.
func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.frontendURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+confirmTokenHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
