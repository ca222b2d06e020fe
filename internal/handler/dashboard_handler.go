package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/exitravels/backoffice/internal/model"
)

const sseKeepAlive = 25 * time.Second

// DashboardHandler serves session-level state: selection, notices,
// notification permission and the live event stream.
type DashboardHandler struct {
	sessions  Sessions
	keepAlive time.Duration
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(sessions Sessions) *DashboardHandler {
	return &DashboardHandler{sessions: sessions, keepAlive: sseKeepAlive}
}

type selectionRequest struct {
	Collection model.Collection `json:"collection"`
	ID         string           `json:"id"`
}

// Select handles PUT /api/admin/selection. An empty id clears the selection.
func (h *DashboardHandler) Select(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.ID == "" {
		if err := s.ClearSelection(r.Context()); err != nil {
			writeCommandError(w, err, "select_failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !req.Collection.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_collection")
		return
	}
	sel, err := s.Select(r.Context(), req.Collection, req.ID)
	if err != nil {
		writeCommandError(w, err, "select_failed")
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// Notices handles GET /api/admin/notices: live notices, load state and the
// current selection.
func (h *DashboardHandler) Notices(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	st, err := s.Status(r.Context())
	if err != nil {
		writeCommandError(w, err, "status_failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type permissionRequest struct {
	Granted bool `json:"granted"`
}

// Notifications handles PUT /api/admin/notifications, relaying the
// browser's Notification permission.
func (h *DashboardHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	s.SetNotificationPermission(req.Granted)
	w.WriteHeader(http.StatusNoContent)
}

// Events handles GET /api/admin/events as a Server-Sent Events stream of
// session updates (snapshot, cue, notification, notice, error, selection).
func (h *DashboardHandler) Events(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	rc := http.NewResponseController(w)
	updates, unsubscribe := s.Updates()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			slog.Warn("event stream without flush support")
		}
		return
	}
	// Streams outlive the server's WriteTimeout.
	_ = rc.SetWriteDeadline(time.Time{})

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(u)
			if err != nil {
				slog.Warn("encode update failed", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", u.Type, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
