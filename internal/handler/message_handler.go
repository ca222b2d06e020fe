package handler

import (
	"net/http"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/viewmodel"
)

// MessageHandler serves the contact-message list and its commands.
type MessageHandler struct {
	sessions Sessions
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(sessions Sessions) *MessageHandler {
	return &MessageHandler{sessions: sessions}
}

// List handles GET /api/admin/messages.
// Query params: q, from, to (YYYY-MM-DD), unread (true), order (asc/desc).
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	q := r.URL.Query()
	f, err := viewmodel.ParseFilters(q.Get("q"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	dir := viewmodel.Desc
	switch q.Get("order") {
	case "", "desc":
	case "asc":
		dir = viewmodel.Asc
	default:
		writeError(w, http.StatusBadRequest, "invalid_sort")
		return
	}

	view, err := s.MessageView(r.Context(), viewmodel.MessageFilters{
		Filters:    f,
		UnreadOnly: q.Get("unread") == "true",
	}, dir)
	if err != nil {
		writeCommandError(w, err, "list_failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Trash handles GET /api/admin/messages/trash.
func (h *MessageHandler) Trash(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	trash, err := s.Trash(r.Context())
	if err != nil {
		writeCommandError(w, err, "list_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Message{"items": trash.Messages})
}

// MarkRead handles POST /api/admin/messages/{id}/read.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	if err := s.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		writeCommandError(w, err, "mark_read_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SoftDelete handles POST /api/admin/messages/{id}/delete.
func (h *MessageHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	softDelete(h.sessions, model.CollectionMessages, w, r)
}

// Restore handles POST /api/admin/messages/{id}/restore.
func (h *MessageHandler) Restore(w http.ResponseWriter, r *http.Request) {
	restore(h.sessions, model.CollectionMessages, w, r)
}

// HardDelete handles DELETE /api/admin/messages/{id}.
func (h *MessageHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	hardDelete(h.sessions, model.CollectionMessages, w, r)
}
