package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/exitravels/backoffice/internal/dashboard"
	"github.com/exitravels/backoffice/internal/export"
	"github.com/exitravels/backoffice/internal/repository"
	"github.com/exitravels/backoffice/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeCommandError maps a dashboard/command error to a status and code.
// fallback is the code used for unexpected (store) failures.
func writeCommandError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, dashboard.ErrUnknownRecord), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status")
	case errors.Is(err, dashboard.ErrStatusLocked):
		writeError(w, http.StatusConflict, "status_locked")
	case errors.Is(err, dashboard.ErrNotDeleted):
		writeError(w, http.StatusConflict, "not_deleted")
	case errors.Is(err, dashboard.ErrUnknownConfirmation):
		writeError(w, http.StatusConflict, "unknown_confirmation")
	case errors.Is(err, export.ErrEmpty):
		writeError(w, http.StatusUnprocessableEntity, "nothing_to_export")
	case errors.Is(err, dashboard.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "session_closed")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
