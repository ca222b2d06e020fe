package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/exitravels/backoffice/internal/dashboard"
	"github.com/exitravels/backoffice/internal/export"
	"github.com/exitravels/backoffice/internal/metrics"
	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/viewmodel"
	"github.com/exitravels/backoffice/pkg/auth"
)

// Sessions resolves the signed-in admin's dashboard session.
type Sessions interface {
	Get(adminID string) *dashboard.Session
	Renew(adminID string, until time.Time)
}

// sessionFor returns the caller's session, or writes 401 and returns nil.
// The session lives as long as the caller's sign-in token.
func sessionFor(sessions Sessions, w http.ResponseWriter, r *http.Request) *dashboard.Session {
	adminID, ok := auth.AdminIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	s := sessions.Get(adminID)
	if until, ok := auth.SessionExpiryFromContext(r.Context()); ok {
		sessions.Renew(adminID, until)
	}
	return s
}

// ReservationHandler serves the reservation list, its commands and the CSV
// export.
type ReservationHandler struct {
	sessions Sessions
	loc      *time.Location
	now      func() time.Time
}

// NewReservationHandler creates a ReservationHandler. Export dates are
// rendered in loc.
func NewReservationHandler(sessions Sessions, loc *time.Location) *ReservationHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationHandler{sessions: sessions, loc: loc, now: time.Now}
}

func parseReservationQuery(r *http.Request) (viewmodel.Filters, viewmodel.Sort, string) {
	q := r.URL.Query()
	f, err := viewmodel.ParseFilters(q.Get("q"), q.Get("from"), q.Get("to"))
	if err != nil {
		return viewmodel.Filters{}, viewmodel.Sort{}, "invalid_date"
	}
	s, err := viewmodel.ParseSort(q.Get("sort"), q.Get("order"))
	if err != nil {
		return viewmodel.Filters{}, viewmodel.Sort{}, "invalid_sort"
	}
	return f, s, ""
}

// List handles GET /api/admin/reservations.
// Query params: q, from, to (YYYY-MM-DD), sort, order (asc/desc).
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	f, sort, code := parseReservationQuery(r)
	if code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}
	view, err := s.ReservationView(r.Context(), f, sort)
	if err != nil {
		writeCommandError(w, err, "list_failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Trash handles GET /api/admin/reservations/trash.
func (h *ReservationHandler) Trash(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	trash, err := s.Trash(r.Context())
	if err != nil {
		writeCommandError(w, err, "list_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Reservation{"items": trash.Reservations})
}

// Export handles GET /api/admin/reservations/export.csv. Without query
// params it exports the list as last displayed; with them, the list those
// params select.
func (h *ReservationHandler) Export(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}

	var list []model.Reservation
	if r.URL.RawQuery == "" {
		var err error
		if list, err = s.DisplayedReservations(r.Context()); err != nil {
			writeCommandError(w, err, "export_failed")
			return
		}
	} else {
		f, sort, code := parseReservationQuery(r)
		if code != "" {
			writeError(w, http.StatusBadRequest, code)
			return
		}
		view, err := s.ReservationView(r.Context(), f, sort)
		if err != nil {
			writeCommandError(w, err, "export_failed")
			return
		}
		list = view.Items
	}

	var buf bytes.Buffer
	if err := export.WriteReservationsCSV(&buf, list, h.loc); err != nil {
		writeCommandError(w, err, "export_failed")
		return
	}
	metrics.CSVExports.Inc()
	slog.Info("reservations exported", "rows", len(list))

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

// PatchStatus handles PATCH /api/admin/reservations/{id}/status.
func (h *ReservationHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	s := sessionFor(h.sessions, w, r)
	if s == nil {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := s.SetStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeCommandError(w, err, "update_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SoftDelete handles POST /api/admin/reservations/{id}/delete.
func (h *ReservationHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	softDelete(h.sessions, model.CollectionReservations, w, r)
}

// Restore handles POST /api/admin/reservations/{id}/restore.
func (h *ReservationHandler) Restore(w http.ResponseWriter, r *http.Request) {
	restore(h.sessions, model.CollectionReservations, w, r)
}

// HardDelete handles DELETE /api/admin/reservations/{id}.
func (h *ReservationHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	hardDelete(h.sessions, model.CollectionReservations, w, r)
}

// ---------------------------------------------------------------------------
// Commands shared by both collections
// ---------------------------------------------------------------------------

func softDelete(sessions Sessions, c model.Collection, w http.ResponseWriter, r *http.Request) {
	s := sessionFor(sessions, w, r)
	if s == nil {
		return
	}
	if err := s.SoftDelete(r.Context(), c, r.PathValue("id")); err != nil {
		writeCommandError(w, err, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func restore(sessions Sessions, c model.Collection, w http.ResponseWriter, r *http.Request) {
	s := sessionFor(sessions, w, r)
	if s == nil {
		return
	}
	if err := s.Restore(r.Context(), c, r.PathValue("id")); err != nil {
		writeCommandError(w, err, "restore_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// confirmTokenHeader carries the token of a pending hard delete.
const confirmTokenHeader = "X-Confirm-Token"

type confirmationResponse struct {
	Error        string                 `json:"error"`
	Confirmation dashboard.Confirmation `json:"confirmation"`
}

// hardDelete is two-step. Without a token it answers 428 with a
// confirmation carrying the warning text; repeating the request with that
// token (X-Confirm-Token header or ?confirm=) deletes the record.
func hardDelete(sessions Sessions, c model.Collection, w http.ResponseWriter, r *http.Request) {
	s := sessionFor(sessions, w, r)
	if s == nil {
		return
	}
	id := r.PathValue("id")
	token := r.Header.Get(confirmTokenHeader)
	if token == "" {
		token = r.URL.Query().Get("confirm")
	}

	if token == "" {
		conf, err := s.RequestHardDelete(r.Context(), c, id)
		if err != nil {
			writeCommandError(w, err, "delete_failed")
			return
		}
		writeJSON(w, http.StatusPreconditionRequired, confirmationResponse{
			Error:        "confirmation_required",
			Confirmation: conf,
		})
		return
	}

	if err := s.ConfirmHardDelete(r.Context(), c, id, token); err != nil {
		writeCommandError(w, err, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
