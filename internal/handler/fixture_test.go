package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/exitravels/backoffice/internal/dashboard"
	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository/repotest"
	"github.com/exitravels/backoffice/internal/service"
	"github.com/exitravels/backoffice/internal/stream"
	"github.com/exitravels/backoffice/pkg/auth"
)

// ---------------------------------------------------------------------------
// Live back office over in-memory collections
// ---------------------------------------------------------------------------

const testAdminID = "admin-1"

type backOffice struct {
	registry *dashboard.Registry
	res      *repotest.Collection
	msg      *repotest.Collection
	mux      *http.ServeMux
}

func at(day, hour int) *time.Time {
	t := time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
	return &t
}

// newBackOffice seeds r1 (pending, Martin → Rome), r2 (confirmed, Durand →
// Lisbonne), r3 (soft-deleted) and message m1 (unread), then waits until the
// admin's session has loaded both collections.
func newBackOffice(t *testing.T) *backOffice {
	t.Helper()
	res := repotest.NewCollection(model.CollectionReservations)
	msg := repotest.NewCollection(model.CollectionMessages)
	res.Put("r1", at(10, 9), map[string]any{
		"status": "pending", "tripType": "round",
		"contact": map[string]any{"nom": "Martin", "prenom": "Jean", "email": "jean@example.com"},
		"flights": []any{map[string]any{"from": "Paris", "to": "Rome", "cabinClass": "eco"}},
	})
	res.Put("r2", at(11, 9), map[string]any{
		"status": "confirmed", "tripType": "oneWay",
		"contact": map[string]any{"nom": "Durand", "prenom": "Léa", "email": "lea@example.com"},
		"flights": []any{map[string]any{"from": "Paris", "to": "Lisbonne", "cabinClass": "business"}},
	})
	res.Put("r3", at(3, 9), map[string]any{"status": "pending", "isDeleted": true})
	msg.Put("m1", at(11, 8), map[string]any{"nom": "Bernard", "prenom": "Marie", "message": "Bonjour", "isRead": false})

	registry := dashboard.NewRegistry(context.Background(), func() dashboard.Config {
		return dashboard.Config{
			Adapter:   stream.NewAdapter(res, msg),
			Commands:  service.NewCommandService(res, msg),
			Location:  time.UTC,
			NoticeTTL: time.Minute,
		}
	})
	t.Cleanup(registry.CloseAll)

	b := &backOffice{registry: registry, res: res, msg: msg, mux: newAdminMux(registry)}
	b.waitFor(t, "initial load", func() bool {
		st, err := registry.Get(testAdminID).Status(context.Background())
		return err == nil && !st.Loading[model.CollectionReservations] && !st.Loading[model.CollectionMessages]
	})
	return b
}

func (b *backOffice) waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (b *backOffice) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	b.mux.ServeHTTP(rec, req)
	return rec
}

// newAdminMux registers every admin route without the auth middleware;
// requests carry the admin id in their context instead.
func newAdminMux(sessions Sessions) *http.ServeMux {
	rh := NewReservationHandler(sessions, time.UTC)
	rh.now = func() time.Time { return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) }
	mh := NewMessageHandler(sessions)
	dh := NewDashboardHandler(sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/reservations", rh.List)
	mux.HandleFunc("GET /api/admin/reservations/trash", rh.Trash)
	mux.HandleFunc("GET /api/admin/reservations/export.csv", rh.Export)
	mux.HandleFunc("PATCH /api/admin/reservations/{id}/status", rh.PatchStatus)
	mux.HandleFunc("POST /api/admin/reservations/{id}/delete", rh.SoftDelete)
	mux.HandleFunc("POST /api/admin/reservations/{id}/restore", rh.Restore)
	mux.HandleFunc("DELETE /api/admin/reservations/{id}", rh.HardDelete)
	mux.HandleFunc("GET /api/admin/messages", mh.List)
	mux.HandleFunc("GET /api/admin/messages/trash", mh.Trash)
	mux.HandleFunc("POST /api/admin/messages/{id}/read", mh.MarkRead)
	mux.HandleFunc("POST /api/admin/messages/{id}/delete", mh.SoftDelete)
	mux.HandleFunc("POST /api/admin/messages/{id}/restore", mh.Restore)
	mux.HandleFunc("DELETE /api/admin/messages/{id}", mh.HardDelete)
	mux.HandleFunc("PUT /api/admin/selection", dh.Select)
	mux.HandleFunc("GET /api/admin/notices", dh.Notices)
	mux.HandleFunc("PUT /api/admin/notifications", dh.Notifications)
	mux.HandleFunc("GET /api/admin/events", dh.Events)
	return mux
}

// adminRequest builds a request authenticated as testAdminID.
func adminRequest(method, url, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, url, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, url, nil)
	}
	r.Header.Set("Content-Type", "application/json")
	return r.WithContext(auth.WithAdminID(r.Context(), testAdminID))
}

func authContext(ctx context.Context) context.Context {
	return auth.WithAdminID(ctx, testAdminID)
}
