package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/exitravels/backoffice/internal/dashboard"
	"github.com/exitravels/backoffice/internal/model"
)

type mockDB struct {
	pingFunc func(ctx context.Context) error
}

func (m *mockDB) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

type staticFeeds map[model.Collection]dashboard.FeedState

func (f staticFeeds) Feeds() map[model.Collection]dashboard.FeedState { return f }

func TestHealth(t *testing.T) {
	refused := func(context.Context) error { return errors.New("connection refused") }
	live := staticFeeds{model.CollectionReservations: dashboard.FeedLive, model.CollectionMessages: dashboard.FeedLive}
	failed := staticFeeds{model.CollectionReservations: dashboard.FeedLive, model.CollectionMessages: dashboard.FeedFailed}

	tests := []struct {
		name         string
		ping         func(context.Context) error
		feeds        FeedStatus
		wantCode     int
		wantStatus   string
		wantDatabase string
	}{
		{"all good", nil, live, http.StatusOK, "ok", "ok"},
		{"no watcher", nil, nil, http.StatusOK, "ok", "ok"},
		{"starting feeds are fine", nil, staticFeeds{model.CollectionMessages: dashboard.FeedStarting}, http.StatusOK, "ok", "ok"},
		{"failed feed", nil, failed, http.StatusServiceUnavailable, "degraded", "ok"},
		{"database down", refused, live, http.StatusServiceUnavailable, "unhealthy", "connection refused"},
		{"database down wins over feeds", refused, failed, http.StatusServiceUnavailable, "unhealthy", "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&mockDB{pingFunc: tt.ping}, tt.feeds, "http://localhost:4321")
			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest("GET", "/api/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var resp healthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantStatus || resp.Database != tt.wantDatabase {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestHealth_PingHasDeadline(t *testing.T) {
	h := New(&mockDB{pingFunc: func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return nil
	}}, nil, "")
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, body %s", rec.Code, rec.Body)
	}
}
