package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "dev-secret-change-in-production-32bytes"

func TestRequireAuth_Rejections(t *testing.T) {
	secret := SessionSecretBytes(testSecret)
	otherSecret := SessionSecretBytes("another-secret-that-is-32-bytes-long")

	tests := []struct {
		name     string
		cookie   string // "" = Cookie なし
		wantCode string
	}{
		{"no cookie", "", "unauthorized"},
		{"garbage", "invalid.token", "invalid_session"},
		{"other secret", CreateSessionToken("admin-1", time.Now().Add(time.Hour), otherSecret), "invalid_session"},
		{"expired", CreateSessionToken("admin-1", time.Now().Add(-time.Minute), secret), "session_expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/admin/reservations", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName(), Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			RequireAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("next handler should not be called")
			})).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("code = %d, want 401", rec.Code)
			}
			if body := rec.Body.String(); body != "{\"error\":\""+tt.wantCode+"\"}\n" {
				t.Errorf("body = %q", body)
			}
		})
	}
}

func TestRequireAuth_ValidToken_CallsNextWithAdminID(t *testing.T) {
	secret := SessionSecretBytes(testSecret)
	expiresAt := time.Now().Add(SessionTTL).Truncate(time.Second)
	token := CreateSessionToken("admin-123", expiresAt, secret)

	var gotAdminID string
	var gotExpiry time.Time
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdminID, _ = AdminIDFromContext(r.Context())
		gotExpiry, _ = SessionExpiryFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName(), Value: token})
	rec := httptest.NewRecorder()
	RequireAuth(secret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("code = %d, want 204", rec.Code)
	}
	if gotAdminID != "admin-123" {
		t.Errorf("adminID = %q, want admin-123", gotAdminID)
	}
	if !gotExpiry.Equal(expiresAt) {
		t.Errorf("expiry = %v, want %v", gotExpiry, expiresAt)
	}
}

func TestAdminIDFromContext_Empty(t *testing.T) {
	if _, ok := AdminIDFromContext(context.Background()); ok {
		t.Error("bare context should carry no admin")
	}
	if _, ok := AdminIDFromContext(WithAdminID(context.Background(), "")); ok {
		t.Error("empty admin id should not count")
	}
}
