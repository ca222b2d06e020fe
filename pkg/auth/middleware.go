package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type contextKey string

const (
	adminIDKey   contextKey = "admin_id"
	expiresAtKey contextKey = "session_expires_at"
)

// AdminIDFromContext は context から管理者IDを取得する
func AdminIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminIDKey).(string)
	return v, ok && v != ""
}

// WithAdminID は context に管理者IDをセットする
func WithAdminID(ctx context.Context, adminID string) context.Context {
	return context.WithValue(ctx, adminIDKey, adminID)
}

// WithSessionExpiry は context にセッションの有効期限をセットする
func WithSessionExpiry(ctx context.Context, expiresAt time.Time) context.Context {
	return context.WithValue(ctx, expiresAtKey, expiresAt)
}

// SessionExpiryFromContext は context からセッションの有効期限を取得する
func SessionExpiryFromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(expiresAtKey).(time.Time)
	return t, ok
}

// RequireAuth は認証必須ミドルウェア。セッションを検証し、管理者IDを context にセットする
func RequireAuth(sessionSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName())
			if err != nil {
				unauthorized(w, "unauthorized")
				return
			}

			adminID, expiresAt, err := VerifySessionToken(cookie.Value, sessionSecret, time.Now())
			if errors.Is(err, ErrExpired) {
				unauthorized(w, "session_expired")
				return
			}
			if err != nil {
				unauthorized(w, "invalid_session")
				return
			}

			ctx := WithSessionExpiry(WithAdminID(r.Context(), adminID), expiresAt)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
