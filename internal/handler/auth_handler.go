package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/exitravels/backoffice/internal/metrics"
	"github.com/exitravels/backoffice/internal/repository"
	"github.com/exitravels/backoffice/internal/service"
	"github.com/exitravels/backoffice/pkg/auth"
)

// SessionCloser ends an admin's live dashboard session.
type SessionCloser interface {
	Close(adminID string)
}

// AuthHandler は管理者のサインイン・サインアウトを扱う HTTP ハンドラ
type AuthHandler struct {
	authService   service.AuthService
	sessions      SessionCloser
	sessionSecret []byte
	secureCookie  bool
	now           func() time.Time
}

// AuthConfig は AuthHandler の設定
type AuthConfig struct {
	SessionSecret string
	SecureCookie  bool
}

// NewAuthHandler は AuthHandler を生成する（DI: AuthService を注入）
func NewAuthHandler(authService service.AuthService, sessions SessionCloser, cfg AuthConfig) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		sessions:      sessions,
		sessionSecret: auth.SessionSecretBytes(cfg.SessionSecret),
		secureCookie:  cfg.SecureCookie,
		now:           time.Now,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Login は POST /api/auth/login を処理する
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	admin, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusUnauthorized, loginErrorResponse{
			Error:   "invalid_credentials",
			Message: service.LoginErrorMessage,
		})
		return
	}
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		slog.Error("sign-in failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login_failed")
		return
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()

	expires := h.now().Add(auth.SessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName(),
		Value:    auth.CreateSessionToken(admin.ID, expires, h.sessionSecret),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookie,
	})
	slog.Info("admin signed in", "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, admin)
}

// Logout は POST /api/auth/logout を処理する。ライブ購読も解除する。
// 期限切れでも署名が正しければセッションを閉じる
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName()); err == nil {
		if adminID, _, err := auth.ParseSessionToken(cookie.Value, h.sessionSecret); err == nil {
			h.sessions.Close(adminID)
			slog.Info("admin signed out", "admin_id", adminID)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me は GET /api/me を処理する（RequireAuth の内側で使う）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.AdminIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	admin, err := h.authService.GetAdmin(r.Context(), adminID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid_session")
		return
	}
	if err != nil {
		slog.Error("load admin failed", "admin_id", adminID, "error", err)
		writeError(w, http.StatusInternalServerError, "me_failed")
		return
	}
	writeJSON(w, http.StatusOK, admin)
}
