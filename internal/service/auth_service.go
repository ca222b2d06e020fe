package service

import (
	"context"
	"errors"

	"github.com/exitravels/backoffice/internal/model"
)

// ErrInvalidCredentials は認証失敗（メール不明・パスワード不一致を区別しない）
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginErrorMessage is the only text shown to a user whose sign-in failed.
const LoginErrorMessage = "Email ou mot de passe incorrect."

// AuthService は管理者認証に関するビジネスロジックのインターフェース
type AuthService interface {
	// SignIn returns the admin for valid credentials, ErrInvalidCredentials otherwise.
	SignIn(ctx context.Context, email, password string) (*model.Admin, error)
	// GetAdmin returns the admin for a session's subject.
	GetAdmin(ctx context.Context, id string) (*model.Admin, error)
	// CreateAdmin registers a new staff account with a hashed password.
	CreateAdmin(ctx context.Context, email, name, password string) (*model.Admin, error)
}
