package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository"
)

const minPasswordLen = 8

// AuthServiceImpl は AuthService の実装
type AuthServiceImpl struct {
	adminRepo repository.AdminRepository
}

// NewAuthService は AuthServiceImpl を生成する（DI: AdminRepository を注入）
func NewAuthService(adminRepo repository.AdminRepository) AuthService {
	return &AuthServiceImpl{adminRepo: adminRepo}
}

// SignIn はメールアドレスとパスワードで管理者を認証する
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (*model.Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	a, err := s.adminRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Debug("sign-in for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		slog.Debug("sign-in password mismatch", "admin_id", a.ID)
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// GetAdmin は ID で管理者を取得する
func (s *AuthServiceImpl) GetAdmin(ctx context.Context, id string) (*model.Admin, error) {
	return s.adminRepo.FindByID(ctx, id)
}

// CreateAdmin はパスワードをハッシュ化して管理者を作成する
func (s *AuthServiceImpl) CreateAdmin(ctx context.Context, email, name, password string) (*model.Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &model.Admin{Email: email, Name: name, PasswordHash: string(hash)}
	if err := s.adminRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	slog.Info("admin created", "admin_id", a.ID)
	return a, nil
}
