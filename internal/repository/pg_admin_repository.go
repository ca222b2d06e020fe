package repository

import (
	"context"
	"errors"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgAdminRepository は AdminRepository の PostgreSQL 実装
type PgAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPgAdminRepository は PgAdminRepository を生成する
func NewPgAdminRepository(pool *pgxpool.Pool) *PgAdminRepository {
	return &PgAdminRepository{pool: pool}
}

var _ AdminRepository = (*PgAdminRepository)(nil)

// Ping は DB 接続を確認する（DB インターフェース実装）
func (r *PgAdminRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const adminSelectCols = `id, email, name, password_hash, created_at`

func scanAdmin(scan func(...any) error) (*model.Admin, error) {
	var a model.Admin
	if err := scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByID は ID で管理者を取得する
func (r *PgAdminRepository) FindByID(ctx context.Context, id string) (*model.Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminSelectCols+` FROM admin_users WHERE id = $1`, id)
	return scanAdmin(row.Scan)
}

// FindByEmail はメールアドレスで管理者を取得する（大文字小文字を区別しない）
func (r *PgAdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminSelectCols+` FROM admin_users WHERE lower(email) = lower($1)`, email)
	return scanAdmin(row.Scan)
}

// Create は管理者を登録し、ID と作成日時を設定する
func (r *PgAdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO admin_users (email, name, password_hash) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		admin.Email, admin.Name, admin.PasswordHash,
	).Scan(&admin.ID, &admin.CreatedAt)
}
