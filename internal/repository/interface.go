package repository

import (
	"context"
	"encoding/json"

	"github.com/exitravels/backoffice/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// CollectionRepository is a live document collection.
type CollectionRepository interface {
	// Watch emits a full snapshot ordered by creation time descending, then a
	// new one after every change, until ctx is cancelled.
	Watch(ctx context.Context) (<-chan Snapshot, error)
	// UpdateFields merges fields into the document body.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	// Delete physically removes a soft-deleted document.
	Delete(ctx context.Context, id string) error
	// Insert stores a new document and returns its id.
	Insert(ctx context.Context, body json.RawMessage) (string, error)
}

// AdminRepository persists back-office staff accounts.
type AdminRepository interface {
	FindByID(ctx context.Context, id string) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	Create(ctx context.Context, admin *model.Admin) error
}
