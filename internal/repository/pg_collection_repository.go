package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgCollectionRepository stores one collection as JSONB documents in a table
// of the same name and publishes changes with LISTEN/NOTIFY on
// "<collection>_changed" (see migrations).
type PgCollectionRepository struct {
	pool       *pgxpool.Pool
	collection model.Collection
}

// NewPgCollectionRepository creates a repository for the given collection.
func NewPgCollectionRepository(pool *pgxpool.Pool, collection model.Collection) (*PgCollectionRepository, error) {
	if !collection.Valid() {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return &PgCollectionRepository{pool: pool, collection: collection}, nil
}

var _ CollectionRepository = (*PgCollectionRepository)(nil)

func (r *PgCollectionRepository) table() string {
	return pgx.Identifier{string(r.collection)}.Sanitize()
}

func (r *PgCollectionRepository) channel() string {
	return pgx.Identifier{string(r.collection) + "_changed"}.Sanitize()
}

// Watch holds a dedicated connection for the lifetime of ctx. Snapshots are
// sent in order and never dropped, so a slow reader delays the next query
// rather than losing it.
func (r *PgCollectionRepository) Watch(ctx context.Context) (<-chan Snapshot, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+r.channel()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", r.collection, err)
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer func() {
			if !conn.Conn().IsClosed() {
				unlistenCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				_, _ = conn.Exec(unlistenCtx, "UNLISTEN *")
				cancel()
			}
			conn.Release()
		}()

		for {
			docs, err := r.list(ctx, conn.Conn())
			if err != nil {
				r.fail(ctx, out, err)
				return
			}
			select {
			case out <- Snapshot{Collection: r.collection, Docs: docs}:
			case <-ctx.Done():
				return
			}

			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				r.fail(ctx, out, err)
				return
			}
		}
	}()
	return out, nil
}

func (r *PgCollectionRepository) fail(ctx context.Context, out chan<- Snapshot, err error) {
	if ctx.Err() != nil {
		return
	}
	slog.Error("collection watch failed", "collection", r.collection, "error", err)
	select {
	case out <- Snapshot{Collection: r.collection, Err: err}:
	case <-ctx.Done():
	}
}

func (r *PgCollectionRepository) list(ctx context.Context, conn *pgx.Conn) ([]RawDocument, error) {
	rows, err := conn.Query(ctx,
		`SELECT id, body, created_at FROM `+r.table()+` ORDER BY created_at DESC NULLS LAST`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []RawDocument{}
	for rows.Next() {
		var d RawDocument
		if err := rows.Scan(&d.ID, &d.Body, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateFields merges fields into the stored body. Re-applying the same
// fields leaves the document unchanged.
func (r *PgCollectionRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE `+r.table()+` SET body = body || $2::jsonb WHERE id = $1`, id, patch)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document only when it is already soft-deleted; an
// active or missing document yields ErrNotFound.
func (r *PgCollectionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM `+r.table()+` WHERE id = $1 AND body->'isDeleted' = 'true'::jsonb`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Insert stores body as a new document; created_at is assigned by the server.
func (r *PgCollectionRepository) Insert(ctx context.Context, body json.RawMessage) (string, error) {
	if !json.Valid(body) {
		return "", errors.New("document body is not valid JSON")
	}
	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO `+r.table()+` (body) VALUES ($1::jsonb) RETURNING id`, []byte(body)).Scan(&id)
	return id, err
}
