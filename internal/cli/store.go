package cli

import (
	"context"
	"fmt"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository"
	"github.com/exitravels/backoffice/internal/stream"
	"github.com/jackc/pgx/v5/pgxpool"
)

// store is an open connection plus both collections.
type store struct {
	pool         *pgxpool.Pool
	reservations repository.CollectionRepository
	messages     repository.CollectionRepository
}

func openStore(ctx context.Context, o Options) (*store, error) {
	pool, err := repository.NewPool(ctx, o.DatabaseURL)
	if err != nil {
		return nil, err
	}
	res, err := repository.NewPgCollectionRepository(pool, model.CollectionReservations)
	if err != nil {
		pool.Close()
		return nil, err
	}
	msg, err := repository.NewPgCollectionRepository(pool, model.CollectionMessages)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &store{pool: pool, reservations: res, messages: msg}, nil
}

func (s *store) Close() { s.pool.Close() }

// firstSnapshot subscribes, takes the initial snapshot and unsubscribes.
func firstSnapshot(ctx context.Context, repo repository.CollectionRepository) ([]repository.RawDocument, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshots, err := repo.Watch(ctx)
	if err != nil {
		return nil, err
	}
	select {
	case snap, ok := <-snapshots:
		if !ok {
			return nil, fmt.Errorf("subscription closed before the first snapshot")
		}
		if snap.Err != nil {
			return nil, snap.Err
		}
		return snap.Docs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func loadReservations(ctx context.Context, repo repository.CollectionRepository) (stream.Partition[model.Reservation], error) {
	docs, err := firstSnapshot(ctx, repo)
	if err != nil {
		return stream.Partition[model.Reservation]{}, fmt.Errorf("load reservations: %w", err)
	}
	return stream.PartitionReservations(docs), nil
}

func loadMessages(ctx context.Context, repo repository.CollectionRepository) (stream.Partition[model.Message], error) {
	docs, err := firstSnapshot(ctx, repo)
	if err != nil {
		return stream.Partition[model.Message]{}, fmt.Errorf("load messages: %w", err)
	}
	return stream.PartitionMessages(docs), nil
}
