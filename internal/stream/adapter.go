package stream

import (
	"context"
	"log/slog"
	"sync"

	"github.com/exitravels/backoffice/internal/metrics"
	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository"
)

// Partition is one collection split by lifecycle, each half in source order.
type Partition[T any] struct {
	Active  []T
	Deleted []T
}

// Sink receives the adapter's output. Calls for one collection arrive in
// snapshot order; the two collections are delivered from separate goroutines
// with no ordering between them.
type Sink interface {
	Reservations(p Partition[model.Reservation])
	Messages(p Partition[model.Message])
	// Failed reports a terminal subscription error. The last published
	// lists stay as they were; no retry is attempted here.
	Failed(collection model.Collection, err error)
}

// Adapter turns the two live collections into typed, partitioned lists.
type Adapter struct {
	reservations repository.CollectionRepository
	messages     repository.CollectionRepository
}

// NewAdapter creates an Adapter over the reservation and message collections.
func NewAdapter(reservations, messages repository.CollectionRepository) *Adapter {
	return &Adapter{reservations: reservations, messages: messages}
}

// Run subscribes to both collections and feeds sink until ctx is cancelled
// or both subscriptions have ended. Cancelling ctx unsubscribes.
func (a *Adapter) Run(ctx context.Context, sink Sink) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		follow(ctx, a.reservations, model.CollectionReservations, func(docs []repository.RawDocument) {
			p := PartitionReservations(docs)
			recordSizes(model.CollectionReservations, len(p.Active), len(p.Deleted))
			sink.Reservations(p)
		}, sink)
	}()
	go func() {
		defer wg.Done()
		follow(ctx, a.messages, model.CollectionMessages, func(docs []repository.RawDocument) {
			p := PartitionMessages(docs)
			recordSizes(model.CollectionMessages, len(p.Active), len(p.Deleted))
			sink.Messages(p)
		}, sink)
	}()
	wg.Wait()
}

func follow(ctx context.Context, repo repository.CollectionRepository, c model.Collection, publish func([]repository.RawDocument), sink Sink) {
	snapshots, err := repo.Watch(ctx)
	if err != nil {
		fail(ctx, c, err, sink)
		return
	}
	for snap := range snapshots {
		if snap.Err != nil {
			fail(ctx, c, snap.Err, sink)
			return
		}
		metrics.SnapshotsReceived.WithLabelValues(string(c)).Inc()
		publish(snap.Docs)
	}
}

func fail(ctx context.Context, c model.Collection, err error, sink Sink) {
	if ctx.Err() != nil {
		return
	}
	slog.Error("subscription failed", "collection", c, "error", err)
	metrics.SubscriptionFailures.WithLabelValues(string(c)).Inc()
	sink.Failed(c, err)
}

func recordSizes(c model.Collection, active, deleted int) {
	metrics.ActiveRecords.WithLabelValues(string(c), model.Active.String()).Set(float64(active))
	metrics.ActiveRecords.WithLabelValues(string(c), model.Deleted.String()).Set(float64(deleted))
}

// PartitionReservations decodes docs and splits them by lifecycle.
func PartitionReservations(docs []repository.RawDocument) Partition[model.Reservation] {
	p := Partition[model.Reservation]{
		Active:  []model.Reservation{},
		Deleted: []model.Reservation{},
	}
	for _, d := range docs {
		r := DecodeReservation(d)
		switch r.Lifecycle {
		case model.Deleted:
			p.Deleted = append(p.Deleted, r)
		default:
			p.Active = append(p.Active, r)
		}
	}
	return p
}

// PartitionMessages decodes docs and splits them by lifecycle.
func PartitionMessages(docs []repository.RawDocument) Partition[model.Message] {
	p := Partition[model.Message]{
		Active:  []model.Message{},
		Deleted: []model.Message{},
	}
	for _, d := range docs {
		m := DecodeMessage(d)
		switch m.Lifecycle {
		case model.Deleted:
			p.Deleted = append(p.Deleted, m)
		default:
			p.Active = append(p.Active, m)
		}
	}
	return p
}
