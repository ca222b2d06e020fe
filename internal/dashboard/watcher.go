package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/notify"
	"github.com/exitravels/backoffice/internal/stream"
)

// FeedState is the health of one live subscription.
type FeedState string

const (
	FeedStarting FeedState = "starting"
	FeedLive     FeedState = "live"
	FeedFailed   FeedState = "failed"
)

// ArrivalWatcher follows both collections for the whole server and sends
// each arrival once to the background push channels, regardless of how
// many admins are signed in.
type ArrivalWatcher struct {
	adapter    *stream.Adapter
	dispatcher *notify.Dispatcher
	res        *notify.ArrivalTrigger
	msg        *notify.ArrivalTrigger

	mu    sync.Mutex
	feeds map[model.Collection]FeedState
}

// NewArrivalWatcher creates a watcher that reports arrivals to dispatcher.
func NewArrivalWatcher(adapter *stream.Adapter, dispatcher *notify.Dispatcher) *ArrivalWatcher {
	return &ArrivalWatcher{
		adapter:    adapter,
		dispatcher: dispatcher,
		res:        notify.NewArrivalTrigger(),
		msg:        notify.NewArrivalTrigger(),
		feeds: map[model.Collection]FeedState{
			model.CollectionReservations: FeedStarting,
			model.CollectionMessages:     FeedStarting,
		},
	}
}

// Feeds reports the state of each subscription. A failed feed stays failed
// until the process restarts.
func (w *ArrivalWatcher) Feeds() map[model.Collection]FeedState {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[model.Collection]FeedState, len(w.feeds))
	for c, s := range w.feeds {
		out[c] = s
	}
	return out
}

func (w *ArrivalWatcher) setFeed(c model.Collection, s FeedState) {
	w.mu.Lock()
	w.feeds[c] = s
	w.mu.Unlock()
}

// Run blocks until ctx is cancelled or both subscriptions end, then waits
// for pending deliveries.
func (w *ArrivalWatcher) Run(ctx context.Context) {
	slog.Info("arrival watcher started")
	w.adapter.Run(ctx, w)
	w.dispatcher.Wait()
	slog.Info("arrival watcher stopped")
}

// Reservations implements stream.Sink. The adapter delivers one
// collection from one goroutine, so each trigger has a single writer.
func (w *ArrivalWatcher) Reservations(p stream.Partition[model.Reservation]) {
	w.setFeed(model.CollectionReservations, FeedLive)
	if w.res.Observe(len(p.Active)) {
		w.dispatcher.Arrival(model.CollectionReservations)
	}
}

// Messages implements stream.Sink.
func (w *ArrivalWatcher) Messages(p stream.Partition[model.Message]) {
	w.setFeed(model.CollectionMessages, FeedLive)
	if w.msg.Observe(len(p.Active)) {
		w.dispatcher.Arrival(model.CollectionMessages)
	}
}

// Failed implements stream.Sink.
func (w *ArrivalWatcher) Failed(c model.Collection, err error) {
	w.setFeed(c, FeedFailed)
	slog.Warn("arrival watcher lost subscription", "collection", c, "error", err)
}
