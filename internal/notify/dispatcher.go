package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/exitravels/backoffice/internal/metrics"
	"github.com/exitravels/backoffice/internal/model"
)

// Cue plays the local audio alert.
type Cue interface {
	Play(ctx context.Context) error
}

// CueFunc adapts a function to Cue.
type CueFunc func(ctx context.Context) error

// Play calls f.
func (f CueFunc) Play(ctx context.Context) error { return f(ctx) }

// Sender delivers an OS-level or push notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Permission reports whether the host allowed notifications.
type Permission func() bool

// Granted is a Permission that always allows.
func Granted() bool { return true }

// Denied is a Permission that never allows.
func Denied() bool { return false }

// Dispatcher fans an arrival out to cues and, when permitted, to senders.
// Delivery is asynchronous and never blocks the caller; failures are logged
// and counted, never retried.
type Dispatcher struct {
	cues       []Cue
	senders    map[string]Sender
	permission Permission
	timeout    time.Duration
	now        func() time.Time
	wg         sync.WaitGroup
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithCue adds an audio cue.
func WithCue(c Cue) Option {
	return func(d *Dispatcher) { d.cues = append(d.cues, c) }
}

// WithSender adds a named notification sink.
func WithSender(name string, s Sender) Option {
	return func(d *Dispatcher) { d.senders[name] = s }
}

// WithPermission sets the notification permission check.
func WithPermission(p Permission) Option {
	return func(d *Dispatcher) { d.permission = p }
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a Dispatcher. Without WithPermission notifications
// are denied and only cues play.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		senders:    map[string]Sender{},
		permission: Denied,
		timeout:    10 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Arrival announces a new record in collection c and returns the
// notification that was (or would have been) sent.
func (d *Dispatcher) Arrival(c model.Collection) Notification {
	n := ArrivalNotification(c, d.now())
	metrics.ArrivalsNotified.WithLabelValues(string(c)).Inc()

	granted := d.permission()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		for _, cue := range d.cues {
			if err := cue.Play(ctx); err != nil {
				slog.Debug("audio cue failed", "error", err)
			}
		}
		if !granted {
			return
		}
		for name, s := range d.senders {
			if err := s.Send(ctx, n); err != nil {
				metrics.NotificationFailures.WithLabelValues(name).Inc()
				slog.Warn("notification delivery failed", "sink", name, "collection", c, "error", err)
			}
		}
	}()
	return n
}

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
