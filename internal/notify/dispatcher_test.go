package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/exitravels/backoffice/internal/metrics"
	"github.com/exitravels/backoffice/internal/model"
)

var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type mockSender struct {
	mu       sync.Mutex
	sendFunc func(ctx context.Context, n Notification) error
	sent     []Notification
}

func (m *mockSender) Send(ctx context.Context, n Notification) error {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, n)
	}
	return nil
}

func (m *mockSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type countingCue struct {
	mu    sync.Mutex
	plays int
}

func (c *countingCue) Play(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays++
	return nil
}

func TestDispatcher_PermissionGatesSenders(t *testing.T) {
	tests := []struct {
		name       string
		permission Permission
		wantSent   int
	}{
		{"granted", Granted, 1},
		{"denied", Denied, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cue := &countingCue{}
			sender := &mockSender{}
			d := NewDispatcher(
				WithCue(cue),
				WithSender("mock", sender),
				WithPermission(tt.permission),
				WithClock(func() time.Time { return testNow }),
			)

			n := d.Arrival(model.CollectionReservations)
			d.Wait()

			if cue.plays != 1 {
				t.Errorf("cue plays = %d, the cue does not depend on permission", cue.plays)
			}
			if sender.count() != tt.wantSent {
				t.Errorf("sent = %d, want %d", sender.count(), tt.wantSent)
			}
			if !n.At.Equal(testNow) || n.Collection != model.CollectionReservations {
				t.Errorf("notification = %+v", n)
			}
		})
	}
}

func TestDispatcher_DefaultDenied(t *testing.T) {
	sender := &mockSender{}
	d := NewDispatcher(WithSender("mock", sender))
	d.Arrival(model.CollectionMessages)
	d.Wait()
	if sender.count() != 0 {
		t.Error("without WithPermission nothing may be sent")
	}
}

func TestDispatcher_PermissionReadAtArrival(t *testing.T) {
	var granted bool
	sender := &mockSender{}
	d := NewDispatcher(WithSender("mock", sender), WithPermission(func() bool { return granted }))

	d.Arrival(model.CollectionReservations)
	d.Wait()
	granted = true
	d.Arrival(model.CollectionReservations)
	d.Wait()

	if sender.count() != 1 {
		t.Errorf("sent = %d, want 1", sender.count())
	}
}

func TestDispatcher_SenderFailureIsCounted(t *testing.T) {
	before := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("flaky"))

	ok := &mockSender{}
	flaky := &mockSender{sendFunc: func(context.Context, Notification) error { return errors.New("timeout") }}
	d := NewDispatcher(WithSender("ok", ok), WithSender("flaky", flaky), WithPermission(Granted))
	d.Arrival(model.CollectionReservations)
	d.Wait()

	if ok.count() != 1 {
		t.Error("one failing sender must not block the others")
	}
	if got := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("flaky")) - before; got != 1 {
		t.Errorf("failure counter delta = %v", got)
	}
}

func TestCueFunc(t *testing.T) {
	called := false
	var c Cue = CueFunc(func(context.Context) error { called = true; return nil })
	_ = c.Play(context.Background())
	if !called {
		t.Error("CueFunc not invoked")
	}
}
