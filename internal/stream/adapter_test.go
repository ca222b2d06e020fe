package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository/repotest"
)

type recordingSink struct {
	mu           sync.Mutex
	reservations []Partition[model.Reservation]
	messages     []Partition[model.Message]
	failures     map[model.Collection]error
}

func (s *recordingSink) Reservations(p Partition[model.Reservation]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = append(s.reservations, p)
}

func (s *recordingSink) Messages(p Partition[model.Message]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, p)
}

func (s *recordingSink) Failed(c model.Collection, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures == nil {
		s.failures = map[model.Collection]error{}
	}
	s.failures[c] = err
}

func (s *recordingSink) counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations), len(s.messages), len(s.failures)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestAdapter_DeliversSnapshots(t *testing.T) {
	res := repotest.NewCollection(model.CollectionReservations)
	msg := repotest.NewCollection(model.CollectionMessages)
	res.Put("r1", nil, map[string]any{"status": "pending"})
	res.Put("r2", nil, map[string]any{"isDeleted": true})

	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewAdapter(res, msg).Run(ctx, sink)
		close(done)
	}()

	eventually(t, "initial snapshots", func() bool {
		r, m, _ := sink.counts()
		return r >= 1 && m >= 1
	})
	sink.mu.Lock()
	first := sink.reservations[0]
	sink.mu.Unlock()
	if len(first.Active) != 1 || len(first.Deleted) != 1 {
		t.Errorf("first partition = %+v", first)
	}

	msg.Put("m1", nil, map[string]any{"nom": "Bernard"})
	eventually(t, "message update", func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		last := sink.messages[len(sink.messages)-1]
		return len(last.Active) == 1
	})

	cancel()
	<-done
	if res.Watchers() != 0 || msg.Watchers() != 0 {
		t.Error("cancelling must unsubscribe both collections")
	}
	if _, _, f := sink.counts(); f != 0 {
		t.Error("cancellation is not a failure")
	}
}

func TestAdapter_FailureIsPerCollection(t *testing.T) {
	res := repotest.NewCollection(model.CollectionReservations)
	msg := repotest.NewCollection(model.CollectionMessages)
	msg.WatchErr = errors.New("permission denied")

	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewAdapter(res, msg).Run(ctx, sink)

	eventually(t, "failure and reservation snapshot", func() bool {
		r, _, f := sink.counts()
		return r >= 1 && f == 1
	})

	res.Put("r1", nil, map[string]any{})
	eventually(t, "reservations keep flowing", func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.reservations[len(sink.reservations)-1].Active) == 1
	})
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.failures[model.CollectionMessages] == nil {
		t.Errorf("failures = %v", sink.failures)
	}
	if len(sink.messages) != 0 {
		t.Error("failed collection must not publish")
	}
}
