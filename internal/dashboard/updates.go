package dashboard

import (
	"sync"
	"time"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/notify"
)

// UpdateType classifies a pushed session event.
type UpdateType string

const (
	// UpdateSnapshot: a collection's lists changed; clients refetch views.
	UpdateSnapshot UpdateType = "snapshot"
	// UpdateCue: play the arrival sound.
	UpdateCue UpdateType = "cue"
	// UpdateNotification: show an OS notification (permission granted).
	UpdateNotification UpdateType = "notification"
	// UpdateNotice: a transient success/error notice was added.
	UpdateNotice UpdateType = "notice"
	// UpdateError: a live subscription ended with an error.
	UpdateError UpdateType = "error"
	// UpdateSelection: the selected record changed.
	UpdateSelection UpdateType = "selection"
)

// Update is one event pushed to a session's listeners.
type Update struct {
	Type         UpdateType           `json:"type"`
	Collection   model.Collection     `json:"collection,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Notice       *Notice              `json:"notice,omitempty"`
	Error        string               `json:"error,omitempty"`
	At           time.Time            `json:"at"`
}

// broadcaster fans updates out to subscribers. Slow subscribers miss
// updates instead of stalling the session; the next snapshot update
// resynchronises them.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan Update]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: map[chan Update]struct{}{}}
}

func (b *broadcaster) subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster) publish(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
