// Package repotest provides an in-memory live collection for tests.
package repotest

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository"
)

var errInvalidJSON = errors.New("repotest: invalid JSON body")

// Call records one write made through the repository interface.
type Call struct {
	Op     string // "update", "delete" or "insert"
	ID     string
	Fields map[string]any
}

// Collection is an in-memory repository.CollectionRepository. Every
// successful write publishes a fresh snapshot to all watchers, like the
// Postgres implementation's change notifications. Watchers that fall behind
// see only the latest state.
type Collection struct {
	// Err* make the corresponding operation fail when set.
	WatchErr  error
	UpdateErr error
	DeleteErr error

	name model.Collection
	now  func() time.Time

	mu       sync.Mutex
	docs     []repository.RawDocument
	calls    []Call
	watchers map[*watcher]struct{}
}

type watcher struct {
	wake chan struct{}
	fail chan error
}

// NewCollection creates an empty collection.
func NewCollection(name model.Collection) *Collection {
	return &Collection{name: name, now: time.Now, watchers: map[*watcher]struct{}{}}
}

// Put stores doc as given (id and creation time included) and notifies
// watchers. body is marshalled to JSON.
func (c *Collection) Put(id string, createdAt *time.Time, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	c.docs = slices.DeleteFunc(c.docs, func(d repository.RawDocument) bool { return d.ID == id })
	c.docs = append(c.docs, repository.RawDocument{ID: id, Body: raw, CreatedAt: createdAt})
	c.mu.Unlock()
	c.broadcast()
}

// Fail ends every current watch with err.
func (c *Collection) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for w := range c.watchers {
		select {
		case w.fail <- err:
		default:
		}
	}
}

// Calls returns the writes made so far.
func (c *Collection) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// Watchers returns the number of active watches.
func (c *Collection) Watchers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

// Body returns the stored body of id decoded into a map, or nil.
func (c *Collection) Body(id string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.docs {
		if d.ID == id {
			var m map[string]any
			_ = json.Unmarshal(d.Body, &m)
			return m
		}
	}
	return nil
}

func (c *Collection) Watch(ctx context.Context) (<-chan repository.Snapshot, error) {
	if c.WatchErr != nil {
		return nil, c.WatchErr
	}
	w := &watcher{wake: make(chan struct{}, 1), fail: make(chan error, 1)}
	w.wake <- struct{}{}
	c.mu.Lock()
	c.watchers[w] = struct{}{}
	c.mu.Unlock()

	out := make(chan repository.Snapshot)
	go func() {
		defer close(out)
		defer func() {
			c.mu.Lock()
			delete(c.watchers, w)
			c.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-w.fail:
				select {
				case out <- repository.Snapshot{Collection: c.name, Err: err}:
				case <-ctx.Done():
				}
				return
			case <-w.wake:
			}
			select {
			case out <- repository.Snapshot{Collection: c.name, Docs: c.snapshot()}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// snapshot orders documents newest first, undated last.
func (c *Collection) snapshot() []repository.RawDocument {
	c.mu.Lock()
	docs := slices.Clone(c.docs)
	c.mu.Unlock()
	slices.SortStableFunc(docs, func(a, b repository.RawDocument) int {
		switch {
		case a.CreatedAt == nil && b.CreatedAt == nil:
			return cmp.Compare(a.ID, b.ID)
		case a.CreatedAt == nil:
			return 1
		case b.CreatedAt == nil:
			return -1
		}
		return b.CreatedAt.Compare(*a.CreatedAt)
	})
	return docs
}

func (c *Collection) broadcast() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for w := range c.watchers {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

func (c *Collection) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Op: "update", ID: id, Fields: fields})
	if c.UpdateErr != nil {
		c.mu.Unlock()
		return c.UpdateErr
	}
	i := slices.IndexFunc(c.docs, func(d repository.RawDocument) bool { return d.ID == id })
	if i < 0 {
		c.mu.Unlock()
		return repository.ErrNotFound
	}
	body := map[string]any{}
	_ = json.Unmarshal(c.docs[i].Body, &body)
	for k, v := range fields {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.docs[i].Body = raw
	c.mu.Unlock()
	c.broadcast()
	return nil
}

func (c *Collection) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Op: "delete", ID: id})
	if c.DeleteErr != nil {
		c.mu.Unlock()
		return c.DeleteErr
	}
	i := slices.IndexFunc(c.docs, func(d repository.RawDocument) bool { return d.ID == id })
	if i < 0 {
		c.mu.Unlock()
		return repository.ErrNotFound
	}
	var body struct {
		IsDeleted bool `json:"isDeleted"`
	}
	_ = json.Unmarshal(c.docs[i].Body, &body)
	if !body.IsDeleted {
		c.mu.Unlock()
		return repository.ErrNotFound
	}
	c.docs = slices.Delete(c.docs, i, i+1)
	c.mu.Unlock()
	c.broadcast()
	return nil
}

func (c *Collection) Insert(_ context.Context, body json.RawMessage) (string, error) {
	if !json.Valid(body) {
		return "", errInvalidJSON
	}
	id := uuid.NewString()
	now := c.now()
	c.mu.Lock()
	c.calls = append(c.calls, Call{Op: "insert", ID: id})
	c.docs = append(c.docs, repository.RawDocument{ID: id, Body: slices.Clone(body), CreatedAt: &now})
	c.mu.Unlock()
	c.broadcast()
	return id, nil
}

var _ repository.CollectionRepository = (*Collection)(nil)
