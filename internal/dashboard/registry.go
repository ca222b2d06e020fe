package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultSessionTTL = 12 * time.Hour

type registryEntry struct {
	session *Session
	expires time.Time
}

// Registry keeps one live Session per signed-in admin. Each session expires
// with the admin's sign-in token; Reap closes the ones past it.
type Registry struct {
	mu       sync.Mutex
	ctx      context.Context
	sessions map[string]*registryEntry
	newCfg   func() Config
	ttl      time.Duration
	now      func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSessionTTL sets how long a session opened by Get lives before its
// first Renew.
func WithSessionTTL(d time.Duration) RegistryOption {
	return func(r *Registry) { r.ttl = d }
}

// NewRegistry creates a Registry. Sessions are children of ctx and get a
// fresh Config from newCfg.
func NewRegistry(ctx context.Context, newCfg func() Config, opts ...RegistryOption) *Registry {
	r := &Registry{
		ctx:      ctx,
		sessions: map[string]*registryEntry{},
		newCfg:   newCfg,
		ttl:      defaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns adminID's session, opening it on first use.
func (r *Registry) Get(adminID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[adminID]; ok {
		select {
		case <-e.session.Done():
		default:
			return e.session
		}
	}
	s := Open(r.ctx, adminID, r.newCfg())
	r.sessions[adminID] = &registryEntry{session: s, expires: r.now().Add(r.ttl)}
	return s
}

// Renew pushes adminID's session expiry out to until. An earlier time never
// shortens it.
func (r *Registry) Renew(adminID string, until time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[adminID]; ok && until.After(e.expires) {
		e.expires = until
	}
}

// Close stops adminID's session, if any (sign-out).
func (r *Registry) Close(adminID string) {
	r.mu.Lock()
	e, ok := r.sessions[adminID]
	delete(r.sessions, adminID)
	r.mu.Unlock()
	if ok {
		e.session.Close()
	}
}

// Reap closes sessions that are past their expiry or already stopped, and
// returns how many it removed.
func (r *Registry) Reap() int {
	now := r.now()
	r.mu.Lock()
	var stale []*Session
	for id, e := range r.sessions {
		done := false
		select {
		case <-e.session.Done():
			done = true
		default:
		}
		if done || !now.Before(e.expires) {
			stale = append(stale, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// RunReaper calls Reap every interval until ctx is done.
func (r *Registry) RunReaper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if n := r.Reap(); n > 0 {
			slog.Info("expired dashboard sessions closed", "count", n, "open", r.Len())
		}
	}
}

// CloseAll stops every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for id, e := range r.sessions {
		all = append(all, e.session)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
