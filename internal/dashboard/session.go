// Package dashboard holds the per-admin back-office state: the live lists,
// the derived views, the selected record, and transient notices.
//
// A Session owns its state on a single goroutine. Snapshot callbacks and
// command results are applied there in arrival order; store calls run on the
// caller's goroutine outside the loop, so a slow or hung store call never
// blocks snapshot handling.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/notify"
	"github.com/exitravels/backoffice/internal/service"
	"github.com/exitravels/backoffice/internal/stream"
	"github.com/exitravels/backoffice/internal/viewmodel"
)

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("dashboard session closed")
	// ErrUnknownRecord is returned when an id is not in the session's lists.
	ErrUnknownRecord = errors.New("record not in current lists")
	// ErrStatusLocked is returned when a reservation already has a different final status.
	ErrStatusLocked = errors.New("reservation status is final")
	// ErrNotDeleted is returned when a hard delete targets a record that is not in the trash.
	ErrNotDeleted = errors.New("record is not soft-deleted")
	// ErrConfirmationRequired is returned when a hard delete is attempted without a token.
	ErrConfirmationRequired = errors.New("hard delete requires confirmation")
	// ErrUnknownConfirmation is returned for an unknown or expired confirmation token.
	ErrUnknownConfirmation = errors.New("unknown or expired confirmation")
)

const confirmationTTL = 2 * time.Minute

// Selection is the record currently opened in the detail panel. It is a
// copy: later snapshots do not change it, only user selection and
// successful commands on the same id do.
type Selection struct {
	Collection  model.Collection   `json:"collection"`
	Reservation *model.Reservation `json:"reservation,omitempty"`
	Message     *model.Message     `json:"message,omitempty"`
}

// ID returns the selected record's id.
func (s *Selection) ID() string {
	switch {
	case s == nil:
		return ""
	case s.Reservation != nil:
		return s.Reservation.ID
	case s.Message != nil:
		return s.Message.ID
	default:
		return ""
	}
}

// Confirmation is a pending hard delete awaiting an explicit second step.
type Confirmation struct {
	Token      string           `json:"token"`
	Collection model.Collection `json:"collection"`
	ID         string           `json:"id"`
	Warning    string           `json:"warning"`
	ExpiresAt  time.Time        `json:"expires_at"`
}

// Status summarises the session for the dashboard header.
type Status struct {
	Loading       map[model.Collection]bool   `json:"loading"`
	Errors        map[model.Collection]string `json:"errors,omitempty"`
	Selection     *Selection                  `json:"selection,omitempty"`
	Notices       []Notice                    `json:"notices"`
	Notifications bool                        `json:"notifications_granted"`
}

// ReservationSnapshot is a computed reservation view plus load state.
type ReservationSnapshot struct {
	viewmodel.View
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// MessageSnapshot is a computed message view plus load state.
type MessageSnapshot struct {
	viewmodel.MessageView
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Trash lists soft-deleted records of both collections, newest first.
type Trash struct {
	Reservations []model.Reservation `json:"reservations"`
	Messages     []model.Message     `json:"messages"`
}

type pendingDelete struct {
	collection model.Collection
	id         string
	expiresAt  time.Time
}

// state is owned by the session loop goroutine.
type state struct {
	reservations stream.Partition[model.Reservation]
	messages     stream.Partition[model.Message]
	resVersion   uint64
	msgVersion   uint64
	loading      map[model.Collection]bool
	loadErr      map[model.Collection]string

	filters    viewmodel.Filters
	sort       viewmodel.Sort
	msgFilters viewmodel.MessageFilters
	msgDir     viewmodel.Direction
	memo       viewmodel.Memo

	selection *Selection
	notices   []Notice
	pending   map[string]pendingDelete

	resTrigger *notify.ArrivalTrigger
	msgTrigger *notify.ArrivalTrigger
}

// Config carries a session's collaborators and settings.
type Config struct {
	Adapter  *stream.Adapter
	Commands service.CommandService
	// Location is where calendar dates and weeks are evaluated.
	Location  *time.Location
	NoticeTTL time.Duration
	// NotificationsGranted is the initial OS-notification permission.
	NotificationsGranted bool
	// Now overrides time.Now (tests).
	Now func() time.Time
}

// Session is one admin's live dashboard.
type Session struct {
	adminID    string
	cfg        Config
	actions    chan func(*state)
	updates    *broadcaster
	dispatcher *notify.Dispatcher
	permission atomic.Bool

	cancel    context.CancelFunc
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open starts a session: it subscribes to both collections and begins
// processing snapshots. Close (or cancelling parent) unsubscribes.
func Open(parent context.Context, adminID string, cfg Config) *Session {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = 4 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		adminID: adminID,
		cfg:     cfg,
		actions: make(chan func(*state)),
		updates: newBroadcaster(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.permission.Store(cfg.NotificationsGranted)
	s.dispatcher = notify.NewDispatcher(
		notify.WithClock(cfg.Now),
		notify.WithPermission(s.permission.Load),
		notify.WithCue(notify.CueFunc(func(context.Context) error {
			s.updates.publish(Update{Type: UpdateCue, At: cfg.Now()})
			return nil
		})),
		notify.WithSender("browser", browserSender{s}),
	)

	st := &state{
		loading:    map[model.Collection]bool{model.CollectionReservations: true, model.CollectionMessages: true},
		loadErr:    map[model.Collection]string{},
		sort:       viewmodel.DefaultSort,
		msgDir:     viewmodel.Desc,
		pending:    map[string]pendingDelete{},
		resTrigger: notify.NewArrivalTrigger(),
		msgTrigger: notify.NewArrivalTrigger(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, st)
	}()
	if cfg.Adapter != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			cfg.Adapter.Run(ctx, sink{s})
		}()
	}
	return s
}

// AdminID returns the owner of the session.
func (s *Session) AdminID() string { return s.adminID }

func (s *Session) loop(ctx context.Context, st *state) {
	defer close(s.done)
	for {
		select {
		case fn := <-s.actions:
			fn(st)
		case <-ctx.Done():
			return
		}
	}
}

// Close unsubscribes from both live feeds and stops the session. It waits
// for in-flight snapshot handling to finish.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
		s.dispatcher.Wait()
		s.updates.closeAll()
		slog.Info("dashboard session closed", "admin_id", s.adminID)
	})
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func(*state)) error {
	finished := make(chan struct{})
	select {
	case s.actions <- func(st *state) { fn(st); close(finished) }:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// post enqueues fn without waiting for it to run.
func (s *Session) post(fn func(*state)) {
	select {
	case s.actions <- fn:
	case <-s.done:
	}
}

func (s *Session) env() viewmodel.Env {
	return viewmodel.Env{Now: s.cfg.Now(), Location: s.cfg.Location}
}

// Updates subscribes to session events. Call the returned function to
// unsubscribe; the channel is closed when the session closes.
func (s *Session) Updates() (<-chan Update, func()) {
	return s.updates.subscribe()
}

// SetNotificationPermission records whether the host granted OS
// notifications.
func (s *Session) SetNotificationPermission(granted bool) {
	s.permission.Store(granted)
}

// ---------------------------------------------------------------------------
// Snapshot handling
// ---------------------------------------------------------------------------

type sink struct{ s *Session }

func (k sink) Reservations(p stream.Partition[model.Reservation]) {
	k.s.post(func(st *state) {
		st.reservations = p
		st.resVersion++
		st.loading[model.CollectionReservations] = false
		delete(st.loadErr, model.CollectionReservations)
		fire := st.resTrigger.Observe(len(p.Active))
		k.s.updates.publish(Update{Type: UpdateSnapshot, Collection: model.CollectionReservations, At: k.s.cfg.Now()})
		if fire {
			k.s.dispatcher.Arrival(model.CollectionReservations)
		}
	})
}

func (k sink) Messages(p stream.Partition[model.Message]) {
	k.s.post(func(st *state) {
		st.messages = p
		st.msgVersion++
		st.loading[model.CollectionMessages] = false
		delete(st.loadErr, model.CollectionMessages)
		fire := st.msgTrigger.Observe(len(p.Active))
		k.s.updates.publish(Update{Type: UpdateSnapshot, Collection: model.CollectionMessages, At: k.s.cfg.Now()})
		if fire {
			k.s.dispatcher.Arrival(model.CollectionMessages)
		}
	})
}

func (k sink) Failed(c model.Collection, err error) {
	k.s.post(func(st *state) {
		st.loading[c] = false
		st.loadErr[c] = err.Error()
		k.s.updates.publish(Update{Type: UpdateError, Collection: c, Error: err.Error(), At: k.s.cfg.Now()})
	})
}

// browserSender forwards OS notifications to the session's listeners, which
// display them through the browser Notification API.
type browserSender struct{ s *Session }

func (b browserSender) Send(_ context.Context, n notify.Notification) error {
	b.s.updates.publish(Update{Type: UpdateNotification, Collection: n.Collection, Notification: &n, At: n.At})
	return nil
}

// ---------------------------------------------------------------------------
// Views
// ---------------------------------------------------------------------------

// ReservationView makes f and sort the current reservation view state and
// returns the resulting view.
func (s *Session) ReservationView(ctx context.Context, f viewmodel.Filters, sort viewmodel.Sort) (ReservationSnapshot, error) {
	env := s.env()
	var out ReservationSnapshot
	err := s.do(ctx, func(st *state) {
		st.filters, st.sort = f, sort
		out = ReservationSnapshot{
			View:    st.memo.Reservations(st.resVersion, st.reservations.Active, f, sort, env),
			Loading: st.loading[model.CollectionReservations],
			Error:   st.loadErr[model.CollectionReservations],
		}
	})
	return out, err
}

// DisplayedReservations returns the list as currently filtered and sorted.
func (s *Session) DisplayedReservations(ctx context.Context) ([]model.Reservation, error) {
	env := s.env()
	var out []model.Reservation
	err := s.do(ctx, func(st *state) {
		out = st.memo.Reservations(st.resVersion, st.reservations.Active, st.filters, st.sort, env).Items
	})
	return out, err
}

// MessageView makes f and dir the current message view state and returns
// the resulting view.
func (s *Session) MessageView(ctx context.Context, f viewmodel.MessageFilters, dir viewmodel.Direction) (MessageSnapshot, error) {
	env := s.env()
	var out MessageSnapshot
	err := s.do(ctx, func(st *state) {
		st.msgFilters, st.msgDir = f, dir
		out = MessageSnapshot{
			MessageView: st.memo.Messages(st.msgVersion, st.messages.Active, f, dir, env),
			Loading:     st.loading[model.CollectionMessages],
			Error:       st.loadErr[model.CollectionMessages],
		}
	})
	return out, err
}

// Trash returns the soft-deleted lists.
func (s *Session) Trash(ctx context.Context) (Trash, error) {
	var out Trash
	err := s.do(ctx, func(st *state) {
		out = Trash{Reservations: st.reservations.Deleted, Messages: st.messages.Deleted}
		if out.Reservations == nil {
			out.Reservations = []model.Reservation{}
		}
		if out.Messages == nil {
			out.Messages = []model.Message{}
		}
	})
	return out, err
}

// Status returns load state, selection and live notices.
func (s *Session) Status(ctx context.Context) (Status, error) {
	now := s.cfg.Now()
	var out Status
	err := s.do(ctx, func(st *state) {
		st.notices = pruneNotices(st.notices, now)
		out = Status{
			Loading:       map[model.Collection]bool{},
			Errors:        map[model.Collection]string{},
			Selection:     copySelection(st.selection),
			Notices:       append([]Notice{}, st.notices...),
			Notifications: s.permission.Load(),
		}
		for k, v := range st.loading {
			out.Loading[k] = v
		}
		for k, v := range st.loadErr {
			out.Errors[k] = v
		}
	})
	return out, err
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// Select opens the record with id in collection c, active or deleted.
func (s *Session) Select(ctx context.Context, c model.Collection, id string) (*Selection, error) {
	var out *Selection
	found := false
	err := s.do(ctx, func(st *state) {
		sel := st.lookup(c, id)
		if sel == nil {
			return
		}
		found = true
		st.selection = sel
		out = copySelection(sel)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUnknownRecord
	}
	s.updates.publish(Update{Type: UpdateSelection, Collection: c, At: s.cfg.Now()})
	return out, nil
}

// ClearSelection closes the detail panel.
func (s *Session) ClearSelection(ctx context.Context) error {
	return s.do(ctx, func(st *state) { st.selection = nil })
}

func (st *state) lookup(c model.Collection, id string) *Selection {
	switch c {
	case model.CollectionReservations:
		for _, list := range [][]model.Reservation{st.reservations.Active, st.reservations.Deleted} {
			for i := range list {
				if list[i].ID == id {
					r := list[i]
					return &Selection{Collection: c, Reservation: &r}
				}
			}
		}
	case model.CollectionMessages:
		for _, list := range [][]model.Message{st.messages.Active, st.messages.Deleted} {
			for i := range list {
				if list[i].ID == id {
					m := list[i]
					return &Selection{Collection: c, Message: &m}
				}
			}
		}
	}
	return nil
}

func (st *state) isDeleted(c model.Collection, id string) bool {
	switch c {
	case model.CollectionReservations:
		for i := range st.reservations.Deleted {
			if st.reservations.Deleted[i].ID == id {
				return true
			}
		}
	case model.CollectionMessages:
		for i := range st.messages.Deleted {
			if st.messages.Deleted[i].ID == id {
				return true
			}
		}
	}
	return false
}

func copySelection(sel *Selection) *Selection {
	if sel == nil {
		return nil
	}
	out := &Selection{Collection: sel.Collection}
	if sel.Reservation != nil {
		r := *sel.Reservation
		out.Reservation = &r
	}
	if sel.Message != nil {
		m := *sel.Message
		out.Message = &m
	}
	return out
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// SetStatus confirms or rejects a pending reservation. Re-applying the
// reservation's current status is a no-op; changing a final status returns
// ErrStatusLocked. A store failure is logged and leaves local state as is.
func (s *Session) SetStatus(ctx context.Context, id string, status model.Status) error {
	if status != model.StatusConfirmed && status != model.StatusRejected {
		return service.ErrInvalidStatus
	}
	var current model.Status
	found := false
	if err := s.do(ctx, func(st *state) {
		for i := range st.reservations.Active {
			if st.reservations.Active[i].ID == id {
				current, found = st.reservations.Active[i].Status, true
				return
			}
		}
	}); err != nil {
		return err
	}
	if !found {
		return ErrUnknownRecord
	}
	if current == status {
		return nil
	}
	if current.Terminal() {
		return ErrStatusLocked
	}

	if err := s.cfg.Commands.SetStatus(ctx, id, status); err != nil {
		slog.Error("set status failed", "admin_id", s.adminID, "id", id, "status", status, "error", err)
		return err
	}
	return s.do(ctx, func(st *state) {
		if st.selection != nil && st.selection.Reservation != nil && st.selection.Reservation.ID == id {
			st.selection.Reservation.Status = status
		}
	})
}

// SoftDelete moves a record to the trash.
func (s *Session) SoftDelete(ctx context.Context, c model.Collection, id string) error {
	err := s.cfg.Commands.SoftDelete(ctx, c, id)
	if err != nil {
		slog.Error("soft delete failed", "admin_id", s.adminID, "collection", c, "id", id, "error", err)
		s.addNotice(NoticeError, textDeleteFailed)
		return err
	}
	s.addNotice(NoticeSuccess, textDeleted)
	return s.clearSelectionOf(id)
}

// Restore moves a record out of the trash.
func (s *Session) Restore(ctx context.Context, c model.Collection, id string) error {
	err := s.cfg.Commands.Restore(ctx, c, id)
	if err != nil {
		slog.Error("restore failed", "admin_id", s.adminID, "collection", c, "id", id, "error", err)
		s.addNotice(NoticeError, textRestoreFailed)
		return err
	}
	s.addNotice(NoticeSuccess, textRestored)
	return nil
}

// RequestHardDelete is the first step of a permanent delete. The record
// must currently be in the trash. The returned token must be passed to
// ConfirmHardDelete before it expires.
func (s *Session) RequestHardDelete(ctx context.Context, c model.Collection, id string) (Confirmation, error) {
	now := s.cfg.Now()
	var conf Confirmation
	deleted := false
	err := s.do(ctx, func(st *state) {
		if !st.isDeleted(c, id) {
			return
		}
		deleted = true
		for tok, p := range st.pending {
			if !now.Before(p.expiresAt) {
				delete(st.pending, tok)
			}
		}
		conf = Confirmation{
			Token:      uuid.NewString(),
			Collection: c,
			ID:         id,
			Warning:    HardDeleteWarning,
			ExpiresAt:  now.Add(confirmationTTL),
		}
		st.pending[conf.Token] = pendingDelete{collection: c, id: id, expiresAt: conf.ExpiresAt}
	})
	if err != nil {
		return Confirmation{}, err
	}
	if !deleted {
		return Confirmation{}, ErrNotDeleted
	}
	return conf, nil
}

// ConfirmHardDelete permanently deletes record id of collection c. token
// must have been issued for that record by RequestHardDelete; it is
// single-use.
func (s *Session) ConfirmHardDelete(ctx context.Context, c model.Collection, id, token string) error {
	if token == "" {
		return ErrConfirmationRequired
	}
	now := s.cfg.Now()
	var p pendingDelete
	var known, deleted bool
	if err := s.do(ctx, func(st *state) {
		p, known = st.pending[token]
		if !known || p.collection != c || p.id != id {
			known = false
			return
		}
		delete(st.pending, token)
		if now.Before(p.expiresAt) {
			deleted = st.isDeleted(p.collection, p.id)
		} else {
			known = false
		}
	}); err != nil {
		return err
	}
	if !known {
		return ErrUnknownConfirmation
	}
	if !deleted {
		return ErrNotDeleted
	}

	if err := s.cfg.Commands.HardDelete(ctx, p.collection, p.id); err != nil {
		slog.Error("hard delete failed", "admin_id", s.adminID, "collection", p.collection, "id", p.id, "error", err)
		s.addNotice(NoticeError, textHardDeleteFailed)
		return err
	}
	s.addNotice(NoticeSuccess, textHardDeleted)
	return s.clearSelectionOf(p.id)
}

// MarkRead flags a message as read. Failures are logged only; the unread
// badge simply stays until a later snapshot says otherwise.
func (s *Session) MarkRead(ctx context.Context, id string) error {
	if err := s.cfg.Commands.MarkRead(ctx, id); err != nil {
		slog.Warn("mark read failed", "admin_id", s.adminID, "id", id, "error", err)
		return err
	}
	return nil
}

func (s *Session) clearSelectionOf(id string) error {
	cleared := false
	err := s.do(context.Background(), func(st *state) {
		if st.selection.ID() == id {
			st.selection = nil
			cleared = true
		}
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	if cleared {
		s.updates.publish(Update{Type: UpdateSelection, At: s.cfg.Now()})
	}
	return err
}

func (s *Session) addNotice(level NoticeLevel, text string) {
	now := s.cfg.Now()
	n := newNotice(level, text, now, s.cfg.NoticeTTL)
	s.post(func(st *state) {
		st.notices = append(pruneNotices(st.notices, now), n)
	})
	s.updates.publish(Update{Type: UpdateNotice, Notice: &n, At: now})
}
