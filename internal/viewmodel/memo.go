package viewmodel

import (
	"time"

	"github.com/exitravels/backoffice/internal/model"
)

// Memo caches the last reservation and message views keyed on their actual
// inputs: the list version, filters, sort, and the current week. It is not
// safe for concurrent use; the owner serialises access.
type Memo struct {
	resKey   reservationKey
	resView  View
	resValid bool

	msgKey   messageKey
	msgView  MessageView
	msgValid bool

	computations int
}

type reservationKey struct {
	version   uint64
	filters   Filters
	sort      Sort
	weekStart time.Time
}

type messageKey struct {
	version   uint64
	filters   MessageFilters
	dir       Direction
	weekStart time.Time
}

// Reservations returns the view of active at the given version, recomputing
// only when an input changed.
func (m *Memo) Reservations(version uint64, active []model.Reservation, f Filters, s Sort, env Env) View {
	key := reservationKey{version: version, filters: f, sort: s, weekStart: WeekStart(env.Now, env.loc())}
	if m.resValid && m.resKey == key {
		return m.resView
	}
	m.resView = ComputeView(active, f, s, env)
	m.resKey = key
	m.resValid = true
	m.computations++
	return m.resView
}

// Messages is the message counterpart of Reservations.
func (m *Memo) Messages(version uint64, active []model.Message, f MessageFilters, dir Direction, env Env) MessageView {
	key := messageKey{version: version, filters: f, dir: dir, weekStart: WeekStart(env.Now, env.loc())}
	if m.msgValid && m.msgKey == key {
		return m.msgView
	}
	m.msgView = ComputeMessageView(active, f, dir, env)
	m.msgKey = key
	m.msgValid = true
	m.computations++
	return m.msgView
}

// Computations reports how many times a view was actually recomputed.
func (m *Memo) Computations() int {
	return m.computations
}
