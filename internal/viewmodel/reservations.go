package viewmodel

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/exitravels/backoffice/internal/model"
)

const (
	topDestinationLimit = 5
	unknownDestination  = "Inconnue"
)

// DestinationCount is one row of the top-destinations panel.
type DestinationCount struct {
	Destination string `json:"destination"`
	Count       int    `json:"count"`
}

// Stats aggregates the whole active list, independent of filters and sort.
type Stats struct {
	Total           int                `json:"total"`
	ThisWeek        int                `json:"this_week"`
	Pending         int                `json:"pending"`
	Confirmed       int                `json:"confirmed"`
	Rejected        int                `json:"rejected"`
	TopDestinations []DestinationCount `json:"top_destinations"`
}

// View is the displayed reservation list plus its statistics.
type View struct {
	Items []model.Reservation `json:"items"`
	Stats Stats               `json:"stats"`
}

// ComputeView filters and sorts active, and computes Stats over all of
// active. It never mutates active and returns the same result for the same
// inputs.
func ComputeView(active []model.Reservation, f Filters, s Sort, env Env) View {
	loc := env.loc()
	q := strings.ToLower(f.Query)

	items := make([]model.Reservation, 0, len(active))
	for _, r := range active {
		if q != "" && !matchesReservation(&r, q) {
			continue
		}
		if !f.inRange(r.CreatedAt, loc) {
			continue
		}
		items = append(items, r)
	}
	SortReservations(items, s)

	return View{Items: items, Stats: ComputeStats(active, env)}
}

func matchesReservation(r *model.Reservation, q string) bool {
	if containsFold(r.Contact.LastName, q) ||
		containsFold(r.Contact.FirstName, q) ||
		containsFold(r.Contact.Email, q) {
		return true
	}
	for _, fl := range r.Flights {
		if containsFold(fl.To, q) || containsFold(fl.From, q) {
			return true
		}
	}
	return false
}

// SortReservations orders items in place.
func SortReservations(items []model.Reservation, s Sort) {
	primary := reservationComparator(s.Key)
	slices.SortStableFunc(items, func(a, b model.Reservation) int {
		c := primary(&a, &b)
		if s.Direction == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func reservationComparator(key SortKey) func(a, b *model.Reservation) int {
	switch key {
	case SortStatus:
		return func(a, b *model.Reservation) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case SortTripType:
		return func(a, b *model.Reservation) int { return strings.Compare(string(a.TripType), string(b.TripType)) }
	case SortDestination:
		return func(a, b *model.Reservation) int {
			return strings.Compare(strings.ToLower(a.FirstDestination()), strings.ToLower(b.FirstDestination()))
		}
	case SortClient:
		return func(a, b *model.Reservation) int {
			return strings.Compare(strings.ToLower(a.Contact.FullName()), strings.ToLower(b.Contact.FullName()))
		}
	default:
		return func(a, b *model.Reservation) int { return compareInstants(a.CreatedAt, b.CreatedAt) }
	}
}

// compareInstants orders a missing timestamp before every real one.
func compareInstants(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

// ComputeStats counts active reservations by status, this ISO week, and
// by destination.
func ComputeStats(active []model.Reservation, env Env) Stats {
	weekStart := WeekStart(env.Now, env.loc())
	st := Stats{Total: len(active)}
	for i := range active {
		r := &active[i]
		if inWeek(r.CreatedAt, weekStart) {
			st.ThisWeek++
		}
		switch r.Status {
		case model.StatusPending:
			st.Pending++
		case model.StatusConfirmed:
			st.Confirmed++
		case model.StatusRejected:
			st.Rejected++
		}
	}
	st.TopDestinations = topDestinations(active)
	return st
}

// topDestinations counts every flight segment's destination; ties keep the
// order in which destinations were first seen.
func topDestinations(active []model.Reservation) []DestinationCount {
	index := map[string]int{}
	counts := []DestinationCount{}
	for i := range active {
		for _, fl := range active[i].Flights {
			dest := fl.To
			if dest == "" {
				dest = unknownDestination
			}
			if j, ok := index[dest]; ok {
				counts[j].Count++
				continue
			}
			index[dest] = len(counts)
			counts = append(counts, DestinationCount{Destination: dest, Count: 1})
		}
	}
	slices.SortStableFunc(counts, func(a, b DestinationCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(counts) > topDestinationLimit {
		counts = counts[:topDestinationLimit]
	}
	return counts
}
