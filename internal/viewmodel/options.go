package viewmodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/exitravels/backoffice/internal/model"
)

// SortKey selects the field a list is ordered by.
type SortKey string

const (
	SortDate        SortKey = "date"
	SortStatus      SortKey = "status"
	SortTripType    SortKey = "tripType"
	SortDestination SortKey = "destination"
	SortClient      SortKey = "client"
)

// Direction is the sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a key plus a direction. Records with equal keys are ordered by id
// ascending whatever the direction.
type Sort struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort is newest first.
var DefaultSort = Sort{Key: SortDate, Direction: Desc}

// ParseSort validates query-string values; empty values fall back to
// DefaultSort's.
func ParseSort(key, direction string) (Sort, error) {
	s := DefaultSort
	if key != "" {
		switch k := SortKey(key); k {
		case SortDate, SortStatus, SortTripType, SortDestination, SortClient:
			s.Key = k
		default:
			return Sort{}, fmt.Errorf("unknown sort key %q", key)
		}
	}
	if direction != "" {
		switch d := Direction(strings.ToLower(direction)); d {
		case Asc, Desc:
			s.Direction = d
		default:
			return Sort{}, fmt.Errorf("unknown sort direction %q", direction)
		}
	}
	return s, nil
}

// Filters narrows the displayed list. Zero values impose no constraint.
type Filters struct {
	Query string     `json:"query"`
	From  model.Date `json:"-"`
	To    model.Date `json:"-"`
}

// ParseFilters builds Filters from "2006-01-02" bounds; empty bounds are unset.
func ParseFilters(query, from, to string) (Filters, error) {
	f := Filters{Query: strings.TrimSpace(query)}
	var err error
	if from != "" {
		if f.From, err = model.ParseDate(from); err != nil {
			return Filters{}, err
		}
	}
	if to != "" {
		if f.To, err = model.ParseDate(to); err != nil {
			return Filters{}, err
		}
	}
	return f, nil
}

func (f Filters) hasDateBounds() bool {
	return !f.From.IsZero() || !f.To.IsZero()
}

// inRange reports whether createdAt's calendar date in loc lies within the
// bounds. A missing timestamp is outside any bounded range.
func (f Filters) inRange(createdAt *time.Time, loc *time.Location) bool {
	if !f.hasDateBounds() {
		return true
	}
	if createdAt == nil {
		return false
	}
	d := model.DateOf(createdAt.In(loc))
	if !f.From.IsZero() && d.Compare(f.From) < 0 {
		return false
	}
	if !f.To.IsZero() && d.Compare(f.To) > 0 {
		return false
	}
	return true
}

// Env carries the inputs that are not part of the data: the current instant
// (for "this week") and the location calendar dates are taken in.
type Env struct {
	Now      time.Time
	Location *time.Location
}

func (e Env) loc() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// WeekStart returns Monday 00:00 of the week containing now, in loc.
func WeekStart(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	offset := (int(n.Weekday()) + 6) % 7
	return time.Date(n.Year(), n.Month(), n.Day()-offset, 0, 0, 0, 0, loc)
}

func inWeek(t *time.Time, weekStart time.Time) bool {
	if t == nil {
		return false
	}
	end := weekStart.AddDate(0, 0, 7)
	return !t.Before(weekStart) && t.Before(end)
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
