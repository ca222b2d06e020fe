package model

import (
	"encoding/json"
	"fmt"
)

// Lifecycle is the soft-delete state of a record. Every record is in exactly
// one of Active or Deleted.
type Lifecycle int

const (
	Active Lifecycle = iota
	Deleted
)

// LifecycleOf maps the stored isDeleted flag to a Lifecycle.
func LifecycleOf(isDeleted bool) Lifecycle {
	if isDeleted {
		return Deleted
	}
	return Active
}

func (l Lifecycle) String() string {
	switch l {
	case Active:
		return "active"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
}

// MarshalJSON encodes the lifecycle as its name.
func (l Lifecycle) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts "active" or "deleted".
func (l *Lifecycle) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "active":
		*l = Active
	case "deleted":
		*l = Deleted
	default:
		return fmt.Errorf("unknown lifecycle %q", s)
	}
	return nil
}

// Collection names one of the two live document collections.
type Collection string

const (
	CollectionReservations Collection = "reservations"
	CollectionMessages     Collection = "messages"
)

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	return c == CollectionReservations || c == CollectionMessages
}
