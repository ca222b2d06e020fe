package stream

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository"
)

// fields is a leniently decoded JSON object: a field of the wrong type reads
// as its zero value instead of failing the whole document.
type fields map[string]json.RawMessage

func parseFields(raw json.RawMessage) fields {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return fields{}
	}
	return f
}

func (f fields) str(key string) string {
	var s string
	if err := json.Unmarshal(f[key], &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(f[key], &n); err == nil {
		return n.String()
	}
	return ""
}

// count reads a non-negative integer; numeric strings are accepted.
// Fractions are truncated. Values beyond MaxInt32 read as 0.
func (f fields) count(key string) int {
	var n float64
	if err := json.Unmarshal(f[key], &n); err != nil {
		s := strings.TrimSpace(f.str(key))
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		n = float64(v)
	}
	if n < 0 || n > math.MaxInt32 || math.IsNaN(n) {
		return 0
	}
	return int(math.Trunc(n))
}

func (f fields) boolean(key string) bool {
	var b bool
	if err := json.Unmarshal(f[key], &b); err != nil {
		return false
	}
	return b
}

func (f fields) object(key string) fields {
	return parseFields(f[key])
}

func (f fields) array(key string) []json.RawMessage {
	var a []json.RawMessage
	if err := json.Unmarshal(f[key], &a); err != nil {
		return nil
	}
	return a
}

// timestamp accepts an RFC 3339 string or a {"seconds","nanoseconds"} object.
func (f fields) timestamp(key string) *time.Time {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		return nil
	}
	var ts struct {
		Seconds     *int64 `json:"seconds"`
		Nanoseconds int64  `json:"nanoseconds"`
	}
	if err := json.Unmarshal(raw, &ts); err == nil && ts.Seconds != nil {
		t := time.Unix(*ts.Seconds, ts.Nanoseconds).UTC()
		return &t
	}
	return nil
}

// DecodeReservation maps a stored document to a Reservation. Missing or
// malformed fields take safe defaults: status pending, lifecycle active,
// zero counts, empty strings.
func DecodeReservation(doc repository.RawDocument) model.Reservation {
	f := parseFields(doc.Body)

	r := model.Reservation{
		ID:        doc.ID,
		TripType:  model.TripType(f.str("tripType")),
		Status:    model.Status(f.str("status")),
		CreatedAt: doc.CreatedAt,
		Lifecycle: model.LifecycleOf(f.boolean("isDeleted")),
	}
	switch r.Status {
	case model.StatusPending, model.StatusConfirmed, model.StatusRejected:
	default:
		r.Status = model.StatusPending
	}
	if r.CreatedAt == nil {
		r.CreatedAt = f.timestamp("createdAt")
	}

	t := f.object("travelers")
	r.Travelers = model.Travelers{
		Adults:   t.count("adultes"),
		Children: t.count("enfants"),
		Infants:  t.count("bebes"),
	}

	c := f.object("contact")
	r.Contact = model.Contact{
		LastName:  c.str("nom"),
		FirstName: c.str("prenom"),
		Email:     c.str("email"),
		Phone:     c.str("telephone"),
	}

	for _, raw := range f.array("flights") {
		fl := parseFields(raw)
		flight := model.Flight{
			From:       fl.str("from"),
			To:         fl.str("to"),
			FromIATA:   fl.str("fromIata"),
			ToIATA:     fl.str("toIata"),
			CabinClass: model.CabinClass(fl.str("cabinClass")),
			ReturnDate: fl.timestamp("returnDate"),
		}
		if dep := fl.timestamp("departureDate"); dep != nil {
			flight.DepartureDate = *dep
		}
		r.Flights = append(r.Flights, flight)
	}
	return r
}

// DecodeMessage maps a stored document to a Message; isRead defaults to
// unread and isDeleted to active.
func DecodeMessage(doc repository.RawDocument) model.Message {
	f := parseFields(doc.Body)
	m := model.Message{
		ID:        doc.ID,
		LastName:  f.str("nom"),
		FirstName: f.str("prenom"),
		Email:     f.str("email"),
		Phone:     f.str("telephone"),
		Body:      f.str("message"),
		CreatedAt: doc.CreatedAt,
		Lifecycle: model.LifecycleOf(f.boolean("isDeleted")),
		Read:      f.boolean("isRead"),
	}
	if m.CreatedAt == nil {
		m.CreatedAt = f.timestamp("createdAt")
	}
	return m
}
