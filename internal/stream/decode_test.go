package stream

import (
	"testing"
	"time"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository"
)

func doc(id, body string) repository.RawDocument {
	return repository.RawDocument{ID: id, Body: []byte(body)}
}

func TestDecodeReservation_Full(t *testing.T) {
	r := DecodeReservation(doc("r1", `{
		"tripType": "round",
		"status": "confirmed",
		"travelers": {"adultes": 2, "enfants": "1", "bebes": 0},
		"contact": {"nom": "Martin", "prenom": "Jean", "email": "jean@example.com", "telephone": 612345678},
		"flights": [{"from": "Paris", "to": "Rome", "toIata": "FCO", "cabinClass": "business",
		             "departureDate": "2025-04-01T08:00:00Z", "returnDate": "2025-04-08"}],
		"createdAt": {"seconds": 1741600800, "nanoseconds": 0}
	}`))

	if r.ID != "r1" || r.TripType != model.TripRound || r.Status != model.StatusConfirmed {
		t.Errorf("header fields: %+v", r)
	}
	if r.Travelers != (model.Travelers{Adults: 2, Children: 1}) {
		t.Errorf("travelers = %+v", r.Travelers)
	}
	if r.Contact.Phone != "612345678" {
		t.Errorf("numeric phone should read as text, got %q", r.Contact.Phone)
	}
	if len(r.Flights) != 1 {
		t.Fatalf("flights = %+v", r.Flights)
	}
	f := r.Flights[0]
	if f.To != "Rome" || f.ToIATA != "FCO" || f.CabinClass != model.CabinBusiness {
		t.Errorf("flight = %+v", f)
	}
	if !f.DepartureDate.Equal(time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)) || f.ReturnDate == nil {
		t.Errorf("flight dates = %v / %v", f.DepartureDate, f.ReturnDate)
	}
	if r.CreatedAt == nil || r.CreatedAt.Unix() != 1741600800 {
		t.Errorf("createdAt = %v", r.CreatedAt)
	}
	if r.Lifecycle != model.Active {
		t.Errorf("lifecycle = %v", r.Lifecycle)
	}
}

func TestDecodeReservation_Defaults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"not json", `not json`},
		{"wrong types", `{"status": 3, "travelers": "many", "contact": [], "flights": {}, "isDeleted": "yes"}`},
		{"unknown status", `{"status": "archived"}`},
		{"negative counts", `{"travelers": {"adultes": -2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DecodeReservation(doc("x", tt.body))
			if r.Status != model.StatusPending {
				t.Errorf("status = %q, want pending", r.Status)
			}
			if r.Lifecycle != model.Active {
				t.Errorf("lifecycle = %v, want active", r.Lifecycle)
			}
			if r.Travelers != (model.Travelers{}) {
				t.Errorf("travelers = %+v", r.Travelers)
			}
			if r.CreatedAt != nil {
				t.Errorf("createdAt = %v", r.CreatedAt)
			}
		})
	}
}

func TestDecodeReservation_TravelerCounts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.Travelers
	}{
		{"huge count reads as zero", `{"travelers": {"adultes": 1e20, "enfants": 1}}`, model.Travelers{Children: 1}},
		{"fraction truncated", `{"travelers": {"adultes": 1, "enfants": 2.9}}`, model.Travelers{Adults: 1, Children: 2}},
		{"both at once", `{"travelers": {"adultes": 1e20, "enfants": 2.9}}`, model.Travelers{Children: 2}},
		{"max int32 kept", `{"travelers": {"adultes": 2147483647}}`, model.Travelers{Adults: 2147483647}},
		{"huge numeric string", `{"travelers": {"adultes": "99999999999999999999"}}`, model.Travelers{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeReservation(doc("x", tt.body)).Travelers; got != tt.want {
				t.Errorf("travelers = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeReservation_RowTimestampWins(t *testing.T) {
	row := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d := doc("r", `{"createdAt": "2020-01-01T00:00:00Z"}`)
	d.CreatedAt = &row
	if got := DecodeReservation(d).CreatedAt; !got.Equal(row) {
		t.Errorf("createdAt = %v", got)
	}
}

func TestDecodeMessage(t *testing.T) {
	m := DecodeMessage(doc("m1", `{"nom": "Bernard", "prenom": "Marie", "email": "m@example.com",
		"message": "Bonjour", "isRead": true, "isDeleted": true, "createdAt": "2025-03-11 08:00:00"}`))
	if m.LastName != "Bernard" || m.Body != "Bonjour" || !m.Read || m.Lifecycle != model.Deleted {
		t.Errorf("m = %+v", m)
	}
	if m.CreatedAt == nil || m.CreatedAt.Hour() != 8 {
		t.Errorf("createdAt = %v", m.CreatedAt)
	}

	blank := DecodeMessage(doc("m2", `{}`))
	if blank.Read || blank.Lifecycle != model.Active {
		t.Errorf("defaults: %+v", blank)
	}
}

func TestPartition_KeepsSourceOrder(t *testing.T) {
	p := PartitionReservations([]repository.RawDocument{
		doc("a", `{}`),
		doc("b", `{"isDeleted": true}`),
		doc("c", `{"isDeleted": false}`),
		doc("d", `{"isDeleted": true}`),
	})
	if ids(p.Active) != "a,c" || ids(p.Deleted) != "b,d" {
		t.Errorf("active %s deleted %s", ids(p.Active), ids(p.Deleted))
	}

	empty := PartitionMessages(nil)
	if empty.Active == nil || empty.Deleted == nil {
		t.Error("empty partitions must be non-nil slices")
	}
}

func ids(rs []model.Reservation) string {
	s := ""
	for i, r := range rs {
		if i > 0 {
			s += ","
		}
		s += r.ID
	}
	return s
}
