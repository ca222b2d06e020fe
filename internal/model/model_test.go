package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLifecycle_JSON(t *testing.T) {
	b, err := json.Marshal(struct{ L Lifecycle }{Deleted})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"L":"deleted"}` {
		t.Errorf("marshal = %s", b)
	}
	var l Lifecycle
	if err := json.Unmarshal([]byte(`"active"`), &l); err != nil || l != Active {
		t.Errorf("unmarshal = %v, %v", l, err)
	}
	if err := json.Unmarshal([]byte(`"archived"`), &l); err == nil {
		t.Error("unknown lifecycle should fail")
	}
}

func TestLifecycleOf(t *testing.T) {
	if LifecycleOf(true) != Deleted || LifecycleOf(false) != Active {
		t.Error("LifecycleOf mismatch")
	}
}

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		s    Status
		want bool
	}{
		{StatusPending, false},
		{StatusConfirmed, true},
		{StatusRejected, true},
	}
	for _, tt := range tests {
		if got := tt.s.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v", tt.s, got)
		}
		r := Reservation{Status: tt.s}
		if r.CanTransition() == tt.want {
			t.Errorf("%s: CanTransition should be the inverse of Terminal", tt.s)
		}
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{StatusLabel(StatusPending), "En attente"},
		{StatusLabel(StatusConfirmed), "Confirmé"},
		{StatusLabel(StatusRejected), "Rejeté"},
		{StatusLabel("archived"), "archived"},
		{TripTypeLabel(TripRound), "Aller-retour"},
		{TripTypeLabel(TripOneWay), "Aller simple"},
		{TripTypeLabel(TripMulti), "Multiville"},
		{CabinLabel(CabinEcoPremium), "Éco Premium"},
		{CabinLabel(CabinFirst), "Première"},
		{CabinLabel(""), ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestTravelers_Summary(t *testing.T) {
	tests := []struct {
		in   Travelers
		want string
	}{
		{Travelers{Adults: 2, Children: 1}, "2 adulte(s), 1 enfant(s)"},
		{Travelers{Adults: 1, Infants: 1}, "1 adulte(s), 1 bébé(s)"},
		{Travelers{}, ""},
	}
	for _, tt := range tests {
		if got := tt.in.Summary(); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatal(err)
	}
	if d != (Date{2025, time.March, 9}) || d.String() != "2025-03-09" {
		t.Errorf("d = %+v", d)
	}
	if _, err := ParseDate("09/03/2025"); err == nil {
		t.Error("non-ISO date should fail")
	}
	if (Date{}).String() != "" || !(Date{}).IsZero() {
		t.Error("zero date")
	}
}

func TestDate_Compare(t *testing.T) {
	a := Date{2025, time.March, 9}
	tests := []struct {
		b    Date
		want int
	}{
		{Date{2025, time.March, 9}, 0},
		{Date{2025, time.March, 10}, -1},
		{Date{2025, time.February, 28}, 1},
		{Date{2024, time.December, 31}, 1},
	}
	for _, tt := range tests {
		if got := a.Compare(tt.b); got != tt.want {
			t.Errorf("Compare(%v) = %d, want %d", tt.b, got, tt.want)
		}
	}
}

func TestReservation_FirstDestination(t *testing.T) {
	r := Reservation{Flights: []Flight{{To: "Rome"}, {To: "Oslo"}}}
	if r.FirstDestination() != "Rome" {
		t.Error("first segment expected")
	}
	if (&Reservation{}).FirstDestination() != "" {
		t.Error("no flights means no destination")
	}
}
