package notify

import (
	"testing"

	"github.com/exitravels/backoffice/internal/model"
)

func TestArrivalTrigger(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		want  []bool
	}{
		{"first snapshot never fires", []int{3}, []bool{false}},
		{"first snapshot empty then one", []int{0, 1}, []bool{false, true}},
		{"growth fires each time", []int{2, 3, 5}, []bool{false, true, true}},
		{"shrink and same do not fire", []int{4, 3, 3}, []bool{false, false, false}},
		{"regrowth after delete fires", []int{4, 3, 4}, []bool{false, false, true}},
		// An addition and a soft delete in the same snapshot keep the count
		// unchanged; the count heuristic misses it.
		{"add plus remove is invisible", []int{4, 4}, []bool{false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewArrivalTrigger()
			for i, n := range tt.sizes {
				if got := tr.Observe(n); got != tt.want[i] {
					t.Errorf("snapshot %d (len %d): fire = %v, want %v", i, n, got, tt.want[i])
				}
			}
		})
	}
}

func TestArrivalNotification(t *testing.T) {
	r := ArrivalNotification(model.CollectionReservations, testNow)
	if r.Title != "🆕 Nouvelle réservation !" || r.Body != "Une nouvelle demande a été reçue." {
		t.Errorf("reservation wording = %+v", r)
	}
	if r.RoutingKey() != "arrival.reservations" {
		t.Errorf("routing key = %s", r.RoutingKey())
	}
	m := ArrivalNotification(model.CollectionMessages, testNow)
	if m.Title != "📩 Nouveau message !" || m.RoutingKey() != "arrival.messages" {
		t.Errorf("message wording = %+v", m)
	}
}
