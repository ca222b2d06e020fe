package notify

// ArrivalTrigger detects new records by watching the active-list length of
// one collection; use one trigger per collection. It fires when the length
// grows relative to the previous snapshot, except on the first snapshot it
// sees.
//
// It compares counts, not ids: a snapshot that adds one record and
// soft-deletes another looks unchanged and does not fire.
type ArrivalTrigger struct {
	prev        int
	established bool
}

// NewArrivalTrigger creates a trigger that has not seen a snapshot yet.
func NewArrivalTrigger() *ArrivalTrigger {
	return &ArrivalTrigger{}
}

// Observe records the active length of a new snapshot and reports whether
// an arrival notification should fire.
func (t *ArrivalTrigger) Observe(activeLen int) bool {
	fire := t.established && activeLen > t.prev
	t.prev = activeLen
	t.established = true
	return fire
}
