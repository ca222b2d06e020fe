package model

import "time"

// Status is the processing state of a reservation request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// Terminal reports whether no further status transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// TripType is the itinerary shape chosen by the customer.
type TripType string

const (
	TripRound  TripType = "round"
	TripOneWay TripType = "oneWay"
	TripMulti  TripType = "multi"
)

// CabinClass is the requested travel class of a flight segment.
type CabinClass string

const (
	CabinEco        CabinClass = "eco"
	CabinEcoPremium CabinClass = "ecoPremium"
	CabinBusiness   CabinClass = "business"
	CabinFirst      CabinClass = "first"
)

// Travelers counts passengers by age band.
type Travelers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// Flight is one segment of a reservation itinerary.
type Flight struct {
	From          string     `json:"from"`
	To            string     `json:"to"`
	FromIATA      string     `json:"from_iata"`
	ToIATA        string     `json:"to_iata"`
	CabinClass    CabinClass `json:"cabin_class"`
	DepartureDate time.Time  `json:"departure_date"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
}

// Contact identifies the customer who submitted a reservation.
type Contact struct {
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FullName returns "<first> <last>".
func (c Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Reservation is a flight booking request submitted from the public site.
type Reservation struct {
	ID        string    `json:"id"`
	TripType  TripType  `json:"trip_type"`
	Travelers Travelers `json:"travelers"`
	Flights   []Flight  `json:"flights"`
	Contact   Contact   `json:"contact"`
	Status    Status    `json:"status"`
	// CreatedAt is nil when the stored document carries no timestamp.
	CreatedAt *time.Time `json:"created_at"`
	Lifecycle Lifecycle  `json:"lifecycle"`
}

// CanTransition reports whether confirm/reject may still be applied.
func (r *Reservation) CanTransition() bool {
	return r.Status == StatusPending
}

// FirstDestination returns the destination of the first flight segment, or "".
func (r *Reservation) FirstDestination() string {
	if len(r.Flights) == 0 {
		return ""
	}
	return r.Flights[0].To
}
