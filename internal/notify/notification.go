package notify

import (
	"time"

	"github.com/exitravels/backoffice/internal/model"
)

// Notification is an arrival alert shown to staff.
type Notification struct {
	Collection model.Collection `json:"collection"`
	Title      string           `json:"title"`
	Body       string           `json:"body"`
	At         time.Time        `json:"at"`
}

// ArrivalNotification returns the fixed wording for a new record in c.
func ArrivalNotification(c model.Collection, at time.Time) Notification {
	n := Notification{Collection: c, At: at}
	switch c {
	case model.CollectionMessages:
		n.Title = "📩 Nouveau message !"
		n.Body = "Un nouveau message de contact a été reçu."
	default:
		n.Title = "🆕 Nouvelle réservation !"
		n.Body = "Une nouvelle demande a été reçue."
	}
	return n
}

// RoutingKey is the topic used by message-broker sinks, e.g. "arrival.reservations".
func (n Notification) RoutingKey() string {
	return "arrival." + string(n.Collection)
}
