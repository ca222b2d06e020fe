package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	sampleClients = []struct{ nom, prenom, city string }{
		{"Martin", "Jean", "Lyon"},
		{"Bernard", "Marie", "Paris"},
		{"Dubois", "Lucas", "Marseille"},
		{"Thomas", "Camille", "Toulouse"},
		{"Robert", "Léa", "Nantes"},
		{"Petit", "Hugo", "Bordeaux"},
	}
	sampleDestinations = []struct{ city, iata string }{
		{"Rome", "FCO"},
		{"Lisbonne", "LIS"},
		{"Marrakech", "RAK"},
		{"New York", "JFK"},
		{"Tokyo", "HND"},
	}
	sampleCabins   = []string{"eco", "ecoPremium", "business", "first"}
	sampleTrips    = []string{"round", "oneWay", "multi"}
	sampleStatuses = []string{"pending", "pending", "confirmed", "rejected"}
)

// sampleReservation builds the i-th demo reservation document in the shape
// the public booking form writes.
func sampleReservation(i int, now time.Time) map[string]any {
	c := sampleClients[i%len(sampleClients)]
	dest := sampleDestinations[i%len(sampleDestinations)]
	trip := sampleTrips[i%len(sampleTrips)]
	departure := now.AddDate(0, 1, i).Truncate(24 * time.Hour)

	flights := []any{map[string]any{
		"from":          c.city,
		"to":            dest.city,
		"toIata":        dest.iata,
		"cabinClass":    sampleCabins[i%len(sampleCabins)],
		"departureDate": departure.Format(time.RFC3339),
	}}
	switch trip {
	case "round":
		flights[0].(map[string]any)["returnDate"] = departure.AddDate(0, 0, 7).Format(time.RFC3339)
	case "multi":
		next := sampleDestinations[(i+1)%len(sampleDestinations)]
		flights = append(flights, map[string]any{
			"from":          dest.city,
			"to":            next.city,
			"toIata":        next.iata,
			"cabinClass":    "eco",
			"departureDate": departure.AddDate(0, 0, 4).Format(time.RFC3339),
		})
	}

	return map[string]any{
		"tripType": trip,
		"status":   sampleStatuses[i%len(sampleStatuses)],
		"travelers": map[string]any{
			"adultes": 1 + i%3,
			"enfants": i % 2,
			"bebes":   0,
		},
		"contact": map[string]any{
			"nom":       c.nom,
			"prenom":    c.prenom,
			"email":     fmt.Sprintf("%s.%s@example.com", strings.ToLower(c.prenom), strings.ToLower(c.nom)),
			"telephone": fmt.Sprintf("06 12 34 56 %02d", i%100),
		},
		"flights":   flights,
		"isDeleted": false,
	}
}

// sampleMessage builds the i-th demo contact message document.
func sampleMessage(i int) map[string]any {
	c := sampleClients[(i+2)%len(sampleClients)]
	return map[string]any{
		"nom":     c.nom,
		"prenom":  c.prenom,
		"email":   fmt.Sprintf("%s.%s@example.com", strings.ToLower(c.prenom), strings.ToLower(c.nom)),
		"message": fmt.Sprintf("Bonjour, je souhaite un devis pour %s.", sampleDestinations[i%len(sampleDestinations)].city),
		"isRead":  i%2 == 1,
	}
}

func addSeed(topLevel *cobra.Command, opts func() Options) {
	var reservations, messages int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample reservations and messages (development only).",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, opts())
			if err != nil {
				return err
			}
			defer st.Close()

			now := time.Now()
			for i := 0; i < reservations; i++ {
				body, err := json.Marshal(sampleReservation(i, now))
				if err != nil {
					return err
				}
				if _, err := st.reservations.Insert(ctx, body); err != nil {
					return fmt.Errorf("insert reservation %d: %w", i, err)
				}
			}
			for i := 0; i < messages; i++ {
				body, err := json.Marshal(sampleMessage(i))
				if err != nil {
					return err
				}
				if _, err := st.messages.Insert(ctx, body); err != nil {
					return fmt.Errorf("insert message %d: %w", i, err)
				}
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"inserted %d reservation(s) and %d message(s)\n", reservations, messages)
			return nil
		},
	}

	cmd.Flags().IntVar(&reservations, "reservations", 12, "Number of reservations to insert.")
	cmd.Flags().IntVar(&messages, "messages", 4, "Number of messages to insert.")

	topLevel.AddCommand(cmd)
}
