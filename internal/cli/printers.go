package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/viewmodel"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

const shortDate = "02/01/2006 15:04"

func title(w io.Writer, text string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)
	_, _ = t.Fprint(w, text)
	switch count {
	case 1:
		_, _ = c.Fprintln(w, " - 1 entry")
	default:
		_, _ = c.Fprintf(w, " - %d entries\n", count)
	}
}

func none(w io.Writer) {
	_, _ = color.New(color.Faint, color.Italic).Fprint(w, " none\n\n")
}

func statusColor(s model.Status) *color.Color {
	switch s {
	case model.StatusConfirmed:
		return color.New(color.FgGreen)
	case model.StatusRejected:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiYellow)
	}
}

func formatInstant(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format(shortDate)
}

func route(r *model.Reservation) string {
	legs := make([]string, 0, len(r.Flights))
	for _, f := range r.Flights {
		legs = append(legs, f.From+" → "+f.To)
	}
	if len(legs) == 0 {
		return "-"
	}
	return strings.Join(legs, ", ")
}

// printReservations renders one row per reservation.
func printReservations(w io.Writer, heading string, list []model.Reservation, loc *time.Location) {
	title(w, heading, len(list))
	if len(list) == 0 {
		none(w)
		return
	}
	tbl := uitable.New()
	tbl.MaxColWidth = 48
	tbl.Separator = "  "
	tbl.AddRow("ID", "DATE", "CLIENT", "VOYAGE", "ITINÉRAIRE", "VOYAGEURS", "STATUT")
	for i := range list {
		r := &list[i]
		tbl.AddRow(
			r.ID,
			formatInstant(r.CreatedAt, loc),
			r.Contact.FullName(),
			model.TripTypeLabel(r.TripType),
			route(r),
			r.Travelers.Summary(),
			statusColor(r.Status).Sprint(model.StatusLabel(r.Status)),
		)
	}
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)
}

// printMessages renders one row per contact message; unread ones in bold.
func printMessages(w io.Writer, heading string, list []model.Message, loc *time.Location) {
	title(w, heading, len(list))
	if len(list) == 0 {
		none(w)
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.MaxColWidth = 60
	tbl.Separator = "  "
	tbl.AddRow("ID", "DATE", "NOM", "EMAIL", "MESSAGE")
	for i := range list {
		m := &list[i]
		name := strings.TrimSpace(m.FirstName + " " + m.LastName)
		if !m.Read {
			name = bold.Sprint(name)
		}
		tbl.AddRow(m.ID, formatInstant(m.CreatedAt, loc), name, m.Email, m.Body)
	}
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)
}

// printStats renders the dashboard counters and the top destinations.
func printStats(w io.Writer, st viewmodel.Stats, unread int) {
	title(w, "Tableau de bord", st.Total)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Réservations", strconv.Itoa(st.Total))
	tbl.AddRow("Cette semaine", strconv.Itoa(st.ThisWeek))
	tbl.AddRow("En attente", statusColor(model.StatusPending).Sprint(st.Pending))
	tbl.AddRow("Confirmées", statusColor(model.StatusConfirmed).Sprint(st.Confirmed))
	tbl.AddRow("Refusées", statusColor(model.StatusRejected).Sprint(st.Rejected))
	tbl.AddRow("Messages non lus", strconv.Itoa(unread))
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)

	title(w, "Destinations populaires", len(st.TopDestinations))
	if len(st.TopDestinations) == 0 {
		none(w)
		return
	}
	top := uitable.New()
	top.Separator = "  "
	for i, d := range st.TopDestinations {
		top.AddRow(fmt.Sprintf("%d.", i+1), d.Destination, strconv.Itoa(d.Count))
	}
	_, _ = fmt.Fprintln(w, top)
	_, _ = fmt.Fprintln(w)
}
