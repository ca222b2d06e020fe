// Package export renders reservation lists as spreadsheet-friendly CSV.
//
// The format is the one French spreadsheet software opens without an import
// dialog: UTF-8 with a byte-order mark, ';' between fields, every data field
// wrapped in double quotes with embedded quotes doubled.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/exitravels/backoffice/internal/model"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("export: no reservations")

const (
	bom        = "\uFEFF"
	separator  = ";"
	dateLayout = "02/01/2006"
)

// ContentType is the MIME type of the produced document.
const ContentType = "text/csv; charset=utf-8"

var header = []string{
	"ID",
	"Date",
	"Client (Nom)",
	"Client (Prénom)",
	"Email",
	"Téléphone",
	"Type de voyage",
	"Statut",
	"Voyageurs (Adultes/Enfants/Bébés)",
	"Détail des vols (Départ → Destination | Classe | Date)",
}

// FileName returns reservations_exitravels_<YYYY-MM-DD>.csv for now in UTC.
func FileName(now time.Time) string {
	return "reservations_exitravels_" + now.UTC().Format(time.DateOnly) + ".csv"
}

// WriteReservationsCSV writes a header line followed by one line per
// reservation, in the given order. Dates are rendered in loc. It returns
// ErrEmpty without writing anything when list is empty.
func WriteReservationsCSV(w io.Writer, list []model.Reservation, loc *time.Location) error {
	if len(list) == 0 {
		return ErrEmpty
	}
	if loc == nil {
		loc = time.UTC
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom + strings.Join(header, separator)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range list {
		if _, err := bw.WriteString("\n" + row(&list[i], loc)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func row(r *model.Reservation, loc *time.Location) string {
	fields := []string{
		r.ID,
		formatDate(r.CreatedAt, loc),
		r.Contact.LastName,
		r.Contact.FirstName,
		r.Contact.Email,
		r.Contact.Phone,
		model.TripTypeLabel(r.TripType),
		model.StatusLabel(r.Status),
		fmt.Sprintf("%d/%d/%d", r.Travelers.Adults, r.Travelers.Children, r.Travelers.Infants),
		flightsDetail(r.Flights, loc),
	}
	for i, f := range fields {
		fields[i] = quote(f)
	}
	return strings.Join(fields, separator)
}

func flightsDetail(flights []model.Flight, loc *time.Location) string {
	parts := make([]string, 0, len(flights))
	for _, f := range flights {
		dep := ""
		if !f.DepartureDate.IsZero() {
			dep = f.DepartureDate.In(loc).Format(dateLayout)
		}
		parts = append(parts, fmt.Sprintf("%s → %s | %s | %s", f.From, f.To, model.CabinLabel(f.CabinClass), dep))
	}
	return strings.Join(parts, " ; ")
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(dateLayout)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// quote wraps s in double quotes and doubles any quote inside it. Line
// breaks become spaces so each reservation stays on one physical line.
func quote(s string) string {
	return `"` + strings.ReplaceAll(lineBreaks.Replace(s), `"`, `""`) + `"`
}
