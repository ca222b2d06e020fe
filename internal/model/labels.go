package model

import (
	"fmt"
	"strings"
)

var statusLabels = map[Status]string{
	StatusPending:   "En attente",
	StatusConfirmed: "Confirmé",
	StatusRejected:  "Rejeté",
}

var tripTypeLabels = map[TripType]string{
	TripRound:  "Aller-retour",
	TripOneWay: "Aller simple",
	TripMulti:  "Multiville",
}

var cabinLabels = map[CabinClass]string{
	CabinEco:        "Éco",
	CabinEcoPremium: "Éco Premium",
	CabinBusiness:   "Business",
	CabinFirst:      "Première",
}

// StatusLabel returns the French display label, or the raw value if unknown.
func StatusLabel(s Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// TripTypeLabel returns the French display label, or the raw value if unknown.
func TripTypeLabel(t TripType) string {
	if l, ok := tripTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// CabinLabel returns the French display label, or the raw value if unknown.
func CabinLabel(c CabinClass) string {
	if l, ok := cabinLabels[c]; ok {
		return l
	}
	return string(c)
}

// Summary renders non-zero counts, e.g. "2 adulte(s), 1 enfant(s)".
func (t Travelers) Summary() string {
	var parts []string
	if t.Adults > 0 {
		parts = append(parts, fmt.Sprintf("%d adulte(s)", t.Adults))
	}
	if t.Children > 0 {
		parts = append(parts, fmt.Sprintf("%d enfant(s)", t.Children))
	}
	if t.Infants > 0 {
		parts = append(parts, fmt.Sprintf("%d bébé(s)", t.Infants))
	}
	return strings.Join(parts, ", ")
}
