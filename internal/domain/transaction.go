package domain

import "strings"

// Transaction is one financial record from the external store.
// Dates are ISO "YYYY-MM-DD" strings; amounts are signed (spend is negative
// in most bank exports). Read-only to the retrieval core.
type Transaction struct {
	Date           string  `json:"date"`
	Name           string  `json:"name"`
	Amount         float64 `json:"amount"`
	Category       string  `json:"category"`
	NecessityScore float64 `json:"necessity_score,omitempty"`
}

// YearMonth returns the "YYYY-MM" prefix of the transaction date, or ""
// when the date is too short to carry one.
func (t *Transaction) YearMonth() string {
	d := strings.TrimSpace(t.Date)
	if i := strings.IndexByte(d, 'T'); i >= 0 {
		d = d[:i]
	}
	if len(d) < 7 {
		return ""
	}
	return d[:7]
}

// DateOnly returns the "YYYY-MM-DD" part of the transaction date.
func (t *Transaction) DateOnly() string {
	d := strings.TrimSpace(t.Date)
	if i := strings.IndexByte(d, 'T'); i >= 0 {
		d = d[:i]
	}
	return d
}
