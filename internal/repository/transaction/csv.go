package transaction

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kailas-cloud/finrag/internal/domain"
)

// Column aliases accepted in import files, checked in order.
var (
	dateColumns     = []string{"date", "transaction_date", "transaction date"}
	nameColumns     = []string{"name", "merchant", "description", "vendor"}
	amountColumns   = []string{"amount", "amount_spent", "amount spent"}
	categoryColumns = []string{"category", "categories", "type"}
	scoreColumns    = []string{"necessity_score", "necessity score"}
)

// ParseCSV reads transactions from a CSV export. Header names are matched
// case-insensitively against known aliases. Rows missing a date, name or
// amount are skipped rather than failing the whole import.
func ParseCSV(r io.Reader) ([]domain.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("csv import: empty file")
		}
		return nil, fmt.Errorf("csv import: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var records []domain.Transaction
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv import: read row: %w", err)
		}

		date := pick(row, index, dateColumns)
		name := pick(row, index, nameColumns)
		amountRaw := pick(row, index, amountColumns)
		if date == "" || name == "" || amountRaw == "" {
			continue
		}

		amount, err := strconv.ParseFloat(stripCurrency(amountRaw), 64)
		if err != nil {
			continue
		}

		category := pick(row, index, categoryColumns)
		if category == "" {
			category = "Other"
		}

		t := domain.Transaction{
			Date:     normalizeDate(date),
			Name:     name,
			Amount:   amount,
			Category: category,
		}
		if raw := pick(row, index, scoreColumns); raw != "" {
			if score, err := strconv.ParseFloat(raw, 64); err == nil {
				t.NecessityScore = score
			}
		}
		records = append(records, t)
	}

	return records, nil
}

func pick(row []string, index map[string]int, aliases []string) string {
	for _, alias := range aliases {
		if i, ok := index[alias]; ok && i < len(row) {
			if v := strings.TrimSpace(row[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

// stripCurrency keeps digits, the decimal point and the sign ("$1,234.50" -> "1234.50").
func stripCurrency(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeDate converts "MM/DD/YYYY" into ISO "YYYY-MM-DD".
// Dates without slashes pass through unchanged.
func normalizeDate(s string) string {
	if !strings.Contains(s, "/") {
		return s
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return s
	}
	month, day, year := parts[0], parts[1], parts[2]
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}
	return year + "-" + month + "-" + day
}
