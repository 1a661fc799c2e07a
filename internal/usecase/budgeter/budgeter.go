// Package budgeter narrows ranked candidates and formats the bounded
// context block that goes into the generation prompt.
package budgeter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/domain/filter"
)

// Service applies query filters and builds spending context under a
// fixed record budget.
type Service struct {
	maxRecords int
	lineItems  int
	now        func() time.Time
}

// New creates a budgeter. maxRecords caps how many records feed the
// statistics; lineItems caps the rendered transaction list.
func New(maxRecords, lineItems int) *Service {
	if maxRecords < 1 {
		maxRecords = 50
	}
	if lineItems < 1 {
		lineItems = 20
	}
	return &Service{maxRecords: maxRecords, lineItems: lineItems, now: time.Now}
}

// WithClock overrides the time source. Date windows resolve against it.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Apply filters records by category and date window. Both conditions are
// AND-combined when present. An empty filter returns the input unchanged.
func (s *Service) Apply(records []domain.Transaction, f filter.Filter) []domain.Transaction {
	if f.IsEmpty() {
		return records
	}

	now := s.now().UTC()
	out := make([]domain.Transaction, 0, len(records))
	for _, t := range records {
		if f.Category() != "" && !strings.EqualFold(t.Category, f.Category()) {
			continue
		}
		if !s.inWindow(&t, f.Window(), now) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *Service) inWindow(t *domain.Transaction, w filter.Window, now time.Time) bool {
	switch w {
	case filter.None:
		return true
	case filter.ThisMonth:
		return t.YearMonth() == now.Format("2006-01")
	case filter.LastMonth:
		prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return t.YearMonth() == prev.Format("2006-01")
	case filter.LastWeek:
		cutoff := now.AddDate(0, 0, -7).Format("2006-01-02")
		d := t.DateOnly()
		return d >= cutoff && d <= now.Format("2006-01-02")
	default:
		return true
	}
}

// Selection is the outcome of context selection for one query.
type Selection struct {
	Narrowed bool
	Chosen   []domain.Transaction
	Stats    Stats
}

// Stats summarizes the chosen records. Amounts are absolute values.
type Stats struct {
	TotalSpend  float64
	Average     float64
	Categories  []CategoryStat
	RecordCount int
}

// CategoryStat is one row of the per-category breakdown.
type CategoryStat struct {
	Name    string
	Total   float64
	Count   int
	Percent float64
}

// SelectContext narrows records by the filter, falling back to the full
// set when the filter matches nothing or everything. The chosen set is
// capped at the record budget before statistics are computed, so an
// over-broad filter can never blow up the prompt.
func (s *Service) SelectContext(records []domain.Transaction, f filter.Filter) Selection {
	filtered := s.Apply(records, f)

	chosen := records
	narrowed := false
	if len(filtered) > 0 && len(filtered) < len(records) {
		chosen = filtered
		narrowed = true
	}

	// Newest first, stable so equal dates keep source order.
	sorted := make([]domain.Transaction, len(chosen))
	copy(sorted, chosen)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateOnly() > sorted[j].DateOnly()
	})

	if len(sorted) > s.maxRecords {
		sorted = sorted[:s.maxRecords]
	}

	return Selection{
		Narrowed: narrowed,
		Chosen:   sorted,
		Stats:    computeStats(sorted),
	}
}

func computeStats(records []domain.Transaction) Stats {
	if len(records) == 0 {
		return Stats{}
	}

	var total float64
	byCategory := map[string]*CategoryStat{}
	var order []string

	for _, t := range records {
		amount := t.Amount
		if amount < 0 {
			amount = -amount
		}
		total += amount

		name := t.Category
		if name == "" {
			name = "Other"
		}
		cs, ok := byCategory[name]
		if !ok {
			cs = &CategoryStat{Name: name}
			byCategory[name] = cs
			order = append(order, name)
		}
		cs.Total += amount
		cs.Count++
	}

	categories := make([]CategoryStat, 0, len(order))
	for _, name := range order {
		cs := *byCategory[name]
		if total > 0 {
			cs.Percent = cs.Total / total * 100
		}
		categories = append(categories, cs)
	}
	// Descending by total; name breaks exact ties deterministically.
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Total != categories[j].Total {
			return categories[i].Total > categories[j].Total
		}
		return categories[i].Name < categories[j].Name
	})

	return Stats{
		TotalSpend:  total,
		Average:     total / float64(len(records)),
		Categories:  categories,
		RecordCount: len(records),
	}
}

// FormatTransactionContext renders the selection as the deterministic
// text block placed into the prompt.
func (s *Service) FormatTransactionContext(sel Selection) string {
	if len(sel.Chosen) == 0 {
		return "No transaction data available."
	}

	var b strings.Builder
	b.WriteString("Spending summary:\n")
	fmt.Fprintf(&b, "- Total spend: $%.2f across %d transactions\n", sel.Stats.TotalSpend, sel.Stats.RecordCount)
	fmt.Fprintf(&b, "- Average transaction: $%.2f\n", sel.Stats.Average)

	if len(sel.Stats.Categories) > 0 {
		b.WriteString("- By category:\n")
		for _, cs := range sel.Stats.Categories {
			fmt.Fprintf(&b, "  - %s: $%.2f (%.1f%%, %d transactions)\n", cs.Name, cs.Total, cs.Percent, cs.Count)
		}
	}

	b.WriteString("\nRecent transactions:\n")
	items := sel.Chosen
	if len(items) > s.lineItems {
		items = items[:s.lineItems]
	}
	for _, t := range items {
		fmt.Fprintf(&b, "- %s  %s  $%.2f  (%s)\n", t.DateOnly(), t.Name, t.Amount, t.Category)
	}

	return b.String()
}

// FormatDocumentContext joins retrieved document texts. Plain documents
// carry no statistics; retrieval already bounded the set to top-K.
func FormatDocumentContext(results []domain.RankedResult) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Content
	}
	return strings.Join(parts, "\n\n")
}
