// Package analysis computes spending statistics over the full
// transaction set for the dashboard-style analysis endpoint.
package analysis

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/finrag/internal/domain"
)

// Source reads the full transaction set.
type Source interface {
	All(ctx context.Context) ([]domain.Transaction, error)
}

// CategoryTotal is the per-category slice of the breakdown.
type CategoryTotal struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// MerchantStat is one entry of the top-merchant list.
type MerchantStat struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// Report is the full spending analysis. Amounts are absolute values.
type Report struct {
	TotalSpending      float64                  `json:"total_spending"`
	AverageTransaction float64                  `json:"average_transaction"`
	CategoryBreakdown  map[string]CategoryTotal `json:"category_breakdown"`
	MonthlySpending    map[string]float64       `json:"monthly_spending"`
	TopMerchants       []MerchantStat           `json:"top_merchants"`
	TotalTransactions  int                      `json:"total_transactions"`
}

// topMerchantLimit caps the merchant list.
const topMerchantLimit = 10

// Service computes spending reports.
type Service struct {
	source Source
}

// New creates an analysis service.
func New(source Source) *Service {
	return &Service{source: source}
}

// Build loads all transactions and computes the report. An empty store
// yields a zero report, not an error.
func (s *Service) Build(ctx context.Context) (Report, error) {
	records, err := s.source.All(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load transactions: %w", err)
	}
	return Compute(records), nil
}

// Compute derives the report from an in-memory record set.
func Compute(records []domain.Transaction) Report {
	report := Report{
		CategoryBreakdown: map[string]CategoryTotal{},
		MonthlySpending:   map[string]float64{},
		TopMerchants:      []MerchantStat{},
	}
	if len(records) == 0 {
		return report
	}

	merchantTotals := map[string]*MerchantStat{}
	var merchantOrder []string

	for _, t := range records {
		amount := t.Amount
		if amount < 0 {
			amount = -amount
		}
		report.TotalSpending += amount

		category := t.Category
		if category == "" {
			category = "Other"
		}
		ct := report.CategoryBreakdown[category]
		ct.Total += amount
		ct.Count++
		report.CategoryBreakdown[category] = ct

		if ym := t.YearMonth(); ym != "" {
			report.MonthlySpending[ym] += amount
		}

		ms, ok := merchantTotals[t.Name]
		if !ok {
			ms = &MerchantStat{Name: t.Name}
			merchantTotals[t.Name] = ms
			merchantOrder = append(merchantOrder, t.Name)
		}
		ms.Total += amount
		ms.Count++
	}

	report.TotalTransactions = len(records)
	report.AverageTransaction = report.TotalSpending / float64(len(records))

	merchants := make([]MerchantStat, 0, len(merchantOrder))
	for _, name := range merchantOrder {
		merchants = append(merchants, *merchantTotals[name])
	}
	sort.SliceStable(merchants, func(i, j int) bool {
		if merchants[i].Total != merchants[j].Total {
			return merchants[i].Total > merchants[j].Total
		}
		return merchants[i].Name < merchants[j].Name
	})
	if len(merchants) > topMerchantLimit {
		merchants = merchants[:topMerchantLimit]
	}
	report.TopMerchants = merchants

	return report
}
