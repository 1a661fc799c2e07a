package analyzer

import (
	"testing"

	"github.com/kailas-cloud/finrag/internal/domain/filter"
)

func TestAnalyzeCategory(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"simple match", "how much did I spend on groceries", "Groceries"},
		{"case insensitive", "my ENTERTAINMENT budget", "Entertainment"},
		{"no match", "how much did I spend overall", ""},
		{"substring inside word", "gasoline costs", "Gas"},
		// Two categories named: the later vocabulary entry wins.
		{"last vocabulary match wins", "groceries versus travel spending", "Travel"},
		{"last vocabulary match wins reversed", "travel versus groceries spending", "Travel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.query)
			if got.Category() != tt.want {
				t.Errorf("Analyze(%q).Category() = %q, want %q", tt.query, got.Category(), tt.want)
			}
		})
	}
}

func TestAnalyzeDateWindow(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  filter.Window
	}{
		{"last month", "what did I buy last month", filter.LastMonth},
		{"previous month", "spending in the previous month", filter.LastMonth},
		{"this month", "what about this month", filter.ThisMonth},
		{"current month", "current month total", filter.ThisMonth},
		{"last week", "dining out last week", filter.LastWeek},
		{"no window", "total spending", filter.None},
		// "last month" outranks "last week" regardless of position.
		{"precedence", "last week or last month", filter.LastMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.query)
			if got.Window() != tt.want {
				t.Errorf("Analyze(%q).Window() = %q, want %q", tt.query, got.Window(), tt.want)
			}
		})
	}
}

func TestAnalyzeEmptyFilter(t *testing.T) {
	got := Analyze("tell me something nice")
	if !got.IsEmpty() {
		t.Errorf("expected empty filter, got %+v", got)
	}
	if got.Amount() != nil {
		t.Error("amount predicate must never be populated")
	}
}

func TestAnalyzeCombined(t *testing.T) {
	got := Analyze("how much on dining last week?")
	if got.Category() != "Dining" {
		t.Errorf("category = %q", got.Category())
	}
	if got.Window() != filter.LastWeek {
		t.Errorf("window = %q", got.Window())
	}
}
