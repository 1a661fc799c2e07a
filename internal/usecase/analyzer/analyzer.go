// Package analyzer extracts coarse record filters from free-form queries.
package analyzer

import (
	"strings"

	"github.com/kailas-cloud/finrag/internal/domain/filter"
)

// categoryVocabulary is the fixed, ordered category list. When a query
// names several categories, the last vocabulary match wins. That rule is
// deliberate and covered by tests; changing it changes answer scoping.
var categoryVocabulary = []string{
	"Groceries",
	"Dining",
	"Entertainment",
	"Fitness",
	"Gas",
	"Insurance",
	"Shopping",
	"Travel",
	"Utilities",
}

// dateWindowPhrases maps query phrases to windows, checked in order.
// The first phrase group that matches wins.
var dateWindowPhrases = []struct {
	phrases []string
	window  filter.Window
}{
	{[]string{"last month", "previous month"}, filter.LastMonth},
	{[]string{"this month", "current month"}, filter.ThisMonth},
	{[]string{"last week"}, filter.LastWeek},
}

// Analyze derives a Filter from the query via case-insensitive substring
// matching. A query with no recognized phrases yields an empty filter.
func Analyze(query string) filter.Filter {
	q := strings.ToLower(query)

	category := ""
	for _, name := range categoryVocabulary {
		if strings.Contains(q, strings.ToLower(name)) {
			category = name
		}
	}

	window := filter.None
	for _, group := range dateWindowPhrases {
		for _, phrase := range group.phrases {
			if strings.Contains(q, phrase) {
				window = group.window
				break
			}
		}
		if window != filter.None {
			break
		}
	}

	return filter.New(category, window)
}
