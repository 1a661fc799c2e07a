// Package filter holds the query-derived narrowing filter for transaction
// retrieval. Detection precedence lives in the analyzer; this package only
// models the result.
package filter

// Window is a coarse date window resolved relative to "now" at filter time.
type Window string

// Date windows, checked by the analyzer in this fixed priority order.
const (
	None      Window = ""
	LastMonth Window = "last_month"
	ThisMonth Window = "this_month"
	LastWeek  Window = "last_week"
)

// AmountPredicate is reserved for future amount-based narrowing. It is never
// populated or consumed by current logic.
type AmountPredicate struct {
	Min *float64
	Max *float64
}

// Filter narrows transaction candidates before context selection. A zero
// Filter means "no narrowing".
type Filter struct {
	category string
	window   Window
	amount   *AmountPredicate
}

// New creates a filter with a canonical category name and a date window.
func New(category string, window Window) Filter {
	return Filter{category: category, window: window}
}

// Category returns the canonical category name, "" when unset.
func (f Filter) Category() string { return f.category }

// Window returns the date window, None when unset.
func (f Filter) Window() Window { return f.window }

// Amount returns the reserved amount predicate, always nil today.
func (f Filter) Amount() *AmountPredicate { return f.amount }

// IsEmpty reports whether the filter narrows nothing.
func (f Filter) IsEmpty() bool {
	return f.category == "" && f.window == None && f.amount == nil
}
