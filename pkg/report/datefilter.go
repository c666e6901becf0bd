package report

import (
	"strings"
	"time"
)

// DateFilter selects a date range of the sales report.
type DateFilter string

const (
	FilterAll       DateFilter = "all"
	FilterToday     DateFilter = "today"
	FilterYesterday DateFilter = "yesterday"
	FilterMonth     DateFilter = "month"
)

// DateFilters lists the tokens in menu order.
func DateFilters() []DateFilter {
	return []DateFilter{FilterAll, FilterToday, FilterYesterday, FilterMonth}
}

// ParseDateFilter maps a token to a filter. Unknown or empty tokens mean all.
func ParseDateFilter(s string) DateFilter {
	switch f := DateFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterToday, FilterYesterday, FilterMonth:
		return f
	}
	return FilterAll
}

// Label is the menu caption.
func (f DateFilter) Label() string {
	switch f {
	case FilterToday:
		return "Dzisiaj"
	case FilterYesterday:
		return "Wczoraj"
	case FilterMonth:
		return "Ostatnie 30 dni"
	}
	return "Wszystkie"
}

// Range returns the half-open interval [from, to) selected by the filter.
// Bounds are UTC midnights derived from now; a zero bound is open.
//
//	today     [D, D+1)
//	yesterday [D-1, D)
//	month     [D-30, ∞)
func (f DateFilter) Range(now time.Time) (from, to time.Time) {
	u := now.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	switch f {
	case FilterToday:
		return day, day.AddDate(0, 0, 1)
	case FilterYesterday:
		return day.AddDate(0, 0, -1), day
	case FilterMonth:
		return day.AddDate(0, 0, -30), time.Time{}
	}
	return time.Time{}, time.Time{}
}
