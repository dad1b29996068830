package core

import (
	"strings"
	"time"
)

// monthLayout is the expected month selector form, e.g. "2022-03".
const monthLayout = "2006-01"

// MonthWindow is a half-open interval [Start, End) spanning exactly one
// calendar month, in UTC.
type MonthWindow struct {
	Start time.Time
	End   time.Time
}

// ResolveMonthWindow turns a month selector into its date window.
// December rolls over into January of the next year. An unparsable selector
// is rejected with a ValidationError instead of silently matching nothing.
func ResolveMonthWindow(selector string) (MonthWindow, error) {
	t, err := time.Parse(monthLayout, strings.TrimSpace(selector))
	if err != nil {
		return MonthWindow{}, &ValidationError{Field: "month", Reason: `want "YYYY-MM"`}
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthWindow{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// Contains reports whether ts falls inside the window.
func (w MonthWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}
