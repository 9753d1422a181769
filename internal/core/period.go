package core

import "time"

// Window is a closed calendar-date interval [Start, End] over which a
// budget's consumption or an analytics query is measured.
type Window struct {
	Start Date
	End   Date
}

// NewWindow builds a window from explicit bounds, rejecting inverted
// ranges with ErrInvalidRange.
func NewWindow(start, end Date) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, ErrInvalidRange
	}
	if end.Before(start.Time) {
		return Window{}, ErrInvalidRange
	}
	return Window{Start: start, End: end}, nil
}

// IsZero reports whether no bounds were supplied.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether d falls inside the window, bounds included.
func (w Window) Contains(d Date) bool {
	if d.Before(w.Start.Time) {
		return false
	}
	return !d.After(w.End.Time)
}

// MonthWindow returns the window covering the full calendar month that
// contains t. Analytics queries without explicit bounds default to the
// current month.
func MonthWindow(t time.Time) Window {
	start := NewDate(t.Year(), t.Month(), 1)
	end := Date{Time: start.AddDate(0, 1, 0).AddDate(0, 0, -1)}
	return Window{Start: start, End: end}
}
