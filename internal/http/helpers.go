package http

import (
	"fmt"
	"net/http"
	"strconv"

	"fintrack/internal/core"
)

func errBadBody(err error) error {
	return fmt.Errorf("malformed request body: %v: %w", err, core.ErrValidation)
}

var errHalfWindow = fmt.Errorf("both start_date and end_date are required: %w", core.ErrValidation)

// pathID parses the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: %w", raw, core.ErrValidation)
	}
	return id, nil
}

// windowFromQuery reads the optional start_date and end_date parameters.
// Both absent leaves the window zero and downstream resolution defaults
// to the current month; supplying only one bound is rejected outright.
func windowFromQuery(r *http.Request) (core.Window, error) {
	var win core.Window
	q := r.URL.Query()

	if raw := q.Get("start_date"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return core.Window{}, err
		}
		win.Start = d
	}
	if raw := q.Get("end_date"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return core.Window{}, err
		}
		win.End = d
	}
	if win.Start.IsZero() != win.End.IsZero() {
		return core.Window{}, errHalfWindow
	}
	return win, nil
}

// monthsFromQuery reads the optional months parameter; 0 means "use the
// default".
func monthsFromQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("months")
	if raw == "" {
		return 0, nil
	}
	months, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid months %q: %w", raw, core.ErrValidation)
	}
	return months, nil
}
