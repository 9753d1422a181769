package http

import (
	"net/http"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	win, err := windowFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	summary, err := s.deps.Analytics.Summary(r.Context(), UserID(r.Context()), win)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "summary", summary)
}

func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	win, err := windowFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	totals, err := s.deps.Analytics.SpendingByCategory(r.Context(), UserID(r.Context()), win)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "spending by category", totals)
}

func (s *Server) handleIncomeByCategory(w http.ResponseWriter, r *http.Request) {
	win, err := windowFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	totals, err := s.deps.Analytics.IncomeByCategory(r.Context(), UserID(r.Context()), win)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "income by category", totals)
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	months, err := monthsFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	trend, err := s.deps.Analytics.MonthlyTrend(r.Context(), UserID(r.Context()), months)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "monthly trend", trend)
}
