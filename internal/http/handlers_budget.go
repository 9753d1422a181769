package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type budgetRequest struct {
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Period     core.PeriodKind `json:"period"`
	StartDate  core.Date       `json:"start_date"`
	EndDate    core.Date       `json:"end_date"`
}

type budgetResponse struct {
	ID         int64           `json:"id"`
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Period     core.PeriodKind `json:"period"`
	StartDate  core.Date       `json:"start_date"`
	EndDate    core.Date       `json:"end_date"`
}

type budgetStatusesRequest struct {
	IDs []int64 `json:"ids"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Amount:     b.Amount,
		Period:     b.Period,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
	}
}

func (req budgetRequest) toDomain() core.Budget {
	return core.Budget{
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.deps.Ledger.CreateBudget(r.Context(), UserID(r.Context()), req.toDomain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "budget created", toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.deps.Ledger.ListBudgets(r.Context(), UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, "budgets", out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	b, err := s.deps.Ledger.GetBudget(r.Context(), UserID(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "budget", toBudgetResponse(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	b := req.toDomain()
	b.ID = id
	updated, err := s.deps.Ledger.UpdateBudget(r.Context(), UserID(r.Context()), b)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "budget updated", toBudgetResponse(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.deps.Ledger.DeleteBudget(r.Context(), UserID(r.Context()), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "budget deleted", nil)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	status, err := s.deps.Analytics.BudgetStatus(r.Context(), UserID(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "budget status", status)
}

func (s *Server) handleBudgetStatuses(w http.ResponseWriter, r *http.Request) {
	var req budgetStatusesRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	statuses, err := s.deps.Analytics.BudgetStatuses(r.Context(), UserID(r.Context()), req.IDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "budget statuses", statuses)
}
