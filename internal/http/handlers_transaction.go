package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type transactionRequest struct {
	CategoryID  int64           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        core.Kind       `json:"kind"`
	Date        core.Date       `json:"date"`
	Description string          `json:"description"`
}

type transactionResponse struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        core.Kind       `json:"kind"`
	Date        core.Date       `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount,
		Kind:        t.Kind,
		Date:        t.Date,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

func (req transactionRequest) toDomain() core.Transaction {
	return core.Transaction{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Kind:        req.Kind,
		Date:        req.Date,
		Description: req.Description,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	created, err := s.deps.Ledger.CreateTransaction(r.Context(), UserID(r.Context()), req.toDomain())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "transaction created", toTransactionResponse(created))
}

// transactionFilterFromQuery reads kind, category_id, from, to, limit and
// offset. Everything is optional.
func transactionFilterFromQuery(r *http.Request) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter
	q := r.URL.Query()

	if raw := q.Get("kind"); raw != "" {
		kind := core.Kind(raw)
		if !kind.Valid() {
			return f, fmt.Errorf("invalid kind %q: %w", raw, core.ErrValidation)
		}
		f.Kind = kind
	}
	if raw := q.Get("category_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return f, fmt.Errorf("invalid category_id %q: %w", raw, core.ErrValidation)
		}
		f.CategoryID = v
	}
	if raw := q.Get("from"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return f, err
		}
		f.From = d
	}
	if raw := q.Get("to"); raw != "" {
		d, err := core.ParseDate(raw)
		if err != nil {
			return f, err
		}
		f.To = d
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return f, fmt.Errorf("invalid limit %q: %w", raw, core.ErrValidation)
		}
		f.Limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return f, fmt.Errorf("invalid offset %q: %w", raw, core.ErrValidation)
		}
		f.Offset = v
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := transactionFilterFromQuery(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	txs, err := s.deps.Ledger.ListTransactions(r.Context(), UserID(r.Context()), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, "transactions", out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	tx, err := s.deps.Ledger.GetTransaction(r.Context(), UserID(r.Context()), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "transaction", toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	tx := req.toDomain()
	tx.ID = id
	updated, err := s.deps.Ledger.UpdateTransaction(r.Context(), UserID(r.Context()), tx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "transaction updated", toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.deps.Ledger.DeleteTransaction(r.Context(), UserID(r.Context()), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "transaction deleted", nil)
}
