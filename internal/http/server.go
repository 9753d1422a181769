// Package http exposes the JSON API: auth, ledger CRUD and the analytics
// read side. Handlers stay thin; semantics live in the service layer.
package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// DefaultRateLimit is the per-IP request budget per minute.
const DefaultRateLimit = 60

// Deps carries everything the server needs. Store is used only for the
// readiness probe.
type Deps struct {
	Auth      *auth.Service
	Tokens    *auth.TokenManager
	Ledger    *services.LedgerService
	Analytics *analytics.Service
	Store     *storage.Repository
}

type Server struct {
	http.Server
	deps        Deps
	rateLimiter *rateLimiter
}

// NewServer builds the server with its full middleware chain. rateLimit
// is requests per minute per client IP; 0 applies the default.
func NewServer(addr string, rateLimit int, deps Deps) *Server {
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}

	s := &Server{
		deps:        deps,
		rateLimiter: newRateLimiter(rateLimit),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(s.rateLimiter)(handler)
	handler = securityHeadersMiddleware(handler)
	handler = traceMiddleware(handler)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	protect := authMiddleware(s.deps.Tokens)
	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(h))
	}

	authed("POST /categories", s.handleCreateCategory)
	authed("GET /categories", s.handleListCategories)
	authed("GET /categories/{id}", s.handleGetCategory)
	authed("PUT /categories/{id}", s.handleUpdateCategory)
	authed("DELETE /categories/{id}", s.handleDeleteCategory)

	authed("POST /transactions", s.handleCreateTransaction)
	authed("GET /transactions", s.handleListTransactions)
	authed("GET /transactions/{id}", s.handleGetTransaction)
	authed("PUT /transactions/{id}", s.handleUpdateTransaction)
	authed("DELETE /transactions/{id}", s.handleDeleteTransaction)

	authed("POST /budgets", s.handleCreateBudget)
	authed("GET /budgets", s.handleListBudgets)
	authed("GET /budgets/{id}", s.handleGetBudget)
	authed("PUT /budgets/{id}", s.handleUpdateBudget)
	authed("DELETE /budgets/{id}", s.handleDeleteBudget)
	authed("GET /budgets/{id}/status", s.handleBudgetStatus)
	authed("POST /budgets/status", s.handleBudgetStatuses)

	authed("GET /analytics/summary", s.handleSummary)
	authed("GET /analytics/spending-by-category", s.handleSpendingByCategory)
	authed("GET /analytics/income-by-category", s.handleIncomeByCategory)
	authed("GET /analytics/monthly-trend", s.handleMonthlyTrend)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "ok", nil)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "ready", nil)
}

// Shutdown drains in-flight requests and stops the rate limiter's
// cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}
