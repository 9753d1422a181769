package analytics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"

	"golang.org/x/sync/errgroup"
)

const (
	opSummary      = "summary"
	opSpending     = "spending_by_category"
	opIncome       = "income_by_category"
	opTrend        = "monthly_trend"
	opBudgetStatus = "budget_status"

	// statusConcurrency bounds parallel budget evaluations in the bulk
	// status operation.
	statusConcurrency = 4
)

// Caches groups the typed caches backing the service. Any of them can be
// a Noop; the service behaves identically, just slower.
type Caches struct {
	Summaries  cache.Cache[Summary]
	Breakdowns cache.Cache[[]CategoryTotal]
	Trends     cache.Cache[[]MonthPoint]
	Statuses   cache.Cache[BudgetStatus]

	// TrendTTL overrides the trend cache's default TTL when positive.
	// Trend results change slowly, so they usually outlive the
	// per-window aggregates.
	TrendTTL time.Duration
}

// NewLRUCaches builds LRU-backed caches and registers them with the
// manager for periodic cleanup.
func NewLRUCaches(maxEntries int, ttl, trendTTL time.Duration, m *cache.Manager) Caches {
	summaries := cache.NewLRUCache[Summary](maxEntries, ttl)
	breakdowns := cache.NewLRUCache[[]CategoryTotal](maxEntries, ttl)
	trends := cache.NewLRUCache[[]MonthPoint](maxEntries, ttl)
	statuses := cache.NewLRUCache[BudgetStatus](maxEntries, ttl)
	if m != nil {
		m.Register(summaries)
		m.Register(breakdowns)
		m.Register(trends)
		m.Register(statuses)
	}
	return Caches{
		Summaries:  summaries,
		Breakdowns: breakdowns,
		Trends:     trends,
		Statuses:   statuses,
		TrendTTL:   trendTTL,
	}
}

// NewNoopCaches disables memoization without changing any contract.
func NewNoopCaches() Caches {
	return Caches{
		Summaries:  cache.NewNoop[Summary](),
		Breakdowns: cache.NewNoop[[]CategoryTotal](),
		Trends:     cache.NewNoop[[]MonthPoint](),
		Statuses:   cache.NewNoop[BudgetStatus](),
	}
}

// Service fronts the engine with per-user memoization. Keys normalize the
// query shape (operation plus resolved parameters) so equal queries share
// an entry; any ledger write for a user drops all of that user's entries.
type Service struct {
	engine *Engine
	caches Caches
}

func NewService(engine *Engine, caches Caches) *Service {
	return &Service{engine: engine, caches: caches}
}

func (s *Service) Summary(ctx context.Context, userID int64, win core.Window) (Summary, error) {
	w, err := s.engine.ResolveWindow(win)
	if err != nil {
		return Summary{}, err
	}
	key := cache.Key(userID, opSummary, w.Start.String(), w.End.String())
	if v, ok := s.caches.Summaries.Get(key); ok {
		slog.DebugContext(ctx, "Summary cache hit", "user_id", userID, "key", key)
		return v, nil
	}

	v, err := s.engine.Summary(ctx, userID, w)
	if err != nil {
		return Summary{}, err
	}
	s.caches.Summaries.Set(key, v)
	return v, nil
}

func (s *Service) SpendingByCategory(ctx context.Context, userID int64, win core.Window) ([]CategoryTotal, error) {
	return s.breakdown(ctx, userID, opSpending, win, s.engine.SpendingByCategory)
}

func (s *Service) IncomeByCategory(ctx context.Context, userID int64, win core.Window) ([]CategoryTotal, error) {
	return s.breakdown(ctx, userID, opIncome, win, s.engine.IncomeByCategory)
}

func (s *Service) breakdown(
	ctx context.Context,
	userID int64,
	op string,
	win core.Window,
	compute func(context.Context, int64, core.Window) ([]CategoryTotal, error),
) ([]CategoryTotal, error) {
	w, err := s.engine.ResolveWindow(win)
	if err != nil {
		return nil, err
	}
	key := cache.Key(userID, op, w.Start.String(), w.End.String())
	if v, ok := s.caches.Breakdowns.Get(key); ok {
		slog.DebugContext(ctx, "Breakdown cache hit", "user_id", userID, "key", key)
		return v, nil
	}

	v, err := compute(ctx, userID, w)
	if err != nil {
		return nil, err
	}
	s.caches.Breakdowns.Set(key, v)
	return v, nil
}

func (s *Service) MonthlyTrend(ctx context.Context, userID int64, months int) ([]MonthPoint, error) {
	months = ClampMonths(months)
	key := cache.Key(userID, opTrend, strconv.Itoa(months))
	if v, ok := s.caches.Trends.Get(key); ok {
		slog.DebugContext(ctx, "Trend cache hit", "user_id", userID, "key", key)
		return v, nil
	}

	v, err := s.engine.MonthlyTrend(ctx, userID, months)
	if err != nil {
		return nil, err
	}
	if s.caches.TrendTTL > 0 {
		s.caches.Trends.SetTTL(key, v, s.caches.TrendTTL)
	} else {
		s.caches.Trends.Set(key, v)
	}
	return v, nil
}

func (s *Service) BudgetStatus(ctx context.Context, userID, budgetID int64) (BudgetStatus, error) {
	key := cache.Key(userID, opBudgetStatus, strconv.FormatInt(budgetID, 10))
	if v, ok := s.caches.Statuses.Get(key); ok {
		slog.DebugContext(ctx, "Budget status cache hit", "user_id", userID, "budget_id", budgetID)
		return v, nil
	}

	v, err := s.engine.BudgetStatus(ctx, userID, budgetID)
	if err != nil {
		return BudgetStatus{}, err
	}
	s.caches.Statuses.Set(key, v)
	return v, nil
}

// BudgetStatuses evaluates several budgets concurrently, preserving the
// order of ids. One bad id fails the whole call so a partial dashboard is
// never mistaken for a complete one.
func (s *Service) BudgetStatuses(ctx context.Context, userID int64, ids []int64) ([]BudgetStatus, error) {
	out := make([]BudgetStatus, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			st, err := s.BudgetStatus(gctx, userID, id)
			if err != nil {
				return err
			}
			out[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// InvalidateUser drops every cached entry for the user. Called after any
// ledger write; over-invalidation only costs a recompute, staleness after
// a write is unacceptable.
func (s *Service) InvalidateUser(userID int64) {
	prefix := cache.UserPrefix(userID)
	removed := s.caches.Summaries.DeletePrefix(prefix) +
		s.caches.Breakdowns.DeletePrefix(prefix) +
		s.caches.Trends.DeletePrefix(prefix) +
		s.caches.Statuses.DeletePrefix(prefix)
	if removed > 0 {
		slog.Debug("Analytics cache invalidated", "user_id", userID, "entries_removed", removed)
	}
}
