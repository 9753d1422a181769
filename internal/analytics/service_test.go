package analytics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLedger wraps the real store to count how often the engine has
// to touch it; cache hits must not reach the ledger at all.
type countingLedger struct {
	*storage.Repository
	listCalls atomic.Int64
}

func (c *countingLedger) ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	c.listCalls.Add(1)
	return c.Repository.ListTransactions(ctx, userID, f)
}

func newTestService(t *testing.T) (*Service, *countingLedger, int64) {
	t.Helper()
	repo, err := storage.NewRepository(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(context.Background(), core.User{
		Email: "alice@example.com", Username: "alice", PasswordHash: "x",
	})
	require.NoError(t, err)

	counting := &countingLedger{Repository: repo}
	engine := NewEngine(counting)
	engine.now = func() time.Time {
		return time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)
	}
	svc := NewService(engine, NewLRUCaches(100, 5*time.Minute, 10*time.Minute, nil))
	return svc, counting, user.ID
}

func seedBudget(t *testing.T, repo *storage.Repository, userID int64) (core.Category, core.Budget) {
	t.Helper()
	ctx := context.Background()
	cat, err := repo.CreateCategory(ctx, core.Category{UserID: userID, Name: "Groceries", Kind: core.Expense})
	require.NoError(t, err)
	b, err := repo.CreateBudget(ctx, core.Budget{
		UserID:     userID,
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(500),
		Period:     core.Monthly,
		StartDate:  core.NewDate(2024, time.January, 1),
		EndDate:    core.NewDate(2024, time.January, 31),
	})
	require.NoError(t, err)
	return cat, b
}

func TestServiceSummaryMemoizes(t *testing.T) {
	svc, counting, userID := newTestService(t)
	ctx := context.Background()

	first, err := svc.Summary(ctx, userID, core.Window{})
	require.NoError(t, err)
	calls := counting.listCalls.Load()
	require.Greater(t, calls, int64(0))

	second, err := svc.Summary(ctx, userID, core.Window{})
	require.NoError(t, err)
	assert.Equal(t, calls, counting.listCalls.Load(), "cache hit must not touch the ledger")
	assert.Equal(t, first, second)
}

func TestServiceBudgetStatusIdempotentAndInvalidated(t *testing.T) {
	svc, counting, userID := newTestService(t)
	ctx := context.Background()
	cat, budget := seedBudget(t, counting.Repository, userID)

	_, err := counting.Repository.CreateTransaction(ctx, core.Transaction{
		UserID: userID, CategoryID: cat.ID,
		Amount: decimal.NewFromInt(200), Kind: core.Expense,
		Date: core.NewDate(2024, time.January, 5),
	})
	require.NoError(t, err)

	first, err := svc.BudgetStatus(ctx, userID, budget.ID)
	require.NoError(t, err)
	second, err := svc.BudgetStatus(ctx, userID, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeat reads without writes are identical")

	// A matching write plus synchronous invalidation must be visible
	// on the very next read.
	_, err = counting.Repository.CreateTransaction(ctx, core.Transaction{
		UserID: userID, CategoryID: cat.ID,
		Amount: decimal.NewFromInt(150), Kind: core.Expense,
		Date: core.NewDate(2024, time.January, 10),
	})
	require.NoError(t, err)
	svc.InvalidateUser(userID)

	third, err := svc.BudgetStatus(ctx, userID, budget.ID)
	require.NoError(t, err)
	assert.True(t, third.Spent.Equal(decimal.NewFromInt(350)), "spent = %s", third.Spent)
}

func TestServiceInvalidateUserIsScoped(t *testing.T) {
	svc, counting, userID := newTestService(t)
	ctx := context.Background()

	other, err := counting.Repository.CreateUser(ctx, core.User{
		Email: "bob@example.com", Username: "bob", PasswordHash: "x",
	})
	require.NoError(t, err)

	_, err = svc.Summary(ctx, userID, core.Window{})
	require.NoError(t, err)
	_, err = svc.Summary(ctx, other.ID, core.Window{})
	require.NoError(t, err)

	calls := counting.listCalls.Load()
	svc.InvalidateUser(userID)

	// Other user's entry survives the invalidation.
	_, err = svc.Summary(ctx, other.ID, core.Window{})
	require.NoError(t, err)
	assert.Equal(t, calls, counting.listCalls.Load())

	// Invalidated user recomputes.
	_, err = svc.Summary(ctx, userID, core.Window{})
	require.NoError(t, err)
	assert.Greater(t, counting.listCalls.Load(), calls)
}

func TestServiceBudgetStatusesPreservesOrder(t *testing.T) {
	svc, counting, userID := newTestService(t)
	ctx := context.Background()

	cat, err := counting.Repository.CreateCategory(ctx, core.Category{UserID: userID, Name: "Bills", Kind: core.Expense})
	require.NoError(t, err)

	var ids []int64
	for m := time.January; m <= time.March; m++ {
		b, err := counting.Repository.CreateBudget(ctx, core.Budget{
			UserID:     userID,
			CategoryID: cat.ID,
			Amount:     decimal.NewFromInt(int64(100 * int(m))),
			Period:     core.Monthly,
			StartDate:  core.NewDate(2024, m, 1),
			EndDate:    core.NewDate(2024, m, 28),
		})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	statuses, err := svc.BudgetStatuses(ctx, userID, ids)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for i, st := range statuses {
		assert.Equal(t, ids[i], st.BudgetID, "result order follows input order")
	}

	_, err = svc.BudgetStatuses(ctx, userID, []int64{ids[0], 9999})
	assert.ErrorIs(t, err, core.ErrNotFound, "one bad id fails the bulk call")
}

func TestServiceTrendTTLIsIndependent(t *testing.T) {
	repo, err := storage.NewRepository(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user, err := repo.CreateUser(ctx, core.User{Email: "alice@example.com", Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)

	counting := &countingLedger{Repository: repo}
	engine := NewEngine(counting)
	engine.now = func() time.Time {
		return time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)
	}
	// Trend entries get their own, here immediately expiring, TTL while
	// summaries keep the default one.
	svc := NewService(engine, NewLRUCaches(100, time.Minute, time.Nanosecond, nil))

	_, err = svc.Summary(ctx, user.ID, core.Window{})
	require.NoError(t, err)
	_, err = svc.MonthlyTrend(ctx, user.ID, 6)
	require.NoError(t, err)
	calls := counting.listCalls.Load()

	_, err = svc.Summary(ctx, user.ID, core.Window{})
	require.NoError(t, err)
	assert.Equal(t, calls, counting.listCalls.Load(), "summary still cached")

	_, err = svc.MonthlyTrend(ctx, user.ID, 6)
	require.NoError(t, err)
	assert.Greater(t, counting.listCalls.Load(), calls, "expired trend entry recomputes")
}

func TestServiceIdenticalWithNoopCaches(t *testing.T) {
	repo, err := storage.NewRepository(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user, err := repo.CreateUser(ctx, core.User{Email: "alice@example.com", Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	cat, budget := seedBudget(t, repo, user.ID)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		UserID: user.ID, CategoryID: cat.ID,
		Amount: decimal.NewFromInt(200), Kind: core.Expense,
		Date: core.NewDate(2024, time.January, 5),
	})
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC) }
	cachedEngine := NewEngine(repo)
	cachedEngine.now = now
	uncachedEngine := NewEngine(repo)
	uncachedEngine.now = now

	cached := NewService(cachedEngine, NewLRUCaches(100, time.Minute, time.Minute, nil))
	uncached := NewService(uncachedEngine, NewNoopCaches())

	a, err := cached.BudgetStatus(ctx, user.ID, budget.ID)
	require.NoError(t, err)
	b, err := uncached.BudgetStatus(ctx, user.ID, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, a, b, "cache presence must never change results")

	at, err := cached.MonthlyTrend(ctx, user.ID, 6)
	require.NoError(t, err)
	bt, err := uncached.MonthlyTrend(ctx, user.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, at, bt)
}

var _ cache.Cache[Summary] = cache.NewNoop[Summary]()
