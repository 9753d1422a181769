package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	events []*amqp.LedgerEvent
	err    error
}

func (f *fakePublisher) PublishLedgerEvent(_ context.Context, e *amqp.LedgerEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

type fixture struct {
	svc       *LedgerService
	analytics *analytics.Service
	publisher *fakePublisher
	userID    int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo, err := storage.NewRepository(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(context.Background(), core.User{
		Email: "alice@example.com", Username: "alice", PasswordHash: "x",
	})
	require.NoError(t, err)

	an := analytics.NewService(
		analytics.NewEngine(repo),
		analytics.NewLRUCaches(100, time.Minute, time.Minute, nil),
	)
	publisher := &fakePublisher{}
	return fixture{
		svc:       NewLedgerService(repo, an, publisher),
		analytics: an,
		publisher: publisher,
		userID:    user.ID,
	}
}

func (f fixture) expenseCategory(t *testing.T, name string) core.Category {
	t.Helper()
	cat, err := f.svc.CreateCategory(context.Background(), f.userID, core.Category{Name: name, Kind: core.Expense})
	require.NoError(t, err)
	return cat
}

func TestCreateTransactionKindMustMatchCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.expenseCategory(t, "Groceries")

	_, err := f.svc.CreateTransaction(ctx, f.userID, core.Transaction{
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(50),
		Kind:       core.Income,
		Date:       core.NewDate(2024, time.January, 5),
	})
	assert.ErrorIs(t, err, core.ErrKindMismatch)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCreateTransactionForeignCategoryIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTransaction(ctx, f.userID, core.Transaction{
		CategoryID: 999,
		Amount:     decimal.NewFromInt(50),
		Kind:       core.Expense,
		Date:       core.NewDate(2024, time.January, 5),
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCreateBudgetRequiresExpenseCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	salary, err := f.svc.CreateCategory(ctx, f.userID, core.Category{Name: "Salary", Kind: core.Income})
	require.NoError(t, err)

	_, err = f.svc.CreateBudget(ctx, f.userID, core.Budget{
		CategoryID: salary.ID,
		Amount:     decimal.NewFromInt(500),
		Period:     core.Monthly,
		StartDate:  core.NewDate(2024, time.January, 1),
		EndDate:    core.NewDate(2024, time.January, 31),
	})
	assert.ErrorIs(t, err, core.ErrNotExpenseCategory)
}

func TestCreateBudgetDerivesEndDateFromPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.expenseCategory(t, "Groceries")

	b, err := f.svc.CreateBudget(ctx, f.userID, core.Budget{
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(500),
		Period:     core.Weekly,
		StartDate:  core.NewDate(2024, time.March, 1),
	})
	require.NoError(t, err)
	assert.True(t, b.EndDate.Equal(core.NewDate(2024, time.March, 8)), "end = %s", b.EndDate)
}

func TestWritesInvalidateCachedAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.expenseCategory(t, "Groceries")
	b, err := f.svc.CreateBudget(ctx, f.userID, core.Budget{
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(500),
		Period:     core.Monthly,
		StartDate:  core.NewDate(2024, time.January, 1),
		EndDate:    core.NewDate(2024, time.December, 31),
	})
	require.NoError(t, err)

	// Prime the cache.
	before, err := f.analytics.BudgetStatus(ctx, f.userID, b.ID)
	require.NoError(t, err)
	assert.True(t, before.Spent.IsZero())

	_, err = f.svc.CreateTransaction(ctx, f.userID, core.Transaction{
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(120),
		Kind:       core.Expense,
		Date:       core.NewDate(2024, time.June, 10),
	})
	require.NoError(t, err)

	after, err := f.analytics.BudgetStatus(ctx, f.userID, b.ID)
	require.NoError(t, err)
	assert.True(t, after.Spent.Equal(decimal.NewFromInt(120)),
		"write must be visible immediately, got spent=%s", after.Spent)
}

func TestWritesPublishLedgerEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.expenseCategory(t, "Groceries")

	tx, err := f.svc.CreateTransaction(ctx, f.userID, core.Transaction{
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(50),
		Kind:       core.Expense,
		Date:       core.NewDate(2024, time.January, 5),
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteTransaction(ctx, f.userID, tx.ID))

	require.Len(t, f.publisher.events, 3)
	assert.Equal(t, amqp.EntityCategory, f.publisher.events[0].Entity)
	assert.Equal(t, amqp.ActionCreated, f.publisher.events[1].Action)
	assert.Equal(t, amqp.ActionDeleted, f.publisher.events[2].Action)
	assert.Equal(t, tx.ID, f.publisher.events[2].EntityID)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.CreateCategory(context.Background(), f.userID, core.Category{Name: "Rent", Kind: core.Expense})
	assert.NoError(t, err, "the durable write wins; the event is best effort")
}

func TestNilPublisherSkipsEvents(t *testing.T) {
	repo, err := storage.NewRepository(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	user, err := repo.CreateUser(context.Background(), core.User{Email: "b@example.com", Username: "b", PasswordHash: "x"})
	require.NoError(t, err)
	an := analytics.NewService(analytics.NewEngine(repo), analytics.NewNoopCaches())

	quiet := NewLedgerService(repo, an, nil)
	_, err = quiet.CreateCategory(context.Background(), user.ID, core.Category{Name: "Food", Kind: core.Expense})
	assert.NoError(t, err)
}

func TestUpdateCategoryKindIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.expenseCategory(t, "Groceries")

	_, err := f.svc.UpdateCategory(ctx, f.userID, core.Category{ID: cat.ID, Name: "Food", Kind: core.Income})
	assert.ErrorIs(t, err, core.ErrValidation)

	renamed, err := f.svc.UpdateCategory(ctx, f.userID, core.Category{ID: cat.ID, Name: "Food"})
	require.NoError(t, err)
	assert.Equal(t, core.Expense, renamed.Kind, "omitted kind keeps the stored one")
	assert.Equal(t, "Food", renamed.Name)
}

func TestDeleteCategoryCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.expenseCategory(t, "Groceries")

	tx, err := f.svc.CreateTransaction(ctx, f.userID, core.Transaction{
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(50),
		Kind:       core.Expense,
		Date:       core.NewDate(2024, time.January, 5),
	})
	require.NoError(t, err)
	b, err := f.svc.CreateBudget(ctx, f.userID, core.Budget{
		CategoryID: cat.ID,
		Amount:     decimal.NewFromInt(500),
		Period:     core.Monthly,
		StartDate:  core.NewDate(2024, time.January, 1),
		EndDate:    core.NewDate(2024, time.January, 31),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteCategory(ctx, f.userID, cat.ID))

	_, err = f.svc.GetTransaction(ctx, f.userID, tx.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.svc.GetBudget(ctx, f.userID, b.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
