// Package analytics computes derived views over a user's ledger: period
// summaries, category breakdowns, monthly trends and budget statuses.
// Everything here is a read-time projection; nothing is persisted, so the
// results can never drift from the transaction history.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/shopspring/decimal"
)

const (
	// DefaultTrendMonths is used when a trend request omits the count.
	DefaultTrendMonths = 6
	// MaxTrendMonths caps how far back a single trend query may reach.
	MaxTrendMonths = 24
)

// Ledger is the slice of the store the engine reads from. All queries are
// filtered by the owning user on the store side.
type Ledger interface {
	ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error)
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
}

type (
	// Summary is the income/expense/balance view for one window.
	Summary struct {
		StartDate     core.Date       `json:"start_date"`
		EndDate       core.Date       `json:"end_date"`
		TotalIncome   decimal.Decimal `json:"total_income"`
		TotalExpenses decimal.Decimal `json:"total_expenses"`
		Balance       decimal.Decimal `json:"balance"`
		SavingsRate   decimal.Decimal `json:"savings_rate"`
	}

	// CategoryTotal is one row of a per-category breakdown.
	CategoryTotal struct {
		CategoryID   int64           `json:"category_id"`
		CategoryName string          `json:"category_name"`
		Total        decimal.Decimal `json:"total"`
	}

	// MonthPoint is one bucket of a monthly trend, labeled "YYYY-MM".
	MonthPoint struct {
		Month   string          `json:"month"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}
)

// Engine aggregates transactions with exact decimal arithmetic.
type Engine struct {
	ledger Ledger
	now    func() time.Time
}

func NewEngine(ledger Ledger) *Engine {
	return &Engine{ledger: ledger, now: time.Now}
}

// ResolveWindow validates an explicit window or defaults to the current
// calendar month when none was supplied.
func (e *Engine) ResolveWindow(win core.Window) (core.Window, error) {
	if win.IsZero() {
		return core.MonthWindow(e.now()), nil
	}
	return core.NewWindow(win.Start, win.End)
}

// ClampMonths normalizes a trend month count into [1, MaxTrendMonths],
// falling back to the default when the count is absent.
func ClampMonths(months int) int {
	if months <= 0 {
		return DefaultTrendMonths
	}
	if months > MaxTrendMonths {
		return MaxTrendMonths
	}
	return months
}

// Sum totals the amounts of all transactions matching the filter. Absent
// filter fields impose no constraint.
func (e *Engine) Sum(ctx context.Context, userID int64, f storage.TransactionFilter) (decimal.Decimal, error) {
	txs, err := e.ledger.ListTransactions(ctx, userID, f)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total, nil
}

// Summary computes total income, total expenses, balance and savings rate
// over the window. savings_rate is 0 when there is no income.
func (e *Engine) Summary(ctx context.Context, userID int64, win core.Window) (Summary, error) {
	w, err := e.ResolveWindow(win)
	if err != nil {
		return Summary{}, err
	}

	income, err := e.Sum(ctx, userID, storage.TransactionFilter{Kind: core.Income, From: w.Start, To: w.End})
	if err != nil {
		return Summary{}, err
	}
	expenses, err := e.Sum(ctx, userID, storage.TransactionFilter{Kind: core.Expense, From: w.Start, To: w.End})
	if err != nil {
		return Summary{}, err
	}

	balance := income.Sub(expenses)
	savingsRate := decimal.Zero
	if income.IsPositive() {
		savingsRate = balance.Div(income).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return Summary{
		StartDate:     w.Start,
		EndDate:       w.End,
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       balance,
		SavingsRate:   savingsRate,
	}, nil
}

// SpendingByCategory breaks down expenses per category over the window,
// sorted descending by total. Categories without matching transactions
// are omitted.
func (e *Engine) SpendingByCategory(ctx context.Context, userID int64, win core.Window) ([]CategoryTotal, error) {
	return e.breakdown(ctx, userID, core.Expense, win)
}

// IncomeByCategory is the income counterpart of SpendingByCategory.
func (e *Engine) IncomeByCategory(ctx context.Context, userID int64, win core.Window) ([]CategoryTotal, error) {
	return e.breakdown(ctx, userID, core.Income, win)
}

func (e *Engine) breakdown(ctx context.Context, userID int64, kind core.Kind, win core.Window) ([]CategoryTotal, error) {
	w, err := e.ResolveWindow(win)
	if err != nil {
		return nil, err
	}

	cats, err := e.ledger.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	txs, err := e.ledger.ListTransactions(ctx, userID, storage.TransactionFilter{
		Kind: kind,
		From: w.Start,
		To:   w.End,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	totals := make(map[int64]decimal.Decimal)
	for _, t := range txs {
		totals[t.CategoryID] = totals[t.CategoryID].Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for id, total := range totals {
		out = append(out, CategoryTotal{CategoryID: id, CategoryName: names[id], Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out, nil
}

// MonthlyTrend buckets the trailing months of activity by calendar month,
// oldest to newest. The result always has exactly the requested number of
// entries; months without transactions appear with zero totals so chart
// consumers need no gap-filling.
func (e *Engine) MonthlyTrend(ctx context.Context, userID int64, months int) ([]MonthPoint, error) {
	months = ClampMonths(months)

	now := e.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	win := core.Window{
		Start: core.NewDate(first.Year(), first.Month(), 1),
		End:   core.MonthWindow(now).End,
	}

	txs, err := e.ledger.ListTransactions(ctx, userID, storage.TransactionFilter{From: win.Start, To: win.End})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	type bucket struct{ income, expense decimal.Decimal }
	buckets := make(map[string]*bucket, months)
	points := make([]MonthPoint, 0, months)
	for i := 0; i < months; i++ {
		label := first.AddDate(0, i, 0).Format("2006-01")
		buckets[label] = &bucket{income: decimal.Zero, expense: decimal.Zero}
		points = append(points, MonthPoint{Month: label})
	}

	for _, t := range txs {
		b, ok := buckets[t.Date.Format("2006-01")]
		if !ok {
			continue
		}
		if t.Kind == core.Income {
			b.income = b.income.Add(t.Amount)
		} else {
			b.expense = b.expense.Add(t.Amount)
		}
	}

	for i := range points {
		b := buckets[points[i].Month]
		points[i].Income = b.income
		points[i].Expense = b.expense
		points[i].Balance = b.income.Sub(b.expense)
	}
	return points, nil
}
