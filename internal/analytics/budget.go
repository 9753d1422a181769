package analytics

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the point-in-time consumption view for one budget.
// It is recomputed from the ledger on every request and never persisted.
type BudgetStatus struct {
	BudgetID       int64           `json:"budget_id"`
	BudgetAmount   decimal.Decimal `json:"budget_amount"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentage_used"`
	IsExceeded     bool            `json:"is_exceeded"`
	Period         core.PeriodKind `json:"period"`
	StartDate      core.Date       `json:"start_date"`
	EndDate        core.Date       `json:"end_date"`
}

// BudgetStatus evaluates one budget against the expenses recorded in its
// literal window. Unknown or foreign budget ids surface as ErrNotFound.
func (e *Engine) BudgetStatus(ctx context.Context, userID, budgetID int64) (BudgetStatus, error) {
	b, err := e.ledger.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("budget status: %w", err)
	}

	win, err := b.Window()
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("budget %d window: %w", budgetID, err)
	}

	spent, err := e.Sum(ctx, userID, storage.TransactionFilter{
		Kind:       core.Expense,
		CategoryID: b.CategoryID,
		From:       win.Start,
		To:         win.End,
	})
	if err != nil {
		return BudgetStatus{}, err
	}

	// A zero-amount budget is degenerate but valid; report 0% used
	// instead of dividing by zero.
	percentage := decimal.Zero
	if b.Amount.IsPositive() {
		percentage = spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return BudgetStatus{
		BudgetID:       b.ID,
		BudgetAmount:   b.Amount,
		Spent:          spent,
		Remaining:      b.Amount.Sub(spent),
		PercentageUsed: percentage,
		IsExceeded:     spent.GreaterThan(b.Amount),
		Period:         b.Period,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
	}, nil
}
