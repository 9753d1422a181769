package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Weekly  PeriodKind = "weekly"
	Monthly PeriodKind = "monthly"
	Yearly  PeriodKind = "yearly"
)

type (
	// Kind classifies a category or transaction as income or expense.
	Kind string

	// PeriodKind labels a budget's cadence. It is display metadata used
	// to suggest an end date at creation time; the stored start and end
	// dates remain authoritative for the measured window.
	PeriodKind string

	// User is the identity principal that owns every other entity.
	User struct {
		ID           int64
		Email        string
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Category is a named grouping of transactions with a fixed kind.
	Category struct {
		ID     int64
		UserID int64
		Name   string
		Kind   Kind
	}

	// Transaction is a dated monetary event. Amounts are exact decimals
	// and always non-negative; the kind carries the sign semantics.
	Transaction struct {
		ID          int64
		UserID      int64
		CategoryID  int64
		Amount      decimal.Decimal
		Kind        Kind
		Date        Date
		Description string
		CreatedAt   time.Time
	}

	// Budget caps spending for one expense category over the literal
	// [StartDate, EndDate] window.
	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Amount     decimal.Decimal
		Period     PeriodKind
		StartDate  Date
		EndDate    Date
	}
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Valid reports whether the period kind is one of the known values.
func (p PeriodKind) Valid() bool {
	return p == Weekly || p == Monthly || p == Yearly
}

// DefaultEnd suggests an end date for a new budget starting at start.
// It is a creation-time convenience only and is never recomputed once
// the budget is stored.
func (p PeriodKind) DefaultEnd(start Date) Date {
	switch p {
	case Weekly:
		return start.AddDays(7)
	case Yearly:
		return start.AddDays(365)
	default:
		return start.AddDays(30)
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Date.IsZero() {
		return ErrInvalidRange
	}
	return nil
}

func (b Budget) Validate() error {
	if !b.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	if _, err := b.Window(); err != nil {
		return err
	}
	return nil
}

// Window resolves the budget's literal measurement window. It fails fast
// when the stored bounds are inverted rather than producing an empty
// interval.
func (b Budget) Window() (Window, error) {
	return NewWindow(b.StartDate, b.EndDate)
}
