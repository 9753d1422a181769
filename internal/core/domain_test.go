package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Amount: decimal.NewFromInt(10),
		Kind:   Expense,
		Date:   NewDate(2024, time.January, 15),
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"zero amount is allowed", func(tx *Transaction) { tx.Amount = decimal.Zero }, nil},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, ErrNegativeAmount},
		{"unknown kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		Amount:    decimal.NewFromInt(500),
		Period:    Monthly,
		StartDate: NewDate(2024, time.January, 1),
		EndDate:   NewDate(2024, time.January, 31),
	}

	tests := []struct {
		name    string
		mutate  func(*Budget)
		wantErr error
	}{
		{"valid", func(b *Budget) {}, nil},
		{"zero amount", func(b *Budget) { b.Amount = decimal.Zero }, ErrNonPositiveAmount},
		{"negative amount", func(b *Budget) { b.Amount = decimal.NewFromInt(-5) }, ErrNonPositiveAmount},
		{"unknown period", func(b *Budget) { b.Period = "daily" }, ErrInvalidPeriod},
		{"inverted window", func(b *Budget) { b.EndDate = NewDate(2023, time.December, 31) }, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := b.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	assert.NoError(t, Category{Name: "Groceries", Kind: Expense}.Validate())
	assert.ErrorIs(t, Category{Name: "  ", Kind: Expense}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, Category{Name: "Misc", Kind: "other"}.Validate(), ErrInvalidKind)
}

func TestPeriodKindDefaultEnd(t *testing.T) {
	start := NewDate(2024, time.March, 1)
	assert.Equal(t, NewDate(2024, time.March, 8), Weekly.DefaultEnd(start))
	assert.Equal(t, NewDate(2024, time.March, 31), Monthly.DefaultEnd(start))
	assert.Equal(t, NewDate(2025, time.March, 1), Yearly.DefaultEnd(start))
}

func TestErrorTaxonomy(t *testing.T) {
	// Every domain validation sentinel must classify as ErrValidation,
	// and the four taxonomy roots must stay distinct.
	for _, err := range []error{
		ErrNegativeAmount, ErrNonPositiveAmount, ErrInvalidKind,
		ErrInvalidPeriod, ErrInvalidRange, ErrKindMismatch,
		ErrNotExpenseCategory, ErrEmptyName,
	} {
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.False(t, errors.Is(ErrNotFound, ErrValidation))
	assert.False(t, errors.Is(ErrUnauthorized, ErrNotFound))
	assert.False(t, errors.Is(ErrStoreUnavailable, ErrNotFound))
}
