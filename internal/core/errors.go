package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers classify failures with
// errors.Is against these sentinels; messages carry human-readable detail
// without exposing internals.
var (
	// ErrValidation marks malformed or semantically invalid input.
	// Never retried automatically.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks an absent entity or one owned by a different user.
	// Both cases are reported identically to avoid existence leakage.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks a missing or unresolved principal. Queries
	// fail closed rather than defaulting to all users.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreUnavailable marks a transient ledger store failure. Retry
	// policy belongs to the caller, not this package.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Domain-specific validation failures. Each wraps ErrValidation so callers
// can match either the specific condition or the broad class.
var (
	ErrNegativeAmount     = fmt.Errorf("amount must not be negative: %w", ErrValidation)
	ErrNonPositiveAmount  = fmt.Errorf("amount must be positive: %w", ErrValidation)
	ErrInvalidKind        = fmt.Errorf("kind must be income or expense: %w", ErrValidation)
	ErrInvalidPeriod      = fmt.Errorf("period must be weekly, monthly or yearly: %w", ErrValidation)
	ErrInvalidRange       = fmt.Errorf("end date before start date: %w", ErrValidation)
	ErrKindMismatch       = fmt.Errorf("transaction kind does not match category kind: %w", ErrValidation)
	ErrNotExpenseCategory = fmt.Errorf("budget category must be an expense category: %w", ErrValidation)
	ErrEmptyName          = fmt.Errorf("name must not be empty: %w", ErrValidation)
)
