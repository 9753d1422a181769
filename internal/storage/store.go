package storage

import (
	"fmt"

	"fintrack/internal/core"
)

// DefaultMaxRows bounds unbounded-range transaction queries so a single
// aggregation call cannot pull an arbitrary amount of work into memory.
const DefaultMaxRows = 10000

// TransactionFilter narrows a transaction listing. Zero values impose no
// constraint.
type TransactionFilter struct {
	Kind       core.Kind // "" matches both kinds
	CategoryID int64     // 0 matches every category
	From       core.Date // zero date leaves the range open
	To         core.Date
	Limit      int // 0 falls back to the repository row cap
	Offset     int
}

// storeError wraps a driver failure so callers can distinguish an
// unavailable ledger from missing data.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, core.ErrStoreUnavailable)
}
