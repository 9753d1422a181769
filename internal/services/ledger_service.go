// Package services orchestrates ledger writes: validation and ownership
// checks, the durable write, cache invalidation and the change event, in
// that order.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// EventPublisher is the slice of the AMQP client the service needs.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

var errKindImmutable = fmt.Errorf("category kind is immutable: %w", core.ErrValidation)

// LedgerService coordinates ledger writes across the store, the analytics
// caches and the event stream. The store write is authoritative: cache
// invalidation is synchronous, event publishing is best effort.
type LedgerService struct {
	store     *storage.Repository
	analytics *analytics.Service
	events    EventPublisher
}

// NewLedgerService wires the service. events may be nil when no broker is
// configured; writes then skip publishing.
func NewLedgerService(store *storage.Repository, analytics *analytics.Service, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, analytics: analytics, events: events}
}

// afterWrite runs the post-commit sequence: drop the user's cached
// analytics, then announce the change. A publish failure is logged and
// swallowed; the write already succeeded.
func (s *LedgerService) afterWrite(ctx context.Context, userID int64, entity, action string, entityID int64) {
	s.analytics.InvalidateUser(userID)

	if s.events == nil {
		return
	}
	event := amqp.NewLedgerEvent(userID, entity, action, entityID)
	if err := s.events.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"user_id", userID, "entity", entity, "action", action, "error", err)
	}
}

// --- categories ---

func (s *LedgerService) CreateCategory(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	c.UserID = userID
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.afterWrite(ctx, userID, amqp.EntityCategory, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, userID, id)
}

func (s *LedgerService) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

// UpdateCategory renames a category. The kind is immutable; changing it
// would silently break the kind match of every existing transaction.
func (s *LedgerService) UpdateCategory(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	c.UserID = userID
	existing, err := s.store.GetCategory(ctx, userID, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if c.Kind == "" {
		c.Kind = existing.Kind
	}
	if c.Kind != existing.Kind {
		return core.Category{}, errKindImmutable
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	s.afterWrite(ctx, userID, amqp.EntityCategory, amqp.ActionUpdated, c.ID)
	return c, nil
}

// DeleteCategory removes the category together with its transactions and
// budgets in one transaction.
func (s *LedgerService) DeleteCategory(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.afterWrite(ctx, userID, amqp.EntityCategory, amqp.ActionDeleted, id)
	return nil
}

// --- transactions ---

// CreateTransaction records a monetary event. The category must belong to
// the same user and carry the same kind as the transaction.
func (s *LedgerService) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkTransactionCategory(ctx, userID, t); err != nil {
		return core.Transaction{}, err
	}
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.afterWrite(ctx, userID, amqp.EntityTransaction, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkTransactionCategory(ctx, userID, t); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	s.afterWrite(ctx, userID, amqp.EntityTransaction, amqp.ActionUpdated, t.ID)
	return s.store.GetTransaction(ctx, userID, t.ID)
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.afterWrite(ctx, userID, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}

func (s *LedgerService) checkTransactionCategory(ctx context.Context, userID int64, t core.Transaction) error {
	cat, err := s.store.GetCategory(ctx, userID, t.CategoryID)
	if err != nil {
		return err
	}
	if cat.Kind != t.Kind {
		return fmt.Errorf("category %q is %s: %w", cat.Name, cat.Kind, core.ErrKindMismatch)
	}
	return nil
}

// --- budgets ---

// CreateBudget caps spending for one expense category. A missing end date
// is derived from the period cadence; afterwards the stored window is
// literal and never recomputed.
func (s *LedgerService) CreateBudget(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	b.UserID = userID
	if b.EndDate.IsZero() && !b.StartDate.IsZero() {
		b.EndDate = b.Period.DefaultEnd(b.StartDate)
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkBudgetCategory(ctx, userID, b.CategoryID); err != nil {
		return core.Budget{}, err
	}
	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}
	s.afterWrite(ctx, userID, amqp.EntityBudget, amqp.ActionCreated, created.ID)
	return created, nil
}

func (s *LedgerService) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, userID, id)
}

func (s *LedgerService) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID)
}

func (s *LedgerService) UpdateBudget(ctx context.Context, userID int64, b core.Budget) (core.Budget, error) {
	b.UserID = userID
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkBudgetCategory(ctx, userID, b.CategoryID); err != nil {
		return core.Budget{}, err
	}
	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}
	s.afterWrite(ctx, userID, amqp.EntityBudget, amqp.ActionUpdated, b.ID)
	return s.store.GetBudget(ctx, userID, b.ID)
}

func (s *LedgerService) DeleteBudget(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.afterWrite(ctx, userID, amqp.EntityBudget, amqp.ActionDeleted, id)
	return nil
}

func (s *LedgerService) checkBudgetCategory(ctx context.Context, userID, categoryID int64) error {
	cat, err := s.store.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if cat.Kind != core.Expense {
		return fmt.Errorf("category %q: %w", cat.Name, core.ErrNotExpenseCategory)
	}
	return nil
}
