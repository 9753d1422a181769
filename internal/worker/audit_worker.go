// Package worker consumes ledger change events and writes a structured
// audit trail. The trail is append-only log output; the worker keeps no
// state of its own beyond counters.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AuditWorker resolves each event against the store and logs the result.
// Deleted entities no longer resolve; that is expected and still audited.
type AuditWorker struct {
	store     *storage.Repository
	processed atomic.Int64
	dropped   atomic.Int64
}

func NewAuditWorker(store *storage.Repository) *AuditWorker {
	return &AuditWorker{store: store}
}

// HandleEvent audits one event. Events for unknown users are dropped
// rather than requeued; they will never become resolvable.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	if _, err := w.store.GetUserByID(ctx, event.UserID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.dropped.Add(1)
			slog.WarnContext(ctx, "Dropping event for unknown user",
				"user_id", event.UserID, "entity", event.Entity, "entity_id", event.EntityID)
			return nil
		}
		return fmt.Errorf("resolve user %d: %w", event.UserID, err)
	}

	resolved := w.entityResolves(ctx, event)
	w.processed.Add(1)
	slog.InfoContext(ctx, "Ledger change audited",
		"user_id", event.UserID,
		"entity", event.Entity,
		"action", event.Action,
		"entity_id", event.EntityID,
		"resolves", resolved,
		"occurred_at", event.Timestamp)
	return nil
}

func (w *AuditWorker) entityResolves(ctx context.Context, event *amqp.LedgerEvent) bool {
	var err error
	switch event.Entity {
	case amqp.EntityCategory:
		_, err = w.store.GetCategory(ctx, event.UserID, event.EntityID)
	case amqp.EntityTransaction:
		_, err = w.store.GetTransaction(ctx, event.UserID, event.EntityID)
	case amqp.EntityBudget:
		_, err = w.store.GetBudget(ctx, event.UserID, event.EntityID)
	default:
		return false
	}
	return err == nil
}

// Processed returns how many events have been audited.
func (w *AuditWorker) Processed() int64 {
	return w.processed.Load()
}

// Dropped returns how many events were discarded as unresolvable.
func (w *AuditWorker) Dropped() int64 {
	return w.dropped.Load()
}
