package worker

import (
	"context"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEvent(t *testing.T) {
	repo, err := storage.NewRepository(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user, err := repo.CreateUser(ctx, core.User{Email: "alice@example.com", Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	cat, err := repo.CreateCategory(ctx, core.Category{UserID: user.ID, Name: "Groceries", Kind: core.Expense})
	require.NoError(t, err)

	w := NewAuditWorker(repo)

	// Live entity resolves and is counted.
	err = w.HandleEvent(ctx, amqp.NewLedgerEvent(user.ID, amqp.EntityCategory, amqp.ActionCreated, cat.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Processed())

	// A delete event for a gone entity is still audited, not an error.
	err = w.HandleEvent(ctx, amqp.NewLedgerEvent(user.ID, amqp.EntityTransaction, amqp.ActionDeleted, 12345))
	require.NoError(t, err)
	assert.Equal(t, int64(2), w.Processed())

	// Unknown user is dropped without requeue.
	err = w.HandleEvent(ctx, amqp.NewLedgerEvent(999, amqp.EntityBudget, amqp.ActionCreated, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Dropped())
	assert.Equal(t, int64(2), w.Processed())
}
