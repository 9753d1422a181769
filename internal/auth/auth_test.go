package auth

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	repo, err := storage.NewRepository(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, NewTokenManager("test-secret", "fintrack", ttl))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "alice", "s3cret-password")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Empty(t, user.PasswordHash, "hash never leaves the package")

	token, logged, err := svc.Login(ctx, "alice@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)
	assert.Empty(t, logged.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "alice", "s3cret-password")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Register(ctx, "alice@example.com", "", "s3cret-password")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Register(ctx, "alice@example.com", "alice", "short")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "s3cret-password")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice@example.com", "alice2", "s3cret-password")
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "s3cret-password")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret-password")
	assert.ErrorIs(t, err, core.ErrUnauthorized, "unknown email looks like a bad password")
}

func TestLoginPropagatesStoreOutage(t *testing.T) {
	repo, err := storage.NewRepository(":memory:", 0)
	require.NoError(t, err)
	svc := NewService(repo, NewTokenManager("test-secret", "fintrack", time.Hour))

	ctx := context.Background()
	_, err = svc.Register(ctx, "alice@example.com", "alice", "s3cret-password")
	require.NoError(t, err)

	require.NoError(t, repo.Close())

	_, _, err = svc.Login(ctx, "alice@example.com", "s3cret-password")
	assert.ErrorIs(t, err, core.ErrStoreUnavailable, "an outage is not a credentials failure")
	assert.NotErrorIs(t, err, core.ErrUnauthorized)
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", "fintrack", time.Hour)

	token, err := tm.Generate(core.User{ID: 42, Email: "alice@example.com", Username: "alice"})
	require.NoError(t, err)

	userID, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyRejectsTamperedAndExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", "fintrack", time.Hour)
	user := core.User{ID: 42, Email: "alice@example.com", Username: "alice"}

	token, err := tm.Generate(user)
	require.NoError(t, err)

	// Wrong secret.
	other := NewTokenManager("other-secret", "fintrack", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	// Wrong issuer.
	foreign := NewTokenManager("test-secret", "someone-else", time.Hour)
	_, err = foreign.Verify(token)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	// Expired.
	expired := NewTokenManager("test-secret", "fintrack", -time.Minute)
	tok, err := expired.Generate(user)
	require.NoError(t, err)
	_, err = expired.Verify(tok)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = tm.Verify("not.a.token")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestHashPasswordNeverStoresPlaintext(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotContains(t, hash, "s3cret-password")
	assert.True(t, CheckPassword(hash, "s3cret-password"))
	assert.False(t, CheckPassword(hash, "other"))
}
