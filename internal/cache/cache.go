package cache

import (
	"strconv"
	"time"
)

// Cache is a best-effort memoization layer for derived analytics. Results
// must be identical with or without a live cache; unavailability degrades
// performance, never correctness.
type Cache[T any] interface {
	// Get retrieves a live (non-expired) value.
	Get(key string) (T, bool)

	// Set stores a value with the cache's default TTL.
	Set(key string, data T)

	// SetTTL stores a value with an explicit TTL.
	SetTTL(key string, data T, ttl time.Duration)

	// Delete removes a single key.
	Delete(key string)

	// DeletePrefix removes every key starting with prefix and returns
	// the number of removed entries.
	DeletePrefix(prefix string) int

	// Size returns the current number of items in the cache.
	Size() int
}

// UserPrefix namespaces every cached entry under its owning user so a
// write can invalidate all of a user's entries in one sweep.
func UserPrefix(userID int64) string {
	return "u:" + strconv.FormatInt(userID, 10) + ":"
}

// Key builds a cache key from the user prefix, the operation name and its
// normalized parameters.
func Key(userID int64, op string, params ...string) string {
	k := UserPrefix(userID) + op
	for _, p := range params {
		k += ":" + p
	}
	return k
}

// Cleaner is implemented by caches that support expired-entry cleanup.
type Cleaner interface {
	CleanExpired() int
}

// Manager owns the cleanup lifecycle for a set of caches. It is built at
// startup and stopped at shutdown; nothing here is a process singleton.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for periodic cleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup begins periodic cleanup of all registered caches.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range m.caches {
				c.CleanExpired()
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine.
func (m *Manager) Stop() {
	if m.stopCleanup != nil {
		close(m.stopCleanup)
		<-m.cleanupDone
	}
}

// Noop satisfies Cache while storing nothing, so the analytics engine can
// run without a cache backend and still honor the same contract.
type Noop[T any] struct{}

func NewNoop[T any]() Noop[T] { return Noop[T]{} }

func (Noop[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}

func (Noop[T]) Set(string, T)                       {}
func (Noop[T]) SetTTL(string, T, time.Duration)     {}
func (Noop[T]) Delete(string)                       {}
func (Noop[T]) DeletePrefix(string) int             { return 0 }
func (Noop[T]) Size() int                           { return 0 }
