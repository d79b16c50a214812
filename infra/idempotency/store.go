// Package idempotency remembers which Paynow idempotency key belongs to a logical
// operation, so a retried request reuses the key of its first attempt.
package idempotency

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a key stays bound to its scope
const DefaultTTL = 24 * time.Hour

// ErrEmptyScope is returned for an empty scope
var ErrEmptyScope = errors.New("idempotency: scope cannot be empty")

// Store binds scopes (e.g. "payment:<externalId>") to idempotency keys
type Store interface {
	// Key returns the key bound to scope, binding a new UUID when none is live.
	// created reports whether the key was generated by this call.
	Key(ctx context.Context, scope string) (key string, created bool, err error)
	// Forget removes the binding of scope
	Forget(ctx context.Context, scope string) error
	Close() error
}

type entry struct {
	key       string
	createdAt time.Time
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// MemoryStore is a process-local Store
type MemoryStore struct {
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
}

// NewMemoryStore creates an in-memory store; a non-positive ttl uses DefaultTTL
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Key(ctx context.Context, scope string) (string, bool, error) {
	if scope == "" {
		return "", false, ErrEmptyScope
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[scope]; ok && now.Sub(e.createdAt) < m.ttl {
		return e.key, false, nil
	}

	key := uuid.NewString()
	m.entries[scope] = entry{key: key, createdAt: now}
	m.purge(now)
	return key, true, nil
}

func (m *MemoryStore) Forget(ctx context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, scope)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// purge drops expired entries; callers hold mu
func (m *MemoryStore) purge(now time.Time) {
	for scope, e := range m.entries {
		if now.Sub(e.createdAt) >= m.ttl {
			delete(m.entries, scope)
		}
	}
}
