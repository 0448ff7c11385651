package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker keeps locks in process memory. Expired entries are dropped lazily.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]entry
	now   func() time.Time
}

var _ Locker = (*MemoryLocker)(nil)

// MemoryOption configures a MemoryLocker
type MemoryOption func(*MemoryLocker)

// WithClock overrides the time source
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLocker) {
		m.now = now
	}
}

// NewMemoryLocker creates an in-process Locker
func NewMemoryLocker(opts ...MemoryOption) *MemoryLocker {
	m := &MemoryLocker{
		locks: make(map[string]entry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire implements Locker
func (m *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, held := m.locks[key]; held && now.Before(e.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	m.locks[key] = entry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Release implements Locker
func (m *MemoryLocker) Release(_ context.Context, key, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, held := m.locks[key]
	if !held || e.token != token {
		return false, nil
	}
	delete(m.locks, key)
	return m.now().Before(e.expiresAt), nil
}

// ForceRelease implements Locker
func (m *MemoryLocker) ForceRelease(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}
