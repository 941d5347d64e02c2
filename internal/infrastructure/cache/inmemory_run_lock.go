package cache

import (
	"context"
	"sync"
	"time"

	appbilling "github.com/facturador/backend/internal/application/billing"
)

// InMemoryRunLock is a single-process run lock. Suitable for development
// and single-instance deployments where Redis is not wired.
type InMemoryRunLock struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewInMemoryRunLock creates a new in-memory run lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Acquire takes the named lock unless a live holder exists. Expired holds
// are treated as free.
func (l *InMemoryRunLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.locks[key]; held && l.now().Before(expiry) {
		return false, nil
	}
	l.locks[key] = l.now().Add(ttl)
	return true, nil
}

// Release frees the named lock
func (l *InMemoryRunLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}

var _ appbilling.RunLock = (*InMemoryRunLock)(nil)
