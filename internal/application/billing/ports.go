package billing

import (
	"context"
	"time"
)

// UnitOfWork is the transaction boundary owned by application services.
// Every mutation inside fn commits or rolls back as one unit; repositories
// resolve the transaction from the context fn receives.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoOpUnitOfWork runs the function without a real transaction. Used in
// tests and wherever transactional storage is not wired.
type NoOpUnitOfWork struct{}

// WithinTx runs fn directly
func (NoOpUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// RunLock serializes operations that must not run concurrently, such as the
// monthly mass-billing run.
type RunLock interface {
	// Acquire tries to take the named lock for at most ttl. Returns false
	// without error when someone else holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
