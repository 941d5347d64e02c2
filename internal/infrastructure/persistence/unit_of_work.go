package persistence

import (
	"context"

	appbilling "github.com/facturador/backend/internal/application/billing"
	"gorm.io/gorm"
)

type txKey struct{}

// GormUnitOfWork implements the application transaction boundary on GORM.
// WithinTx opens a transaction and threads it through the context, so every
// repository call inside fn resolves the same transaction via dbFrom.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// WithinTx runs fn inside one database transaction. A returned error rolls
// everything back.
func (u *GormUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom resolves the transaction carried by ctx, falling back to the
// repository's base connection outside a unit of work
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

var _ appbilling.UnitOfWork = (*GormUnitOfWork)(nil)
