package persistence

import (
	"context"
	"fmt"

	"github.com/facturador/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormSequenceRepository hands out fiscal numbers from the fiscal_sequences
// table. Each scope ("invoice:1", "credit_note:1", "receipt") holds one
// counter row. The upsert increments and returns in a single statement, so
// two concurrent callers for the same scope serialize on the row lock and
// never see the same number.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// NextInvoiceNumber returns the next invoice number for a series
func (r *GormSequenceRepository) NextInvoiceNumber(ctx context.Context, series int) (int, error) {
	return r.next(ctx, fmt.Sprintf("invoice:%d", series))
}

// NextCreditNoteNumber returns the next credit note number for a series
func (r *GormSequenceRepository) NextCreditNoteNumber(ctx context.Context, series int) (int, error) {
	return r.next(ctx, fmt.Sprintf("credit_note:%d", series))
}

// NextReceiptNumber returns the next receipt number from the single global
// receipt counter
func (r *GormSequenceRepository) NextReceiptNumber(ctx context.Context) (int, error) {
	return r.next(ctx, "receipt")
}

func (r *GormSequenceRepository) next(ctx context.Context, scope string) (int, error) {
	var value int
	err := dbFrom(ctx, r.db).Raw(
		`INSERT INTO fiscal_sequences (scope, last_value)
		 VALUES (?, 1)
		 ON CONFLICT (scope)
		 DO UPDATE SET last_value = fiscal_sequences.last_value + 1
		 RETURNING last_value`,
		scope,
	).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", scope, err)
	}
	return value, nil
}

// Ensure GormSequenceRepository implements SequenceRepository
var _ billing.SequenceRepository = (*GormSequenceRepository)(nil)
