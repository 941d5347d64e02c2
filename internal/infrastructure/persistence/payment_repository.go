package persistence

import (
	"context"
	"errors"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM. Payments are
// append-only, Save never updates an existing row's amounts.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var payment billing.Payment
	if err := dbFrom(ctx, r.db).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// FindByReceiptNumber finds the payments issued under one receipt. A combined
// settlement produces one cash payment plus one credit-funded payment.
func (r *GormPaymentRepository) FindByReceiptNumber(ctx context.Context, receiptNumber int) ([]*billing.Payment, error) {
	var payments []*billing.Payment
	if err := dbFrom(ctx, r.db).
		Where("receipt_number = ?", receiptNumber).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindApplicationsByReceiptNumber finds every invoice application under one
// receipt, joined through the payments that carry the number
func (r *GormPaymentRepository) FindApplicationsByReceiptNumber(ctx context.Context, receiptNumber int) ([]*billing.PaymentApplication, error) {
	var applications []*billing.PaymentApplication
	if err := dbFrom(ctx, r.db).
		Model(&billing.PaymentApplication{}).
		Joins("JOIN payments ON payments.id = payment_applications.payment_id").
		Where("payments.receipt_number = ?", receiptNumber).
		Order("payment_applications.applied_at ASC").
		Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// Save persists a payment together with its invoice applications
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment, applications []*billing.PaymentApplication) error {
	db := dbFrom(ctx, r.db)
	if err := db.Save(payment).Error; err != nil {
		return err
	}
	if len(applications) == 0 {
		return nil
	}
	return db.Save(applications).Error
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
