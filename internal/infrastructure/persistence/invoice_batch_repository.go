package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceBatchRepository implements InvoiceBatchRepository using GORM
type GormInvoiceBatchRepository struct {
	db *gorm.DB
}

// NewGormInvoiceBatchRepository creates a new GormInvoiceBatchRepository
func NewGormInvoiceBatchRepository(db *gorm.DB) *GormInvoiceBatchRepository {
	return &GormInvoiceBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormInvoiceBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.InvoiceBatch, error) {
	var batch billing.InvoiceBatch
	if err := dbFrom(ctx, r.db).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// FindByPeriod finds the most recent batch for a billing period. Voided
// batches are included, the caller inspects the flag.
func (r *GormInvoiceBatchRepository) FindByPeriod(ctx context.Context, period time.Time) (*billing.InvoiceBatch, error) {
	var batch billing.InvoiceBatch
	if err := dbFrom(ctx, r.db).
		Where("period = ?", periodKey(period)).
		Order("executed_at DESC").
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// ExistsActiveForPeriod reports whether a non-voided batch already covers the
// period. A voided run does not block re-billing the month.
func (r *GormInvoiceBatchRepository) ExistsActiveForPeriod(ctx context.Context, period time.Time) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&billing.InvoiceBatch{}).
		Where("period = ? AND voided = ?", periodKey(period), false).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List finds all batches matching the filter
func (r *GormInvoiceBatchRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*billing.InvoiceBatch], error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := db.Model(&billing.InvoiceBatch{}).Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BatchSortFields, "executed_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var batches []*billing.InvoiceBatch
	if err := db.Model(&billing.InvoiceBatch{}).
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&batches).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(batches, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Save creates or updates a batch
func (r *GormInvoiceBatchRepository) Save(ctx context.Context, batch *billing.InvoiceBatch) error {
	return dbFrom(ctx, r.db).Save(batch).Error
}

// Ensure GormInvoiceBatchRepository implements InvoiceBatchRepository
var _ billing.InvoiceBatchRepository = (*GormInvoiceBatchRepository)(nil)
