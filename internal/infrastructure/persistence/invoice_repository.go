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

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := dbFrom(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByIDs finds multiple invoices by their IDs. Missing IDs are simply
// absent from the result, the caller decides whether that is an error.
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.Invoice, error) {
	if len(ids) == 0 {
		return []*billing.Invoice{}, nil
	}
	var invoices []*billing.Invoice
	if err := dbFrom(ctx, r.db).Where("id IN ?", ids).Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByCustomer finds a customer's invoices, newest first by default
func (r *GormInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	return r.paginate(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("customer_id = ?", customerID)
	})
}

// FindOutstandingByCustomer finds the customer's invoices that still carry an
// outstanding balance, oldest issue first so allocation hits the oldest debt
func (r *GormInvoiceRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.Invoice, error) {
	var invoices []*billing.Invoice
	if err := dbFrom(ctx, r.db).
		Where("customer_id = ? AND status IN ?", customerID, []billing.InvoiceStatus{
			billing.InvoiceStatusPending,
			billing.InvoiceStatusOverdue,
			billing.InvoiceStatusPartiallyPaid,
		}).
		Order("issue_date ASC, number ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByPeriod finds the invoices billed for a period
func (r *GormInvoiceRepository) FindByPeriod(ctx context.Context, period time.Time) ([]*billing.Invoice, error) {
	var invoices []*billing.Invoice
	if err := dbFrom(ctx, r.db).
		Where("period = ?", periodKey(period)).
		Order("series ASC, number ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByBatch finds the invoices created by one mass-billing run
func (r *GormInvoiceRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*billing.Invoice, error) {
	var invoices []*billing.Invoice
	if err := dbFrom(ctx, r.db).
		Where("batch_id = ?", batchID).
		Order("series ASC, number ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindBySeriesAndNumber finds an invoice by its fiscal number
func (r *GormInvoiceRepository) FindBySeriesAndNumber(ctx context.Context, series, number int) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := dbFrom(ctx, r.db).
		Where("series = ? AND number = ?", series, number).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// List finds all invoices matching the filter
func (r *GormInvoiceRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	return r.paginate(ctx, filter, func(q *gorm.DB) *gorm.DB { return q })
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return dbFrom(ctx, r.db).Save(invoice).Error
}

func (r *GormInvoiceRepository) paginate(ctx context.Context, filter shared.Filter, scope func(*gorm.DB) *gorm.DB) (*shared.Paginated[*billing.Invoice], error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := scope(db.Model(&billing.Invoice{})).Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "issue_date")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var invoices []*billing.Invoice
	if err := scope(db.Model(&billing.Invoice{})).
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&invoices).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(invoices, total, filter.Page, filter.PageSize)
	return &page, nil
}

// periodKey normalizes a period to midnight on the first day of its month,
// the form invoices and batches are stored with
func periodKey(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
