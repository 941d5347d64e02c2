package billing

import (
	"context"
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Invoice, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Invoice], error)
	FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)
	FindByPeriod(ctx context.Context, period time.Time) ([]*Invoice, error)
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*Invoice, error)
	FindBySeriesAndNumber(ctx context.Context, series, number int) (*Invoice, error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Invoice], error)
	Save(ctx context.Context, invoice *Invoice) error
}

// InvoiceBatchRepository defines persistence operations for billing batches
type InvoiceBatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InvoiceBatch, error)
	FindByPeriod(ctx context.Context, period time.Time) (*InvoiceBatch, error)
	ExistsActiveForPeriod(ctx context.Context, period time.Time) (bool, error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*InvoiceBatch], error)
	Save(ctx context.Context, batch *InvoiceBatch) error
}

// PaymentRepository defines persistence operations for payments and their
// invoice applications
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByReceiptNumber(ctx context.Context, receiptNumber int) ([]*Payment, error)
	FindApplicationsByReceiptNumber(ctx context.Context, receiptNumber int) ([]*PaymentApplication, error)
	Save(ctx context.Context, payment *Payment, applications []*PaymentApplication) error
}

// SequenceRepository hands out fiscal numbers. Implementations must
// serialize per series: two concurrent calls for the same series never
// return the same number.
type SequenceRepository interface {
	NextInvoiceNumber(ctx context.Context, series int) (int, error)
	NextCreditNoteNumber(ctx context.Context, series int) (int, error)
	NextReceiptNumber(ctx context.Context) (int, error)
}
