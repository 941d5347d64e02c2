package billing

import (
	"fmt"
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// NoteNumberSupplier hands out the next credit note number for a series.
// The batch void cascade pulls one number per voided invoice.
type NoteNumberSupplier func() (int, error)

// InvoiceBatch groups the invoices created by one mass-billing run. The
// invoices are not exclusively owned: they carry a BatchID reference and
// remain queryable on their own. InvoiceCount and TotalAmount always match
// the linked invoices.
type InvoiceBatch struct {
	shared.BaseAggregateRoot
	PeriodLabel  string          `json:"period_label"`
	Period       time.Time       `json:"period"` // first day of the billed month
	ExecutedAt   time.Time       `json:"executed_at"`
	DueDate      time.Time       `json:"due_date"`
	InvoiceCount int             `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Voided       bool            `json:"voided"`
	VoidedAt     *time.Time      `json:"voided_at,omitempty"`
	VoidReason   string          `json:"void_reason,omitempty"`

	// Invoices holds the batch's invoices when loaded by the repository.
	// Not persisted with the batch row.
	Invoices []*Invoice `json:"-" gorm:"-"`
}

// TableName returns the table name for GORM
func (InvoiceBatch) TableName() string {
	return "invoice_batches"
}

// NewInvoiceBatch creates an empty batch for a billing period
func NewInvoiceBatch(period time.Time, dueDate time.Time) (*InvoiceBatch, error) {
	if period.IsZero() {
		return nil, shared.NewValidationError("INVALID_PERIOD", "Billing period is required")
	}
	if dueDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Due date is required")
	}

	period = firstOfMonth(period)

	return &InvoiceBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PeriodLabel:       periodLabel(period),
		Period:            period,
		ExecutedAt:        time.Now(),
		DueDate:           dueDate,
		TotalAmount:       decimal.Zero,
		Invoices:          []*Invoice{},
	}, nil
}

func periodLabel(period time.Time) string {
	return fmt.Sprintf("%s %d", spanishMonths[period.Month()-1], period.Year())
}

// AddInvoice links an invoice to the batch and folds it into the totals
func (b *InvoiceBatch) AddInvoice(inv *Invoice) error {
	if inv == nil {
		return shared.NewValidationError("INVALID_INVOICE", "Invoice cannot be nil")
	}
	if b.Voided {
		return shared.NewStateError("INVALID_STATE", "Cannot add invoices to a voided batch")
	}

	id := b.ID
	inv.BatchID = &id
	b.Invoices = append(b.Invoices, inv)
	b.InvoiceCount++
	b.TotalAmount = b.TotalAmount.Add(inv.Total)

	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// CanBeVoided returns true iff the batch is not voided and none of its
// invoices collected any payment
func (b *InvoiceBatch) CanBeVoided() bool {
	if b.Voided {
		return false
	}
	for _, inv := range b.Invoices {
		if inv.HasPayments() {
			return false
		}
	}
	return true
}

// Void marks the batch voided and cascades to every non-voided invoice,
// issuing one credit note per invoice. Note numbers come from the supplier.
func (b *InvoiceBatch) Void(reason string, nextNote NoteNumberSupplier) ([]*CreditNote, error) {
	if !b.CanBeVoided() {
		return nil, shared.NewStateError("INVALID_STATE",
			"Cannot void a batch that is already voided or has paid invoices")
	}
	if reason == "" {
		return nil, shared.NewValidationError("INVALID_REASON", "Void reason is required")
	}
	if nextNote == nil {
		return nil, shared.NewValidationError("INVALID_SUPPLIER", "Note number supplier is required")
	}

	notes := make([]*CreditNote, 0, len(b.Invoices))
	for _, inv := range b.Invoices {
		if inv.IsVoided() {
			continue
		}
		number, err := nextNote()
		if err != nil {
			return nil, err
		}
		note, err := inv.Void(reason, number)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	now := time.Now()
	b.Voided = true
	b.VoidedAt = &now
	b.VoidReason = reason

	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewBatchVoidedEvent(b, len(notes)))

	return notes, nil
}

// ActiveInvoices returns the non-voided invoices of the batch
func (b *InvoiceBatch) ActiveInvoices() []*Invoice {
	active := make([]*Invoice, 0, len(b.Invoices))
	for _, inv := range b.Invoices {
		if !inv.IsVoided() {
			active = append(active, inv)
		}
	}
	return active
}

// VoidedInvoiceCount returns how many of the batch's invoices are voided
func (b *InvoiceBatch) VoidedInvoiceCount() int {
	count := 0
	for _, inv := range b.Invoices {
		if inv.IsVoided() {
			count++
		}
	}
	return count
}

// ActiveTotal sums the totals of the non-voided invoices
func (b *InvoiceBatch) ActiveTotal() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range b.Invoices {
		if !inv.IsVoided() {
			total = total.Add(inv.Total)
		}
	}
	return total
}

// MarkCompleted records the end of the mass-billing run
func (b *InvoiceBatch) MarkCompleted() {
	b.AddDomainEvent(NewBatchCompletedEvent(b))
}
