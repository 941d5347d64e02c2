package billing

import (
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants for the billing context
const (
	EventInvoiceIssued        = "billing.invoice.issued"
	EventInvoicePartiallyPaid = "billing.invoice.partially_paid"
	EventInvoicePaid          = "billing.invoice.paid"
	EventInvoiceOverdue       = "billing.invoice.overdue"
	EventInvoiceVoided        = "billing.invoice.voided"
	EventBatchCompleted       = "billing.batch.completed"
	EventBatchVoided          = "billing.batch.voided"
	EventPaymentCollected     = "billing.payment.collected"
)

// InvoiceIssuedEvent is raised when an invoice is created
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Total         decimal.Decimal `json:"total"`
	DueDate       time.Time       `json:"due_date"`
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceIssued, "Invoice", inv.ID),
		InvoiceNumber:   inv.FormattedNumber(),
		CustomerID:      inv.CustomerID,
		Total:           inv.Total,
		DueDate:         inv.DueDate,
	}
}

// InvoicePartiallyPaidEvent is raised when a payment leaves a balance open
type InvoicePartiallyPaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber      string          `json:"invoice_number"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	PaymentID          uuid.UUID       `json:"payment_id"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// NewInvoicePartiallyPaidEvent creates a new InvoicePartiallyPaidEvent
func NewInvoicePartiallyPaidEvent(inv *Invoice, payment *Payment) *InvoicePartiallyPaidEvent {
	return &InvoicePartiallyPaidEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventInvoicePartiallyPaid, "Invoice", inv.ID),
		InvoiceNumber:      inv.FormattedNumber(),
		CustomerID:         inv.CustomerID,
		PaymentID:          payment.ID,
		AmountPaid:         payment.Amount,
		OutstandingBalance: inv.OutstandingBalance,
	}
}

// InvoicePaidEvent is raised when the outstanding balance reaches zero
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Total         decimal.Decimal `json:"total"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice, payment *Payment) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoicePaid, "Invoice", inv.ID),
		InvoiceNumber:   inv.FormattedNumber(),
		CustomerID:      inv.CustomerID,
		PaymentID:       payment.ID,
		Total:           inv.Total,
	}
}

// InvoiceOverdueEvent is raised when an invoice passes its due date unpaid
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber      string          `json:"invoice_number"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	DueDate            time.Time       `json:"due_date"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// NewInvoiceOverdueEvent creates a new InvoiceOverdueEvent
func NewInvoiceOverdueEvent(inv *Invoice) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventInvoiceOverdue, "Invoice", inv.ID),
		InvoiceNumber:      inv.FormattedNumber(),
		CustomerID:         inv.CustomerID,
		DueDate:            inv.DueDate,
		OutstandingBalance: inv.OutstandingBalance,
	}
}

// InvoiceVoidedEvent is raised when an invoice is reversed via credit note
type InvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber    string          `json:"invoice_number"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	CreditNoteNumber string          `json:"credit_note_number"`
	Amount           decimal.Decimal `json:"amount"`
	Reason           string          `json:"reason"`
}

// NewInvoiceVoidedEvent creates a new InvoiceVoidedEvent
func NewInvoiceVoidedEvent(inv *Invoice, note *CreditNote) *InvoiceVoidedEvent {
	return &InvoiceVoidedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventInvoiceVoided, "Invoice", inv.ID),
		InvoiceNumber:    inv.FormattedNumber(),
		CustomerID:       inv.CustomerID,
		CreditNoteNumber: note.FormattedNumber(),
		Amount:           note.Amount,
		Reason:           note.Reason,
	}
}
