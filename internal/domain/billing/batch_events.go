package billing

import (
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchCompletedEvent is raised when a mass-billing run finishes
type BatchCompletedEvent struct {
	shared.BaseDomainEvent
	PeriodLabel  string          `json:"period_label"`
	Period       time.Time       `json:"period"`
	InvoiceCount int             `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewBatchCompletedEvent creates a new BatchCompletedEvent
func NewBatchCompletedEvent(b *InvoiceBatch) *BatchCompletedEvent {
	return &BatchCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventBatchCompleted, "InvoiceBatch", b.ID),
		PeriodLabel:     b.PeriodLabel,
		Period:          b.Period,
		InvoiceCount:    b.InvoiceCount,
		TotalAmount:     b.TotalAmount,
	}
}

// BatchVoidedEvent is raised when a batch and its invoices are reversed
type BatchVoidedEvent struct {
	shared.BaseDomainEvent
	PeriodLabel string `json:"period_label"`
	Reason      string `json:"reason"`
	NotesIssued int    `json:"credit_notes_issued"`
}

// NewBatchVoidedEvent creates a new BatchVoidedEvent
func NewBatchVoidedEvent(b *InvoiceBatch, notesIssued int) *BatchVoidedEvent {
	return &BatchVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventBatchVoided, "InvoiceBatch", b.ID),
		PeriodLabel:     b.PeriodLabel,
		Reason:          b.VoidReason,
		NotesIssued:     notesIssued,
	}
}
