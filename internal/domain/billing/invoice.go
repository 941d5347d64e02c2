package billing

import (
	"fmt"
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending       InvoiceStatus = "PENDING"        // Issued, nothing collected
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"        // Past due date, still payable
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID" // 0 < collected < total
	InvoiceStatusPaid          InvoiceStatus = "PAID"           // Fully collected
	InvoiceStatusVoided        InvoiceStatus = "VOIDED"         // Reversed via credit note
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusOverdue, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusVoided:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoided
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusOverdue || s == InvoiceStatusPartiallyPaid
}

// Invoice is the aggregate root for a periodic service invoice. It owns its
// lines and the credit notes issued against it. Totals honour the invariant
// total == (subtotal - discountAmount) + taxTotal, with taxTotal computed on
// the undiscounted subtotal: the discount reduces principal, not the tax
// base. OutstandingBalance starts at total and only decreases through
// payment registration, never below zero.
type Invoice struct {
	shared.BaseAggregateRoot
	Series             int             `json:"series"`
	Number             int             `json:"number"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	CustomerName       string          `json:"customer_name"`
	IssueDate          time.Time       `json:"issue_date"`
	DueDate            time.Time       `json:"due_date"`
	Period             time.Time       `json:"period"` // first day of the billed month
	Type               InvoiceType     `json:"type"`
	Status             InvoiceStatus   `json:"status"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	DiscountReason     string          `json:"discount_reason"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TaxTotal           decimal.Decimal `json:"tax_total"`
	Total              decimal.Decimal `json:"total"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	Lines              InvoiceLines    `json:"lines"`
	CreditNotes        CreditNotes     `json:"credit_notes"`
	BatchID            *uuid.UUID      `json:"batch_id,omitempty"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	VoidedAt           *time.Time      `json:"voided_at,omitempty"`
	VoidReason         string          `json:"void_reason,omitempty"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates an empty invoice for a customer
func NewInvoice(
	series int,
	number int,
	customerID uuid.UUID,
	customerName string,
	issueDate time.Time,
	dueDate time.Time,
	period time.Time,
	invoiceType InvoiceType,
) (*Invoice, error) {
	if series <= 0 {
		return nil, shared.NewValidationError("INVALID_SERIES", "Series must be positive")
	}
	if number <= 0 {
		return nil, shared.NewValidationError("INVALID_NUMBER", "Invoice number must be positive")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewValidationError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if !invoiceType.IsValid() {
		return nil, shared.NewValidationError("INVALID_INVOICE_TYPE", "Invoice type is not valid")
	}
	if issueDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Due date cannot precede issue date")
	}

	inv := &Invoice{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Series:             series,
		Number:             number,
		CustomerID:         customerID,
		CustomerName:       customerName,
		IssueDate:          issueDate,
		DueDate:            dueDate,
		Period:             firstOfMonth(period),
		Type:               invoiceType,
		Status:             InvoiceStatusPending,
		Subtotal:           decimal.Zero,
		DiscountPercent:    decimal.Zero,
		DiscountAmount:     decimal.Zero,
		TaxTotal:           decimal.Zero,
		Total:              decimal.Zero,
		OutstandingBalance: decimal.Zero,
		Lines:              InvoiceLines{},
		CreditNotes:        CreditNotes{},
	}

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return inv, nil
}

func firstOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

// FormattedNumber renders the fiscal number, for example "0001-00000042"
func (inv *Invoice) FormattedNumber() string {
	return fmt.Sprintf("%04d-%08d", inv.Series, inv.Number)
}

// HasPayments reports whether any nonzero payment was ever applied
func (inv *Invoice) HasPayments() bool {
	return inv.Status == InvoiceStatusPartiallyPaid || inv.Status == InvoiceStatusPaid
}

// AddLine appends a line, calculates it and recomputes invoice totals.
// Lines cannot change once a payment has been applied.
func (inv *Invoice) AddLine(line *InvoiceLine) error {
	if line == nil {
		return shared.NewValidationError("INVALID_LINE", "Invoice line cannot be nil")
	}
	if inv.Status == InvoiceStatusVoided {
		return shared.NewStateError("INVALID_STATE", "Cannot add lines to a voided invoice")
	}
	if inv.HasPayments() {
		return shared.NewStateError("HAS_PAYMENTS", "Cannot add lines to an invoice with payments")
	}

	line.Calculate()
	inv.Lines = append(inv.Lines, *line)
	inv.CalculateTotals()

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// CalculateTotals recomputes all invoice-level amounts from the lines and
// the discount. It resets the outstanding balance, so it must only run
// before any payment has been registered; afterwards the balance tracks
// independently through payment registration.
func (inv *Invoice) CalculateTotals() {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for i := range inv.Lines {
		subtotal = subtotal.Add(inv.Lines[i].Subtotal)
		taxTotal = taxTotal.Add(inv.Lines[i].TaxAmount)
	}
	inv.Subtotal = subtotal
	inv.TaxTotal = taxTotal
	inv.DiscountAmount = subtotal.Mul(inv.DiscountPercent).Div(decimal.NewFromInt(100))
	inv.Total = subtotal.Sub(inv.DiscountAmount).Add(taxTotal)
	inv.OutstandingBalance = inv.Total
}

// ApplyDiscount applies a percentage discount over the subtotal. The tax
// total stays computed on the undiscounted subtotal.
func (inv *Invoice) ApplyDiscount(percent decimal.Decimal, reason string) error {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}
	if reason == "" {
		return shared.NewValidationError("INVALID_REASON", "Discount reason is required")
	}
	if inv.Status == InvoiceStatusVoided {
		return shared.NewStateError("INVALID_STATE", "Cannot discount a voided invoice")
	}
	if inv.HasPayments() {
		return shared.NewStateError("HAS_PAYMENTS", "Cannot discount an invoice with payments")
	}

	inv.DiscountPercent = percent
	inv.DiscountReason = reason
	inv.CalculateTotals()

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// RegisterFullPayment applies a payment that must settle the invoice exactly
func (inv *Invoice) RegisterFullPayment(payment *Payment) error {
	if payment == nil {
		return shared.NewValidationError("INVALID_PAYMENT", "Payment cannot be nil")
	}
	if !payment.Amount.Equal(inv.OutstandingBalance) {
		return shared.NewValidationError("AMOUNT_MISMATCH",
			fmt.Sprintf("Full payment amount %s does not match outstanding balance %s",
				payment.Amount.StringFixed(2), inv.OutstandingBalance.StringFixed(2)))
	}
	return inv.registerPayment(payment)
}

// RegisterPartialPayment applies a payment smaller than or equal to the
// outstanding balance
func (inv *Invoice) RegisterPartialPayment(payment *Payment) error {
	if payment == nil {
		return shared.NewValidationError("INVALID_PAYMENT", "Payment cannot be nil")
	}
	return inv.registerPayment(payment)
}

func (inv *Invoice) registerPayment(payment *Payment) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewStateError("INVALID_STATE",
			fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if payment.Amount.GreaterThan(inv.OutstandingBalance) {
		return shared.NewValidationError("EXCEEDS_OUTSTANDING",
			fmt.Sprintf("Payment amount %s exceeds outstanding balance %s",
				payment.Amount.StringFixed(2), inv.OutstandingBalance.StringFixed(2)))
	}

	inv.OutstandingBalance = inv.OutstandingBalance.Sub(payment.Amount)

	if inv.OutstandingBalance.IsZero() {
		now := time.Now()
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &now
		inv.AddDomainEvent(NewInvoicePaidEvent(inv, payment))
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
		inv.AddDomainEvent(NewInvoicePartiallyPaidEvent(inv, payment))
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// RefreshOverdueStatus re-evaluates the transient OVERDUE state against the
// clock. It runs synchronously on read paths, there is no timer. Returns
// whether a transition occurred.
func (inv *Invoice) RefreshOverdueStatus(today time.Time) bool {
	if inv.Status != InvoiceStatusPending {
		return false
	}
	if !inv.DueDate.Before(truncateToDay(today)) {
		return false
	}

	inv.Status = InvoiceStatusOverdue
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceOverdueEvent(inv))

	return true
}

// CanBeVoided returns true iff the invoice was never paid, not even in part,
// and is not already voided
func (inv *Invoice) CanBeVoided() bool {
	return inv.Status != InvoiceStatusVoided && !inv.HasPayments()
}

// Void reverses the invoice, issuing a credit note for its full total. The
// note number comes from the caller, which obtains it from the sequence
// collaborator.
func (inv *Invoice) Void(reason string, noteNumber int) (*CreditNote, error) {
	if !inv.CanBeVoided() {
		return nil, shared.NewStateError("INVALID_STATE",
			fmt.Sprintf("Cannot void invoice %s in %s status", inv.FormattedNumber(), inv.Status))
	}
	if reason == "" {
		return nil, shared.NewValidationError("INVALID_REASON", "Void reason is required")
	}
	if noteNumber <= 0 {
		return nil, shared.NewValidationError("INVALID_NUMBER", "Credit note number must be positive")
	}

	note := newCreditNote(inv, noteNumber, reason)
	inv.CreditNotes = append(inv.CreditNotes, note)

	now := time.Now()
	inv.Status = InvoiceStatusVoided
	inv.VoidedAt = &now
	inv.VoidReason = reason
	inv.OutstandingBalance = decimal.Zero

	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceVoidedEvent(inv, &note))

	return &note, nil
}

// Helper methods

// GetSubtotalMoney returns the subtotal as Money
func (inv *Invoice) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyARS(inv.Subtotal)
}

// GetTotalMoney returns the total as Money
func (inv *Invoice) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyARS(inv.Total)
}

// GetOutstandingBalanceMoney returns the outstanding balance as Money
func (inv *Invoice) GetOutstandingBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyARS(inv.OutstandingBalance)
}

// PaidAmount returns the amount collected so far
func (inv *Invoice) PaidAmount() decimal.Decimal {
	if inv.Status == InvoiceStatusVoided {
		return decimal.Zero
	}
	return inv.Total.Sub(inv.OutstandingBalance)
}

// IsPending returns true if the invoice is pending
func (inv *Invoice) IsPending() bool {
	return inv.Status == InvoiceStatusPending
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsVoided returns true if the invoice is voided
func (inv *Invoice) IsVoided() bool {
	return inv.Status == InvoiceStatusVoided
}

// LineCount returns the number of lines
func (inv *Invoice) LineCount() int {
	return len(inv.Lines)
}
