package billing

import (
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was funded
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodTransfer      PaymentMethod = "TRANSFER"
	PaymentMethodCard          PaymentMethod = "CARD"
	PaymentMethodCreditBalance PaymentMethod = "CREDIT_BALANCE" // Funded from the customer's accumulated credit
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCard, PaymentMethodCreditBalance:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// DisplayName returns the method label used on printed receipts
func (m PaymentMethod) DisplayName() string {
	switch m {
	case PaymentMethodCash:
		return "Efectivo"
	case PaymentMethodTransfer:
		return "Transferencia"
	case PaymentMethodCard:
		return "Tarjeta"
	case PaymentMethodCreditBalance:
		return "Saldo a favor"
	default:
		return string(m)
	}
}

const maxReferenceLength = 500

// Payment records money received from a customer. It is immutable once
// created: a wrong payment is corrected by voiding the settlement, never by
// editing the record. The amount is strictly positive; zero-amount payments
// are never constructed.
type Payment struct {
	shared.BaseEntity
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Reference     string          `json:"reference"`
	PaymentDate   time.Time       `json:"payment_date"`
	ReceiptNumber int             `json:"receipt_number"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a payment record
func NewPayment(
	customerID uuid.UUID,
	amount decimal.Decimal,
	method PaymentMethod,
	reference string,
	paymentDate time.Time,
	receiptNumber int,
) (*Payment, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("INVALID_METHOD", "Payment method is not valid")
	}
	if len(reference) > maxReferenceLength {
		return nil, shared.NewValidationError("REFERENCE_TOO_LONG", "Payment reference cannot exceed 500 characters")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	if receiptNumber <= 0 {
		return nil, shared.NewValidationError("INVALID_RECEIPT_NUMBER", "Receipt number must be positive")
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    customerID,
		Amount:        amount,
		Method:        method,
		Reference:     reference,
		PaymentDate:   paymentDate,
		ReceiptNumber: receiptNumber,
	}, nil
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyARS(p.Amount)
}

// IsCreditFunded reports whether the payment drew on customer credit
func (p *Payment) IsCreditFunded() bool {
	return p.Method == PaymentMethodCreditBalance
}

// PaymentApplication links a payment to the invoice portion it settled. A
// single payment may spread across several invoices and a single invoice may
// collect several payments, so the junction carries its own amount.
type PaymentApplication struct {
	ID            uuid.UUID       `json:"id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	AppliedAt     time.Time       `json:"applied_at"`
}

// TableName returns the table name for GORM
func (PaymentApplication) TableName() string {
	return "payment_applications"
}

// NewPaymentApplication creates the junction record for one applied portion
func NewPaymentApplication(payment *Payment, inv *Invoice, amount decimal.Decimal) (*PaymentApplication, error) {
	if payment == nil {
		return nil, shared.NewValidationError("INVALID_PAYMENT", "Payment cannot be nil")
	}
	if inv == nil {
		return nil, shared.NewValidationError("INVALID_INVOICE", "Invoice cannot be nil")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Applied amount must be positive")
	}
	if amount.GreaterThan(payment.Amount) {
		return nil, shared.NewValidationError("EXCEEDS_PAYMENT", "Applied amount cannot exceed the payment amount")
	}

	return &PaymentApplication{
		ID:            uuid.New(),
		PaymentID:     payment.ID,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.FormattedNumber(),
		Amount:        amount,
		AppliedAt:     time.Now(),
	}, nil
}
