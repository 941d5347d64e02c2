package billing

import (
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditAccount is the view of the customer the allocation engine needs:
// the credit balance and the operations that move it. The partner aggregate
// satisfies it.
type CreditAccount interface {
	HasCreditBalance() bool
	AvailableCredit() decimal.Decimal
	DeductCredit(amount decimal.Decimal) error
	AddCredit(amount decimal.Decimal) error
}

// SettlementInput carries one combined-payment request over aggregates the
// caller already resolved and validated for ownership. Invoice order is
// allocation order.
type SettlementInput struct {
	Invoices      []*Invoice
	CustomerID    uuid.UUID
	CustomerName  string
	Account       CreditAccount
	CashAmount    decimal.Decimal
	CreditAmount  decimal.Decimal
	Method        PaymentMethod
	Reference     string
	ReceiptNumber int
}

// SettlementResult is everything one settlement produced. The caller owns
// persisting it atomically.
type SettlementResult struct {
	Payments        []*Payment
	Applications    []*PaymentApplication
	Receipt         *Receipt
	CreditConsumed  decimal.Decimal
	SurplusCredited decimal.Decimal
}

// TotalApplied sums the amounts applied to invoices
func (r *SettlementResult) TotalApplied() decimal.Decimal {
	total := decimal.Zero
	for _, app := range r.Applications {
		total = total.Add(app.Amount)
	}
	return total
}

// SettlementService is the domain service that distributes one combined
// payment across multiple outstanding invoices. Funding is drawn credit
// first: while the remaining amount fits inside the unconsumed credit the
// payments are tagged CREDIT_BALANCE, the invoice that straddles the
// credit/cash boundary settles with a split pair of payments, and
// everything after that is funded by the settlement method. Any remainder
// after the last invoice becomes customer credit.
type SettlementService struct{}

// NewSettlementService creates a new SettlementService
func NewSettlementService() *SettlementService {
	return &SettlementService{}
}

// Settle runs the allocation. It mutates the invoices and the customer
// account in memory; persistence stays with the caller.
func (s *SettlementService) Settle(input SettlementInput) (*SettlementResult, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	// Debit the drawn credit up front; surplus comes back at the end
	if input.CreditAmount.IsPositive() {
		if err := input.Account.DeductCredit(input.CreditAmount); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	remaining := input.CashAmount.Add(input.CreditAmount)
	creditConsumed := decimal.Zero

	payments := make([]*Payment, 0, len(input.Invoices))
	applications := make([]*PaymentApplication, 0, len(input.Invoices))

	apply := func(inv *Invoice, amount decimal.Decimal, method PaymentMethod, settlesInvoice bool) error {
		payment, err := NewPayment(input.CustomerID, amount, method, input.Reference, now, input.ReceiptNumber)
		if err != nil {
			return err
		}
		if settlesInvoice {
			err = inv.RegisterFullPayment(payment)
		} else {
			err = inv.RegisterPartialPayment(payment)
		}
		if err != nil {
			return err
		}
		app, err := NewPaymentApplication(payment, inv, amount)
		if err != nil {
			return err
		}
		payments = append(payments, payment)
		applications = append(applications, app)
		return nil
	}

	for _, inv := range input.Invoices {
		if !remaining.IsPositive() {
			break
		}

		due := inv.OutstandingBalance
		applyAmount := decimal.Min(remaining, due)
		settles := applyAmount.Equal(due)
		creditLeft := input.CreditAmount.Sub(creditConsumed)

		switch {
		case applyAmount.LessThanOrEqual(creditLeft):
			// Credit funds the application stream first: this invoice fits
			// entirely in the unconsumed credit, no method-tagged payment
			if err := apply(inv, applyAmount, PaymentMethodCreditBalance, settles); err != nil {
				return nil, err
			}
			creditConsumed = creditConsumed.Add(applyAmount)

		case creditLeft.IsPositive() && applyAmount.GreaterThan(creditLeft):
			// This invoice straddles the credit/cash boundary: one payment
			// drains the credit, a second funds the rest from the method
			if err := apply(inv, creditLeft, PaymentMethodCreditBalance, false); err != nil {
				return nil, err
			}
			if err := apply(inv, applyAmount.Sub(creditLeft), input.Method, settles); err != nil {
				return nil, err
			}
			creditConsumed = input.CreditAmount

		default:
			if err := apply(inv, applyAmount, input.Method, settles); err != nil {
				return nil, err
			}
		}

		remaining = remaining.Sub(applyAmount)
	}

	surplus := decimal.Zero
	if remaining.IsPositive() {
		surplus = remaining
		if err := input.Account.AddCredit(surplus); err != nil {
			return nil, err
		}
	}

	receipt, err := BuildReceipt(
		input.ReceiptNumber,
		input.CustomerID,
		input.CustomerName,
		payments,
		applications,
		creditConsumed,
		surplus,
	)
	if err != nil {
		return nil, err
	}

	return &SettlementResult{
		Payments:        payments,
		Applications:    applications,
		Receipt:         receipt,
		CreditConsumed:  creditConsumed,
		SurplusCredited: surplus,
	}, nil
}

func (s *SettlementService) validate(input SettlementInput) error {
	if len(input.Invoices) == 0 {
		return shared.NewValidationError("NO_INVOICES", "At least one invoice is required")
	}
	if input.CustomerID == uuid.Nil {
		return shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if input.Account == nil {
		return shared.NewValidationError("INVALID_ACCOUNT", "Customer account is required")
	}
	if input.CashAmount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Cash amount cannot be negative")
	}
	if input.CreditAmount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Credit amount cannot be negative")
	}
	if !input.CashAmount.Add(input.CreditAmount).IsPositive() {
		return shared.NewValidationError("NON_POSITIVE_TOTAL", "Combined payment amount must be positive")
	}
	if input.CashAmount.IsPositive() {
		if !input.Method.IsValid() || input.Method == PaymentMethodCreditBalance {
			return shared.NewValidationError("INVALID_METHOD", "A settlement method is required for the cash portion")
		}
	}
	if len(input.Reference) > maxReferenceLength {
		return shared.NewValidationError("REFERENCE_TOO_LONG", "Payment reference cannot exceed 500 characters")
	}
	if input.ReceiptNumber <= 0 {
		return shared.NewValidationError("INVALID_RECEIPT_NUMBER", "Receipt number must be positive")
	}

	for _, inv := range input.Invoices {
		if inv == nil {
			return shared.NewValidationError("INVALID_INVOICE", "Invoice cannot be nil")
		}
		if inv.CustomerID != input.CustomerID {
			return shared.NewValidationError("MULTIPLE_CUSTOMERS",
				"All invoices in a combined payment must belong to the same customer")
		}
		if inv.OutstandingBalance.IsZero() {
			return shared.NewValidationError("NOTHING_OUTSTANDING",
				"Invoice "+inv.FormattedNumber()+" has no outstanding balance")
		}
		if !inv.Status.CanApplyPayment() {
			return shared.NewStateError("INVALID_STATE",
				"Invoice "+inv.FormattedNumber()+" cannot receive payments in "+inv.Status.String()+" status")
		}
	}

	return nil
}
