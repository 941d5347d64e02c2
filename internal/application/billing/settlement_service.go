package billing

import (
	"context"
	"fmt"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementService resolves a combined-payment request into aggregates,
// runs the domain allocation engine and persists the outcome as one unit.
type SettlementService struct {
	invoiceRepo  billing.InvoiceRepository
	paymentRepo  billing.PaymentRepository
	customerRepo partner.CustomerRepository
	sequenceRepo billing.SequenceRepository
	engine       *billing.SettlementService
	uow          UnitOfWork
	eventBus     shared.EventBus
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	customerRepo partner.CustomerRepository,
	sequenceRepo billing.SequenceRepository,
	uow UnitOfWork,
	eventBus shared.EventBus,
) *SettlementService {
	return &SettlementService{
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		sequenceRepo: sequenceRepo,
		engine:       billing.NewSettlementService(),
		uow:          uow,
		eventBus:     eventBus,
	}
}

// CollectPaymentRequest asks to settle several invoices with one combined
// payment, optionally drawing on the customer's credit balance
type CollectPaymentRequest struct {
	InvoiceIDs   []uuid.UUID     `json:"invoice_ids" binding:"required,min=1"`
	CashAmount   decimal.Decimal `json:"cash_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	Method       string          `json:"method"`
	Reference    string          `json:"reference,omitempty"`
}

// CollectCombinedPayment runs one settlement end to end and returns the
// consolidated receipt
func (s *SettlementService) CollectCombinedPayment(ctx context.Context, req CollectPaymentRequest) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "collect")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAmount, req.CashAmount.String(),
		telemetry.SpanAttrCreditAmount, req.CreditAmount.String(),
		telemetry.SpanAttrMethod, req.Method,
	)

	var receipt *billing.Receipt
	var invoices []*billing.Invoice
	var customer *partner.Customer

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		invoices, err = s.resolveInvoices(ctx, req.InvoiceIDs)
		if err != nil {
			return err
		}

		customer, err = s.customerRepo.FindByID(ctx, invoices[0].CustomerID)
		if err != nil {
			return fmt.Errorf("failed to load customer: %w", err)
		}
		if customer == nil {
			return shared.NewValidationError("CUSTOMER_NOT_FOUND", "Customer not found")
		}

		receiptNumber, err := s.sequenceRepo.NextReceiptNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain receipt number: %w", err)
		}

		result, err := s.engine.Settle(billing.SettlementInput{
			Invoices:      invoices,
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			Account:       customer,
			CashAmount:    req.CashAmount,
			CreditAmount:  req.CreditAmount,
			Method:        billing.PaymentMethod(req.Method),
			Reference:     req.Reference,
			ReceiptNumber: receiptNumber,
		})
		if err != nil {
			return err
		}
		receipt = result.Receipt

		for _, inv := range invoices {
			if err := s.invoiceRepo.Save(ctx, inv); err != nil {
				return fmt.Errorf("failed to save invoice %s: %w", inv.FormattedNumber(), err)
			}
		}
		if err := s.customerRepo.Save(ctx, customer); err != nil {
			return fmt.Errorf("failed to save customer: %w", err)
		}
		for _, payment := range result.Payments {
			apps := applicationsOf(payment, result.Applications)
			if err := s.paymentRepo.Save(ctx, payment, apps); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrReceiptNumber, receipt.FormattedNumber())

	for _, inv := range invoices {
		s.publishEvents(ctx, inv)
	}
	s.publishEvents(ctx, customer)

	return toReceiptResponse(receipt), nil
}

// GetReceipt rebuilds a receipt view from the stored payments sharing the
// receipt number
func (s *SettlementService) GetReceipt(ctx context.Context, receiptNumber int) (*ReceiptResponse, error) {
	payments, err := s.paymentRepo.FindByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	if len(payments) == 0 {
		return nil, shared.NewValidationError("RECEIPT_NOT_FOUND", "Receipt not found")
	}

	applications, err := s.paymentRepo.FindApplicationsByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment applications: %w", err)
	}

	customer, err := s.customerRepo.FindByID(ctx, payments[0].CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	customerName := ""
	if customer != nil {
		customerName = customer.Name
	}

	creditConsumed := decimal.Zero
	for _, p := range payments {
		if p.IsCreditFunded() {
			creditConsumed = creditConsumed.Add(p.Amount)
		}
	}

	// Payments only record amounts applied to invoices, so a surplus that was
	// credited back at settlement time cannot be recovered here. The rebuilt
	// view totals the applied amounts and the surplus observation appears only
	// on the receipt returned by the settlement itself.
	receipt, err := billing.BuildReceipt(
		receiptNumber,
		payments[0].CustomerID,
		customerName,
		payments,
		applications,
		creditConsumed,
		decimal.Zero,
	)
	if err != nil {
		return nil, err
	}

	return toReceiptResponse(receipt), nil
}

// resolveInvoices loads every target invoice, rejecting missing IDs
func (s *SettlementService) resolveInvoices(ctx context.Context, ids []uuid.UUID) ([]*billing.Invoice, error) {
	if len(ids) == 0 {
		return nil, shared.NewValidationError("NO_INVOICES", "At least one invoice ID is required")
	}

	invoices, err := s.invoiceRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	byID := make(map[uuid.UUID]*billing.Invoice, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID] = inv
	}

	// keep the request order, it is the allocation order
	ordered := make([]*billing.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, ok := byID[id]
		if !ok {
			return nil, shared.NewValidationError("INVOICE_NOT_FOUND",
				fmt.Sprintf("Invoice %s not found", id))
		}
		ordered = append(ordered, inv)
	}
	return ordered, nil
}

func applicationsOf(payment *billing.Payment, all []*billing.PaymentApplication) []*billing.PaymentApplication {
	apps := make([]*billing.PaymentApplication, 0, 1)
	for _, app := range all {
		if app.PaymentID == payment.ID {
			apps = append(apps, app)
		}
	}
	return apps
}

func (s *SettlementService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventBus == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventBus.Publish(ctx, events...)
	aggregate.ClearDomainEvents()
}
