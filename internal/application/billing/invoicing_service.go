package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/domain/shared/valueobject"
	"github.com/facturador/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoicingService issues, voids and queries individual invoices
type InvoicingService struct {
	invoiceRepo  billing.InvoiceRepository
	customerRepo partner.CustomerRepository
	serviceRepo  partner.ContractedServiceRepository
	sequenceRepo billing.SequenceRepository
	uow          UnitOfWork
	eventBus     shared.EventBus
	issuer       IssuerConfig
}

// NewInvoicingService creates a new InvoicingService
func NewInvoicingService(
	invoiceRepo billing.InvoiceRepository,
	customerRepo partner.CustomerRepository,
	serviceRepo partner.ContractedServiceRepository,
	sequenceRepo billing.SequenceRepository,
	uow UnitOfWork,
	eventBus shared.EventBus,
	issuer IssuerConfig,
) *InvoicingService {
	return &InvoicingService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		serviceRepo:  serviceRepo,
		sequenceRepo: sequenceRepo,
		uow:          uow,
		eventBus:     eventBus,
		issuer:       issuer,
	}
}

// LineRequest is one line of an invoice issuance request
type LineRequest struct {
	Description     string          `json:"description" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity        int64           `json:"quantity" binding:"required,min=1"`
	TaxRateCategory string          `json:"tax_rate_category" binding:"required"`
}

// IssueInvoiceRequest asks for a full-price invoice for a customer
type IssueInvoiceRequest struct {
	CustomerID      uuid.UUID        `json:"customer_id" binding:"required"`
	Lines           []LineRequest    `json:"lines" binding:"required,min=1,dive"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	DiscountReason  string           `json:"discount_reason,omitempty"`
	IssueDate       *time.Time       `json:"issue_date,omitempty"`
	Period          *time.Time       `json:"period,omitempty"`
}

// IssueProratedInvoiceRequest asks for an invoice covering part of a month,
// priced from the customer's active subscriptions
type IssueProratedInvoiceRequest struct {
	CustomerID  uuid.UUID `json:"customer_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

// IssueInvoice creates and persists an invoice from explicit lines
func (s *InvoicingService) IssueInvoice(ctx context.Context, req IssueInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoicing", "issue")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, req.CustomerID.String())

	customer, err := s.loadActiveCustomer(ctx, req.CustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	issueDate := time.Now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	period := issueDate
	if req.Period != nil {
		period = *req.Period
	}

	var invoice *billing.Invoice
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		number, err := s.sequenceRepo.NextInvoiceNumber(ctx, s.issuer.Series)
		if err != nil {
			return fmt.Errorf("failed to obtain invoice number: %w", err)
		}

		invoice, err = billing.NewInvoice(
			s.issuer.Series,
			number,
			customer.ID,
			customer.Name,
			issueDate,
			issueDate.AddDate(0, 0, s.issuer.DueDays),
			period,
			billing.DetermineInvoiceType(s.issuer.TaxCategory, customer.TaxCategory),
		)
		if err != nil {
			return err
		}

		for _, lr := range req.Lines {
			line, err := billing.NewInvoiceLine(
				lr.Description,
				valueobject.NewMoneyARS(lr.UnitPrice),
				lr.Quantity,
				billing.TaxRateCategory(lr.TaxRateCategory),
			)
			if err != nil {
				return err
			}
			if err := invoice.AddLine(line); err != nil {
				return err
			}
		}

		if req.DiscountPercent != nil {
			if err := invoice.ApplyDiscount(*req.DiscountPercent, req.DiscountReason); err != nil {
				return err
			}
		}

		return s.invoiceRepo.Save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, invoice)
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceNumber, invoice.FormattedNumber())

	return toInvoiceResponse(invoice), nil
}

// IssueProratedInvoice creates an invoice whose lines are the customer's
// active subscriptions prorated to the requested period
func (s *InvoicingService) IssueProratedInvoice(ctx context.Context, req IssueProratedInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoicing", "issue_prorated")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, req.CustomerID.String())

	customer, err := s.loadActiveCustomer(ctx, req.CustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	period, err := billing.NewBillingPeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	services, err := s.serviceRepo.FindActiveByCustomer(ctx, customer.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load contracted services: %w", err)
	}
	if len(services) == 0 {
		err := shared.NewValidationError("NO_SERVICES", "Customer has no active contracted services")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var invoice *billing.Invoice
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		number, err := s.sequenceRepo.NextInvoiceNumber(ctx, s.issuer.Series)
		if err != nil {
			return fmt.Errorf("failed to obtain invoice number: %w", err)
		}

		issueDate := time.Now()
		invoice, err = billing.NewInvoice(
			s.issuer.Series,
			number,
			customer.ID,
			customer.Name,
			issueDate,
			issueDate.AddDate(0, 0, s.issuer.DueDays),
			period.Start(),
			billing.DetermineInvoiceType(s.issuer.TaxCategory, customer.TaxCategory),
		)
		if err != nil {
			return err
		}

		for _, svc := range services {
			line, err := billing.NewProratedLine(
				svc.ServiceName,
				svc.GetPriceMoney(),
				1,
				svc.TaxRateCategory,
				period,
			)
			if err != nil {
				return err
			}
			if err := invoice.AddLine(line); err != nil {
				return err
			}
		}

		return s.invoiceRepo.Save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, invoice)

	return toInvoiceResponse(invoice), nil
}

// VoidInvoice reverses an invoice, issuing its credit note
func (s *InvoicingService) VoidInvoice(ctx context.Context, invoiceID uuid.UUID, reason string) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoicing", "void")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	var invoice *billing.Invoice
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.loadInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}

		noteNumber, err := s.sequenceRepo.NextCreditNoteNumber(ctx, invoice.Series)
		if err != nil {
			return fmt.Errorf("failed to obtain credit note number: %w", err)
		}

		if _, err := invoice.Void(reason, noteNumber); err != nil {
			return err
		}

		return s.invoiceRepo.Save(ctx, invoice)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, invoice)

	return toInvoiceResponse(invoice), nil
}

// GetInvoice returns one invoice, refreshing its overdue status on read
func (s *InvoicingService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := s.refreshOverdue(ctx, invoice); err != nil {
		return nil, err
	}

	return toInvoiceResponse(invoice), nil
}

// ListInvoices returns invoices with paging, refreshing overdue status
func (s *InvoicingService) ListInvoices(ctx context.Context, filter shared.Filter) ([]*InvoiceResponse, int64, error) {
	page, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(ctx, page.Items, page.Total)
}

// ListCustomerInvoices returns one customer's invoices with paging
func (s *InvoicingService) ListCustomerInvoices(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*InvoiceResponse, int64, error) {
	page, err := s.invoiceRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(ctx, page.Items, page.Total)
}

func (s *InvoicingService) toResponses(ctx context.Context, invoices []*billing.Invoice, total int64) ([]*InvoiceResponse, int64, error) {
	responses := make([]*InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		if err := s.refreshOverdue(ctx, inv); err != nil {
			return nil, 0, err
		}
		responses = append(responses, toInvoiceResponse(inv))
	}
	return responses, total, nil
}

// refreshOverdue persists the PENDING to OVERDUE transition when it fires
func (s *InvoicingService) refreshOverdue(ctx context.Context, invoice *billing.Invoice) error {
	if !invoice.RefreshOverdueStatus(time.Now()) {
		return nil
	}
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return fmt.Errorf("failed to persist overdue transition: %w", err)
	}
	s.publishEvents(ctx, invoice)
	return nil
}

func (s *InvoicingService) loadInvoice(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewValidationError("INVOICE_NOT_FOUND", "Invoice not found")
	}
	return invoice, nil
}

func (s *InvoicingService) loadActiveCustomer(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewValidationError("CUSTOMER_NOT_FOUND", "Customer not found")
	}
	if !customer.IsActive() {
		return nil, shared.NewStateError("INACTIVE_CUSTOMER", "Cannot invoice an inactive customer")
	}
	return customer, nil
}

func (s *InvoicingService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventBus == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Event delivery is best effort, the state change already committed
	_ = s.eventBus.Publish(ctx, events...)
	aggregate.ClearDomainEvents()
}
