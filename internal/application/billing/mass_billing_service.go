package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const massBillingLockTTL = 10 * time.Minute

// MassBillingService runs the monthly billing cycle: one invoice per active
// customer with subscriptions, all grouped under a batch. A run lock keeps
// two runs for the same period from racing, and an already-billed period is
// rejected outright.
type MassBillingService struct {
	invoiceRepo  billing.InvoiceRepository
	batchRepo    billing.InvoiceBatchRepository
	customerRepo partner.CustomerRepository
	sequenceRepo billing.SequenceRepository
	uow          UnitOfWork
	runLock      RunLock
	eventBus     shared.EventBus
	issuer       IssuerConfig
	logger       *zap.Logger
}

// NewMassBillingService creates a new MassBillingService
func NewMassBillingService(
	invoiceRepo billing.InvoiceRepository,
	batchRepo billing.InvoiceBatchRepository,
	customerRepo partner.CustomerRepository,
	sequenceRepo billing.SequenceRepository,
	uow UnitOfWork,
	runLock RunLock,
	eventBus shared.EventBus,
	issuer IssuerConfig,
	logger *zap.Logger,
) *MassBillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MassBillingService{
		invoiceRepo:  invoiceRepo,
		batchRepo:    batchRepo,
		customerRepo: customerRepo,
		sequenceRepo: sequenceRepo,
		uow:          uow,
		runLock:      runLock,
		eventBus:     eventBus,
		issuer:       issuer,
		logger:       logger,
	}
}

// RunMonthlyBillingRequest asks for a mass-billing run over one period
type RunMonthlyBillingRequest struct {
	Period  time.Time  `json:"period" binding:"required"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// RunMonthlyBilling bills every active customer with subscriptions for the
// given month and returns the resulting batch
func (s *MassBillingService) RunMonthlyBilling(ctx context.Context, req RunMonthlyBillingRequest) (*BatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "mass_billing", "run")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPeriod, req.Period.Format("2006-01"))

	lockKey := fmt.Sprintf("mass_billing:%s", req.Period.Format("2006-01"))
	if s.runLock != nil {
		acquired, err := s.runLock.Acquire(ctx, lockKey, massBillingLockTTL)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to acquire billing lock: %w", err)
		}
		if !acquired {
			err := shared.NewStateError("BILLING_RUN_IN_PROGRESS", "A billing run for this period is already in progress")
			telemetry.RecordError(span, err)
			return nil, err
		}
		defer func() {
			if err := s.runLock.Release(ctx, lockKey); err != nil {
				s.logger.Warn("failed to release billing lock", zap.String("key", lockKey), zap.Error(err))
			}
		}()
	}

	exists, err := s.batchRepo.ExistsActiveForPeriod(ctx, req.Period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check billed periods: %w", err)
	}
	if exists {
		err := shared.NewStateError("DUPLICATE_PERIOD", "The period has already been billed")
		telemetry.RecordError(span, err)
		return nil, err
	}

	customers, err := s.customerRepo.FindActiveWithServices(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	period := billing.FullMonth(req.Period)
	issueDate := time.Now()
	dueDate := period.End().AddDate(0, 0, s.issuer.DueDays)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	// Billing a past period (re-running a voided month, catch-up runs) must
	// not produce a due date behind the issue date; grant the configured
	// payment window from today instead
	if dueDate.Before(issueDate) {
		dueDate = issueDate.AddDate(0, 0, s.issuer.DueDays)
	}

	var batch *billing.InvoiceBatch
	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		batch, err = billing.NewInvoiceBatch(req.Period, dueDate)
		if err != nil {
			return err
		}

		for _, cws := range customers {
			if len(cws.Services) == 0 {
				continue
			}

			invoice, err := s.buildMonthlyInvoice(ctx, cws, period, issueDate, dueDate)
			if err != nil {
				return err
			}
			if err := batch.AddInvoice(invoice); err != nil {
				return err
			}
			if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
				return fmt.Errorf("failed to save invoice %s: %w", invoice.FormattedNumber(), err)
			}
		}

		batch.MarkCompleted()
		return s.batchRepo.Save(ctx, batch)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("mass billing run completed",
		zap.String("period", batch.PeriodLabel),
		zap.Int("invoices", batch.InvoiceCount),
		zap.String("total", batch.TotalAmount.String()),
	)

	s.publishEvents(ctx, batch)
	for _, inv := range batch.Invoices {
		s.publishEvents(ctx, inv)
	}

	return toBatchResponse(batch), nil
}

func (s *MassBillingService) buildMonthlyInvoice(
	ctx context.Context,
	cws *partner.CustomerWithServices,
	period billing.BillingPeriod,
	issueDate time.Time,
	dueDate time.Time,
) (*billing.Invoice, error) {
	number, err := s.sequenceRepo.NextInvoiceNumber(ctx, s.issuer.Series)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain invoice number: %w", err)
	}

	invoice, err := billing.NewInvoice(
		s.issuer.Series,
		number,
		cws.Customer.ID,
		cws.Customer.Name,
		issueDate,
		dueDate,
		period.Start(),
		billing.DetermineInvoiceType(s.issuer.TaxCategory, cws.Customer.TaxCategory),
	)
	if err != nil {
		return nil, err
	}

	for _, svc := range cws.Services {
		line, err := billing.NewProratedLine(svc.ServiceName, svc.GetPriceMoney(), 1, svc.TaxRateCategory, period)
		if err != nil {
			return nil, err
		}
		if err := invoice.AddLine(line); err != nil {
			return nil, err
		}
	}

	return invoice, nil
}

// VoidBatch reverses a whole billing run, cascading a credit note to every
// invoice in the batch
func (s *MassBillingService) VoidBatch(ctx context.Context, batchID uuid.UUID, reason string) (*BatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "mass_billing", "void_batch")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBatchID, batchID.String())

	var batch *billing.InvoiceBatch
	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.loadBatch(ctx, batchID)
		if err != nil {
			return err
		}

		invoices, err := s.invoiceRepo.FindByBatch(ctx, batchID)
		if err != nil {
			return fmt.Errorf("failed to load batch invoices: %w", err)
		}
		batch.Invoices = invoices

		if _, err := batch.Void(reason, func() (int, error) {
			return s.sequenceRepo.NextCreditNoteNumber(ctx, s.issuer.Series)
		}); err != nil {
			return err
		}

		for _, inv := range invoices {
			if err := s.invoiceRepo.Save(ctx, inv); err != nil {
				return fmt.Errorf("failed to save invoice %s: %w", inv.FormattedNumber(), err)
			}
		}
		return s.batchRepo.Save(ctx, batch)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, batch)
	for _, inv := range batch.Invoices {
		s.publishEvents(ctx, inv)
	}

	return toBatchResponse(batch), nil
}

// GetBatch returns one batch
func (s *MassBillingService) GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	batch, err := s.loadBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return toBatchResponse(batch), nil
}

// ListBatches returns batches with paging
func (s *MassBillingService) ListBatches(ctx context.Context, filter shared.Filter) ([]*BatchResponse, int64, error) {
	page, err := s.batchRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*BatchResponse, 0, len(page.Items))
	for _, b := range page.Items {
		responses = append(responses, toBatchResponse(b))
	}
	return responses, page.Total, nil
}

func (s *MassBillingService) loadBatch(ctx context.Context, id uuid.UUID) (*billing.InvoiceBatch, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	if batch == nil {
		return nil, shared.NewValidationError("BATCH_NOT_FOUND", "Billing batch not found")
	}
	return batch, nil
}

func (s *MassBillingService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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
