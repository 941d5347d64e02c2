package billing

import (
	"context"
	"testing"
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type massBillingFixture struct {
	service      *MassBillingService
	invoiceRepo  *memInvoiceRepo
	batchRepo    *memBatchRepo
	customerRepo *memCustomerRepo
	sequenceRepo *memSequenceRepo
	runLock      *memRunLock
	eventBus     *recordingEventBus
}

func newMassBillingFixture(t *testing.T) *massBillingFixture {
	t.Helper()
	f := &massBillingFixture{
		invoiceRepo:  newMemInvoiceRepo(),
		batchRepo:    newMemBatchRepo(),
		customerRepo: newMemCustomerRepo(),
		sequenceRepo: newMemSequenceRepo(),
		runLock:      newMemRunLock(),
		eventBus:     &recordingEventBus{},
	}
	f.service = NewMassBillingService(
		f.invoiceRepo, f.batchRepo, f.customerRepo, f.sequenceRepo,
		NoOpUnitOfWork{}, f.runLock, f.eventBus, testIssuer(), nil,
	)
	return f
}

func (f *massBillingFixture) addSubscriber(t *testing.T, code, name string, prices ...float64) *partner.Customer {
	t.Helper()
	customer, err := partner.NewCustomer(code, name, "20-12345678-3", billing.TaxCategoryConsumer)
	require.NoError(t, err)
	require.NoError(t, f.customerRepo.Save(context.Background(), customer))

	services := make([]*partner.ContractedService, 0, len(prices))
	for _, price := range prices {
		svc, err := partner.NewContractedService(customer.ID, "Internet 50MB", decimal.NewFromFloat(price), billing.TaxRateGeneral)
		require.NoError(t, err)
		services = append(services, svc)
	}
	f.customerRepo.withServices = append(f.customerRepo.withServices, &partner.CustomerWithServices{
		Customer: customer,
		Services: services,
	})
	return customer
}

func june2025() time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestMassBillingService_RunMonthlyBilling(t *testing.T) {
	ctx := context.Background()

	t.Run("bills every subscriber once for the month", func(t *testing.T) {
		f := newMassBillingFixture(t)
		first := f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)
		second := f.addSubscriber(t, "CLI-002", "Ana Gomez", 15000, 8000)

		resp, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})

		require.NoError(t, err)
		assert.Equal(t, "Junio 2025", resp.PeriodLabel)
		assert.Equal(t, 2, resp.InvoiceCount)
		// 15000*1.21 + (15000+8000)*1.21
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromFloat(45980)), "got %s", resp.TotalAmount)
		assert.Contains(t, f.eventBus.eventTypes(), billing.EventBatchCompleted)

		firstInvoices, err := f.invoiceRepo.FindOutstandingByCustomer(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, firstInvoices, 1)
		assert.Equal(t, "0001-00000001", firstInvoices[0].FormattedNumber())
		assert.NotNil(t, firstInvoices[0].BatchID)

		secondInvoices, err := f.invoiceRepo.FindOutstandingByCustomer(ctx, second.ID)
		require.NoError(t, err)
		require.Len(t, secondInvoices, 1)
		assert.Len(t, secondInvoices[0].Lines, 2)
	})

	t.Run("past period keeps the payment window from today", func(t *testing.T) {
		f := newMassBillingFixture(t)
		customer := f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)

		// June 2025 is long gone; the period-end due date would land before
		// the issue date and the invoices would be unbuildable
		resp, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.InvoiceCount)

		invoices, err := f.invoiceRepo.FindOutstandingByCustomer(ctx, customer.ID)
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.False(t, invoices[0].DueDate.Before(invoices[0].IssueDate))
		assert.Equal(t, invoices[0].IssueDate.AddDate(0, 0, testIssuer().DueDays), invoices[0].DueDate)
	})

	t.Run("subscriber without services is skipped", func(t *testing.T) {
		f := newMassBillingFixture(t)
		f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)
		f.addSubscriber(t, "CLI-002", "Ana Gomez")

		resp, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})

		require.NoError(t, err)
		assert.Equal(t, 1, resp.InvoiceCount)
	})

	t.Run("already billed period is rejected", func(t *testing.T) {
		f := newMassBillingFixture(t)
		f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)

		_, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})
		require.NoError(t, err)

		_, err = f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})
		assert.True(t, shared.IsStateError(err))
	})

	t.Run("concurrent run for the same period is rejected", func(t *testing.T) {
		f := newMassBillingFixture(t)
		f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)
		held, err := f.runLock.Acquire(ctx, "mass_billing:2025-06", time.Minute)
		require.NoError(t, err)
		require.True(t, held)

		_, err = f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})

		assert.True(t, shared.IsStateError(err))
	})

	t.Run("lock is released after the run", func(t *testing.T) {
		f := newMassBillingFixture(t)
		f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)

		_, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})
		require.NoError(t, err)

		held, err := f.runLock.Acquire(ctx, "mass_billing:2025-06", time.Minute)
		require.NoError(t, err)
		assert.True(t, held)
	})

	t.Run("due date defaults to ten days past month end", func(t *testing.T) {
		f := newMassBillingFixture(t)
		f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)

		resp, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})

		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), resp.DueDate)
	})
}

func TestMassBillingService_VoidBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("voids every invoice with its own credit note", func(t *testing.T) {
		f := newMassBillingFixture(t)
		f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)
		f.addSubscriber(t, "CLI-002", "Ana Gomez", 8000)

		run, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})
		require.NoError(t, err)

		resp, err := f.service.VoidBatch(ctx, run.ID, "periodo mal facturado")

		require.NoError(t, err)
		assert.True(t, resp.Voided)
		assert.Equal(t, "periodo mal facturado", resp.VoidReason)

		invoices, err := f.invoiceRepo.FindByBatch(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, invoices, 2)
		seen := make(map[int]bool)
		for _, inv := range invoices {
			assert.Equal(t, billing.InvoiceStatusVoided, inv.Status)
			assert.True(t, inv.OutstandingBalance.IsZero())
			require.Len(t, inv.CreditNotes, 1)
			assert.False(t, seen[inv.CreditNotes[0].Number], "credit note number reused")
			seen[inv.CreditNotes[0].Number] = true
		}
	})

	t.Run("batch with a paid invoice cannot be voided", func(t *testing.T) {
		f := newMassBillingFixture(t)
		customer := f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)

		run, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})
		require.NoError(t, err)

		invoices, err := f.invoiceRepo.FindOutstandingByCustomer(ctx, customer.ID)
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		payment, err := billing.NewPayment(customer.ID, invoices[0].OutstandingBalance, billing.PaymentMethodCash, "", time.Now(), 1)
		require.NoError(t, err)
		require.NoError(t, invoices[0].RegisterFullPayment(payment))

		_, err = f.service.VoidBatch(ctx, run.ID, "periodo mal facturado")

		assert.True(t, shared.IsStateError(err))
	})

	t.Run("unknown batch is rejected", func(t *testing.T) {
		f := newMassBillingFixture(t)

		_, err := f.service.VoidBatch(ctx, uuid.New(), "error")

		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("voided period can be billed again", func(t *testing.T) {
		f := newMassBillingFixture(t)
		f.addSubscriber(t, "CLI-001", "Juan Perez", 15000)

		run, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})
		require.NoError(t, err)
		_, err = f.service.VoidBatch(ctx, run.ID, "periodo mal facturado")
		require.NoError(t, err)

		again, err := f.service.RunMonthlyBilling(ctx, RunMonthlyBillingRequest{Period: june2025()})

		require.NoError(t, err)
		assert.Equal(t, 1, again.InvoiceCount)
	})
}
