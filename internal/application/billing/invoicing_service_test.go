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

func testIssuer() IssuerConfig {
	return IssuerConfig{
		Series:      1,
		DueDays:     10,
		TaxCategory: billing.TaxCategoryRegistered,
	}
}

type invoicingFixture struct {
	service      *InvoicingService
	invoiceRepo  *memInvoiceRepo
	customerRepo *memCustomerRepo
	serviceRepo  *memServiceRepo
	sequenceRepo *memSequenceRepo
	eventBus     *recordingEventBus
}

func newInvoicingFixture(t *testing.T) *invoicingFixture {
	t.Helper()
	f := &invoicingFixture{
		invoiceRepo:  newMemInvoiceRepo(),
		customerRepo: newMemCustomerRepo(),
		serviceRepo:  newMemServiceRepo(),
		sequenceRepo: newMemSequenceRepo(),
		eventBus:     &recordingEventBus{},
	}
	f.service = NewInvoicingService(
		f.invoiceRepo, f.customerRepo, f.serviceRepo, f.sequenceRepo,
		NoOpUnitOfWork{}, f.eventBus, testIssuer(),
	)
	return f
}

func (f *invoicingFixture) addCustomer(t *testing.T, taxCategory billing.TaxCategory) *partner.Customer {
	t.Helper()
	customer, err := partner.NewCustomer("CLI-001", "Juan Perez", "20-12345678-3", taxCategory)
	require.NoError(t, err)
	require.NoError(t, f.customerRepo.Save(context.Background(), customer))
	return customer
}

func TestInvoicingService_IssueInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("issues invoice with sequential number and taxed lines", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)

		resp, err := f.service.IssueInvoice(ctx, IssueInvoiceRequest{
			CustomerID: customer.ID,
			Lines: []LineRequest{
				{Description: "Internet 50MB", UnitPrice: decimal.NewFromInt(15000), Quantity: 1, TaxRateCategory: "R21"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "0001-00000001", resp.Number)
		assert.Equal(t, "B", resp.Type)
		assert.Equal(t, "PENDING", resp.Status)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(18150)))
		assert.True(t, resp.OutstandingBalance.Equal(resp.Total))
		assert.Contains(t, f.eventBus.eventTypes(), billing.EventInvoiceIssued)
	})

	t.Run("registered customer gets type A", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryRegistered)

		resp, err := f.service.IssueInvoice(ctx, IssueInvoiceRequest{
			CustomerID: customer.ID,
			Lines: []LineRequest{
				{Description: "Hosting", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, TaxRateCategory: "R21"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "A", resp.Type)
	})

	t.Run("applies discount without touching the tax base", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)
		discount := decimal.NewFromInt(10)

		resp, err := f.service.IssueInvoice(ctx, IssueInvoiceRequest{
			CustomerID: customer.ID,
			Lines: []LineRequest{
				{Description: "Internet 50MB", UnitPrice: decimal.NewFromInt(15000), Quantity: 1, TaxRateCategory: "R21"},
			},
			DiscountPercent: &discount,
			DiscountReason:  "volumen",
		})

		require.NoError(t, err)
		assert.True(t, resp.DiscountAmount.Equal(decimal.NewFromInt(1500)))
		assert.True(t, resp.TaxTotal.Equal(decimal.NewFromInt(3150)))
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(16650)))
	})

	t.Run("unknown customer is rejected", func(t *testing.T) {
		f := newInvoicingFixture(t)

		_, err := f.service.IssueInvoice(ctx, IssueInvoiceRequest{
			CustomerID: uuid.New(),
			Lines: []LineRequest{
				{Description: "Hosting", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, TaxRateCategory: "R21"},
			},
		})

		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("suspended customer is rejected", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)
		require.NoError(t, customer.Suspend())

		_, err := f.service.IssueInvoice(ctx, IssueInvoiceRequest{
			CustomerID: customer.ID,
			Lines: []LineRequest{
				{Description: "Hosting", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, TaxRateCategory: "R21"},
			},
		})

		assert.True(t, shared.IsStateError(err))
	})

	t.Run("numbers advance across invoices", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)
		req := IssueInvoiceRequest{
			CustomerID: customer.ID,
			Lines: []LineRequest{
				{Description: "Hosting", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, TaxRateCategory: "R21"},
			},
		}

		first, err := f.service.IssueInvoice(ctx, req)
		require.NoError(t, err)
		second, err := f.service.IssueInvoice(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, "0001-00000001", first.Number)
		assert.Equal(t, "0001-00000002", second.Number)
	})
}

func TestInvoicingService_IssueProratedInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("prorates active subscriptions over the period", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)
		svc, err := partner.NewContractedService(customer.ID, "Internet 50MB", decimal.NewFromInt(15000), billing.TaxRateGeneral)
		require.NoError(t, err)
		require.NoError(t, f.serviceRepo.Save(ctx, svc))

		resp, err := f.service.IssueProratedInvoice(ctx, IssueProratedInvoiceRequest{
			CustomerID:  customer.ID,
			PeriodStart: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		// 15000 * 16/30 = 0.5333 proportion
		assert.True(t, resp.Lines[0].UnitPrice.Equal(decimal.NewFromFloat(7999.50)),
			"got %s", resp.Lines[0].UnitPrice)
		assert.Contains(t, resp.Lines[0].Description, "15 al 30")
		assert.Equal(t, "2025-06", resp.Period)
	})

	t.Run("customer without active services is rejected", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)

		_, err := f.service.IssueProratedInvoice(ctx, IssueProratedInvoiceRequest{
			CustomerID:  customer.ID,
			PeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		})

		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("inactive subscriptions are skipped", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)
		active, err := partner.NewContractedService(customer.ID, "Internet 50MB", decimal.NewFromInt(15000), billing.TaxRateGeneral)
		require.NoError(t, err)
		inactive, err := partner.NewContractedService(customer.ID, "Telefonia", decimal.NewFromInt(8000), billing.TaxRateGeneral)
		require.NoError(t, err)
		inactive.Deactivate()
		require.NoError(t, f.serviceRepo.Save(ctx, active))
		require.NoError(t, f.serviceRepo.Save(ctx, inactive))

		resp, err := f.service.IssueProratedInvoice(ctx, IssueProratedInvoiceRequest{
			CustomerID:  customer.ID,
			PeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Len(t, resp.Lines, 1)
		assert.Contains(t, resp.Lines[0].Description, "Internet 50MB")
	})
}

func TestInvoicingService_VoidInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("voids and issues a credit note", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)
		issued, err := f.service.IssueInvoice(ctx, IssueInvoiceRequest{
			CustomerID: customer.ID,
			Lines: []LineRequest{
				{Description: "Hosting", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, TaxRateCategory: "R21"},
			},
		})
		require.NoError(t, err)

		resp, err := f.service.VoidInvoice(ctx, issued.ID, "error de carga")

		require.NoError(t, err)
		assert.Equal(t, "VOIDED", resp.Status)
		assert.True(t, resp.OutstandingBalance.IsZero())
		require.Len(t, resp.CreditNotes, 1)
		assert.Equal(t, "0001-00000001", resp.CreditNotes[0].Number)
		assert.True(t, resp.CreditNotes[0].Amount.Equal(resp.Total))
		assert.Contains(t, f.eventBus.eventTypes(), billing.EventInvoiceVoided)
	})

	t.Run("missing invoice is rejected", func(t *testing.T) {
		f := newInvoicingFixture(t)

		_, err := f.service.VoidInvoice(ctx, uuid.New(), "error")

		assert.True(t, shared.IsValidationError(err))
	})
}

func TestInvoicingService_GetInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes overdue status on read", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)
		issueDate := time.Now().AddDate(0, 0, -30)
		issued, err := f.service.IssueInvoice(ctx, IssueInvoiceRequest{
			CustomerID: customer.ID,
			IssueDate:  &issueDate,
			Lines: []LineRequest{
				{Description: "Hosting", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, TaxRateCategory: "R21"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "PENDING", issued.Status)

		resp, err := f.service.GetInvoice(ctx, issued.ID)

		require.NoError(t, err)
		assert.Equal(t, "OVERDUE", resp.Status)
		assert.Contains(t, f.eventBus.eventTypes(), billing.EventInvoiceOverdue)

		stored, err := f.invoiceRepo.FindByID(ctx, issued.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.InvoiceStatusOverdue, stored.Status)
	})

	t.Run("lists customer invoices", func(t *testing.T) {
		f := newInvoicingFixture(t)
		customer := f.addCustomer(t, billing.TaxCategoryConsumer)
		req := IssueInvoiceRequest{
			CustomerID: customer.ID,
			Lines: []LineRequest{
				{Description: "Hosting", UnitPrice: decimal.NewFromInt(5000), Quantity: 1, TaxRateCategory: "R21"},
			},
		}
		_, err := f.service.IssueInvoice(ctx, req)
		require.NoError(t, err)
		_, err = f.service.IssueInvoice(ctx, req)
		require.NoError(t, err)

		responses, total, err := f.service.ListCustomerInvoices(ctx, customer.ID, shared.Filter{Page: 1, PageSize: 20})

		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, responses, 2)
	})
}
