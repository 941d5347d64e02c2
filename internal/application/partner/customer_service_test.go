package partner

import (
	"context"
	"testing"

	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCustomerRepo struct {
	customers map[uuid.UUID]*partner.Customer
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: map[uuid.UUID]*partner.Customer{}}
}

func (r *memCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.customers[id], nil
}

func (r *memCustomerRepo) FindByCode(_ context.Context, code string) (*partner.Customer, error) {
	for _, c := range r.customers {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCustomerRepo) FindActiveWithServices(_ context.Context) ([]*partner.CustomerWithServices, error) {
	return nil, nil
}

func (r *memCustomerRepo) List(_ context.Context, filter shared.Filter) (*shared.Paginated[*partner.Customer], error) {
	items := make([]*partner.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		items = append(items, c)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *memCustomerRepo) Save(_ context.Context, customer *partner.Customer) error {
	r.customers[customer.ID] = customer
	return nil
}

func (r *memCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.customers, id)
	return nil
}

type memServiceRepo struct {
	services map[uuid.UUID]*partner.ContractedService
}

func newMemServiceRepo() *memServiceRepo {
	return &memServiceRepo{services: map[uuid.UUID]*partner.ContractedService{}}
}

func (r *memServiceRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.ContractedService, error) {
	return r.services[id], nil
}

func (r *memServiceRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]*partner.ContractedService, error) {
	var out []*partner.ContractedService
	for _, s := range r.services {
		if s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memServiceRepo) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]*partner.ContractedService, error) {
	all, _ := r.FindByCustomer(ctx, customerID)
	var out []*partner.ContractedService
	for _, s := range all {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memServiceRepo) Save(_ context.Context, service *partner.ContractedService) error {
	r.services[service.ID] = service
	return nil
}

func (r *memServiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.services, id)
	return nil
}

type recordingBus struct {
	events []shared.DomainEvent
}

func (b *recordingBus) Publish(_ context.Context, events ...shared.DomainEvent) error {
	b.events = append(b.events, events...)
	return nil
}

func (b *recordingBus) Subscribe(shared.EventHandler, ...string) {}

func newFixture() (*CustomerService, *memCustomerRepo, *memServiceRepo, *recordingBus) {
	customers := newMemCustomerRepo()
	services := newMemServiceRepo()
	bus := &recordingBus{}
	return NewCustomerService(customers, services, bus), customers, services, bus
}

func TestCustomerService_CreateCustomer(t *testing.T) {
	t.Run("creates an active subscriber", func(t *testing.T) {
		svc, _, _, bus := newFixture()

		resp, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
			Code:        "CLI-001",
			Name:        "Juan Perez",
			TaxID:       "20-12345678-3",
			TaxCategory: "CONSUMIDOR_FINAL",
			Email:       "juan@example.com",
		})

		require.NoError(t, err)
		assert.Equal(t, "CLI-001", resp.Code)
		assert.Equal(t, "ACTIVE", resp.Status)
		assert.True(t, resp.CreditBalance.IsZero())
		assert.NotEmpty(t, bus.events)
	})

	t.Run("rejects duplicate codes", func(t *testing.T) {
		svc, _, _, _ := newFixture()

		_, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
			Code: "CLI-001", Name: "Juan Perez", TaxCategory: "CONSUMIDOR_FINAL",
		})
		require.NoError(t, err)

		_, err = svc.CreateCustomer(context.Background(), CreateCustomerRequest{
			Code: "CLI-001", Name: "Otro Cliente", TaxCategory: "CONSUMIDOR_FINAL",
		})

		require.Error(t, err)
		assert.True(t, shared.IsStateError(err))
	})

	t.Run("rejects unknown tax categories", func(t *testing.T) {
		svc, _, _, _ := newFixture()

		_, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
			Code: "CLI-002", Name: "Juan Perez", TaxCategory: "NOPE",
		})

		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
	})
}

func TestCustomerService_ContractService(t *testing.T) {
	create := func(t *testing.T, svc *CustomerService) uuid.UUID {
		t.Helper()
		resp, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
			Code: "CLI-001", Name: "Juan Perez", TaxCategory: "CONSUMIDOR_FINAL",
		})
		require.NoError(t, err)
		return resp.ID
	}

	t.Run("contracts a service for an active customer", func(t *testing.T) {
		svc, _, _, _ := newFixture()
		customerID := create(t, svc)

		resp, err := svc.ContractService(context.Background(), customerID, ContractServiceRequest{
			ServiceName:     "Abono mensual",
			MonthlyPrice:    decimal.NewFromInt(15000),
			TaxRateCategory: "R21",
		})

		require.NoError(t, err)
		assert.True(t, resp.Active)
		assert.Equal(t, "Abono mensual", resp.ServiceName)

		full, err := svc.GetCustomer(context.Background(), customerID)
		require.NoError(t, err)
		assert.Len(t, full.Services, 1)
	})

	t.Run("rejects terminated customers", func(t *testing.T) {
		svc, _, _, _ := newFixture()
		customerID := create(t, svc)

		_, err := svc.TerminateCustomer(context.Background(), customerID)
		require.NoError(t, err)

		_, err = svc.ContractService(context.Background(), customerID, ContractServiceRequest{
			ServiceName:     "Abono mensual",
			MonthlyPrice:    decimal.NewFromInt(15000),
			TaxRateCategory: "R21",
		})

		require.Error(t, err)
		assert.True(t, shared.IsStateError(err))
	})

	t.Run("unknown customer is a validation error", func(t *testing.T) {
		svc, _, _, _ := newFixture()

		_, err := svc.ContractService(context.Background(), uuid.New(), ContractServiceRequest{
			ServiceName:     "Abono mensual",
			MonthlyPrice:    decimal.NewFromInt(15000),
			TaxRateCategory: "R21",
		})

		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
	})
}

func TestCustomerService_CancelService(t *testing.T) {
	svc, _, services, _ := newFixture()

	created, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
		Code: "CLI-001", Name: "Juan Perez", TaxCategory: "CONSUMIDOR_FINAL",
	})
	require.NoError(t, err)

	contracted, err := svc.ContractService(context.Background(), created.ID, ContractServiceRequest{
		ServiceName:     "Abono mensual",
		MonthlyPrice:    decimal.NewFromInt(15000),
		TaxRateCategory: "R21",
	})
	require.NoError(t, err)

	resp, err := svc.CancelService(context.Background(), contracted.ID)
	require.NoError(t, err)
	assert.False(t, resp.Active)
	assert.False(t, services.services[contracted.ID].Active)
}

func TestCustomerService_Transitions(t *testing.T) {
	svc, _, _, _ := newFixture()

	created, err := svc.CreateCustomer(context.Background(), CreateCustomerRequest{
		Code: "CLI-001", Name: "Juan Perez", TaxCategory: "CONSUMIDOR_FINAL",
	})
	require.NoError(t, err)

	suspended, err := svc.SuspendCustomer(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SUSPENDED", suspended.Status)

	active, err := svc.ReactivateCustomer(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", active.Status)

	terminated, err := svc.TerminateCustomer(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "TERMINATED", terminated.Status)

	// terminated is final
	_, err = svc.ReactivateCustomer(context.Background(), created.ID)
	require.Error(t, err)
	assert.True(t, shared.IsStateError(err))
}
