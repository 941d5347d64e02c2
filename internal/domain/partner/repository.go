package partner

import (
	"context"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerWithServices pairs a customer with its active subscriptions for
// the mass-billing run
type CustomerWithServices struct {
	Customer *Customer
	Services []*ContractedService
}

// CustomerRepository defines persistence operations for customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByCode(ctx context.Context, code string) (*Customer, error)
	FindActiveWithServices(ctx context.Context) ([]*CustomerWithServices, error)
	List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Customer], error)
	Save(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContractedServiceRepository defines persistence operations for subscriptions
type ContractedServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ContractedService, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*ContractedService, error)
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]*ContractedService, error)
	Save(ctx context.Context, service *ContractedService) error
	Delete(ctx context.Context, id uuid.UUID) error
}
