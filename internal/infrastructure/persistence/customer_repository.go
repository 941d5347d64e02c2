package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var customer partner.Customer
	if err := dbFrom(ctx, r.db).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// FindByCode finds a customer by its code
func (r *GormCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	var customer partner.Customer
	if err := dbFrom(ctx, r.db).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// FindActiveWithServices loads every active customer together with its active
// subscriptions, the working set of a mass-billing run. Customers without any
// active service are still returned, the run decides to skip them.
func (r *GormCustomerRepository) FindActiveWithServices(ctx context.Context) ([]*partner.CustomerWithServices, error) {
	db := dbFrom(ctx, r.db)

	var customers []*partner.Customer
	if err := db.
		Where("status = ?", partner.CustomerStatusActive).
		Order("code ASC").
		Find(&customers).Error; err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return []*partner.CustomerWithServices{}, nil
	}

	ids := make([]uuid.UUID, len(customers))
	for i, c := range customers {
		ids[i] = c.ID
	}

	var services []*partner.ContractedService
	if err := db.
		Where("customer_id IN ? AND active = ?", ids, true).
		Order("service_name ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}

	byCustomer := make(map[uuid.UUID][]*partner.ContractedService, len(customers))
	for _, s := range services {
		byCustomer[s.CustomerID] = append(byCustomer[s.CustomerID], s)
	}

	result := make([]*partner.CustomerWithServices, len(customers))
	for i, c := range customers {
		result[i] = &partner.CustomerWithServices{
			Customer: c,
			Services: byCustomer[c.ID],
		}
	}
	return result, nil
}

// List finds all customers matching the filter
func (r *GormCustomerRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[*partner.Customer], error) {
	db := dbFrom(ctx, r.db)

	var total int64
	if err := db.Model(&partner.Customer{}).Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CustomerSortFields, "code")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var customers []*partner.Customer
	if err := db.Model(&partner.Customer{}).
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&customers).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(customers, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return dbFrom(ctx, r.db).Save(customer).Error
}

// Delete deletes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).Delete(&partner.Customer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewValidationError("CUSTOMER_NOT_FOUND", "Customer does not exist")
	}
	return nil
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
