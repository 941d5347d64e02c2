package persistence

import (
	"context"
	"errors"

	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContractedServiceRepository implements ContractedServiceRepository using GORM
type GormContractedServiceRepository struct {
	db *gorm.DB
}

// NewGormContractedServiceRepository creates a new GormContractedServiceRepository
func NewGormContractedServiceRepository(db *gorm.DB) *GormContractedServiceRepository {
	return &GormContractedServiceRepository{db: db}
}

// FindByID finds a subscription by its ID
func (r *GormContractedServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.ContractedService, error) {
	var service partner.ContractedService
	if err := dbFrom(ctx, r.db).First(&service, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &service, nil
}

// FindByCustomer finds all subscriptions of a customer, active or not
func (r *GormContractedServiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*partner.ContractedService, error) {
	var services []*partner.ContractedService
	if err := dbFrom(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("service_name ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// FindActiveByCustomer finds the customer's billable subscriptions
func (r *GormContractedServiceRepository) FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) ([]*partner.ContractedService, error) {
	var services []*partner.ContractedService
	if err := dbFrom(ctx, r.db).
		Where("customer_id = ? AND active = ?", customerID, true).
		Order("service_name ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// Save creates or updates a subscription
func (r *GormContractedServiceRepository) Save(ctx context.Context, service *partner.ContractedService) error {
	return dbFrom(ctx, r.db).Save(service).Error
}

// Delete deletes a subscription
func (r *GormContractedServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := dbFrom(ctx, r.db).Delete(&partner.ContractedService{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewValidationError("SERVICE_NOT_FOUND", "Contracted service does not exist")
	}
	return nil
}

// Ensure GormContractedServiceRepository implements ContractedServiceRepository
var _ partner.ContractedServiceRepository = (*GormContractedServiceRepository)(nil)
