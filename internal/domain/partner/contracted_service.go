package partner

import (
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractedService is one recurring service a customer subscribes to. Its
// monthly price and tax rate category feed invoice line construction.
type ContractedService struct {
	shared.BaseEntity
	CustomerID      uuid.UUID               `gorm:"type:uuid;not null;index"`
	ServiceName     string                  `gorm:"type:varchar(200);not null"`
	ContractedPrice decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TaxRateCategory billing.TaxRateCategory `gorm:"type:varchar(20);not null"`
	Active          bool                    `gorm:"not null;default:true"`
	ContractedAt    time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ContractedService) TableName() string {
	return "contracted_services"
}

// NewContractedService creates a subscription for a customer
func NewContractedService(
	customerID uuid.UUID,
	serviceName string,
	monthlyPrice decimal.Decimal,
	taxCategory billing.TaxRateCategory,
) (*ContractedService, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if serviceName == "" {
		return nil, shared.NewValidationError("INVALID_SERVICE_NAME", "Service name cannot be empty")
	}
	if len(serviceName) > 200 {
		return nil, shared.NewValidationError("INVALID_SERVICE_NAME", "Service name cannot exceed 200 characters")
	}
	if monthlyPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Contracted price cannot be negative")
	}
	if !taxCategory.IsValid() {
		return nil, shared.NewValidationError("INVALID_TAX_CATEGORY", "Tax rate category is not valid")
	}

	return &ContractedService{
		BaseEntity:      shared.NewBaseEntity(),
		CustomerID:      customerID,
		ServiceName:     serviceName,
		ContractedPrice: monthlyPrice,
		TaxRateCategory: taxCategory,
		Active:          true,
		ContractedAt:    time.Now(),
	}, nil
}

// UpdatePrice changes the monthly price going forward
func (s *ContractedService) UpdatePrice(newPrice decimal.Decimal) error {
	if newPrice.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Contracted price cannot be negative")
	}

	s.ContractedPrice = newPrice
	s.Touch()

	return nil
}

// Deactivate stops the service from being billed
func (s *ContractedService) Deactivate() {
	s.Active = false
	s.Touch()
}

// GetPriceMoney returns the contracted price as Money
func (s *ContractedService) GetPriceMoney() valueobject.Money {
	return valueobject.NewMoneyARS(s.ContractedPrice)
}
