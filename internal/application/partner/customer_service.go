package partner

import (
	"context"
	"fmt"
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/partner"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerService manages the subscriber registry: accounts, their
// contracted services and the credit balance view the settlement flow
// reads from.
type CustomerService struct {
	customerRepo partner.CustomerRepository
	serviceRepo  partner.ContractedServiceRepository
	eventBus     shared.EventBus
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo partner.CustomerRepository,
	serviceRepo partner.ContractedServiceRepository,
	eventBus shared.EventBus,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		serviceRepo:  serviceRepo,
		eventBus:     eventBus,
	}
}

// CreateCustomerRequest asks for a new subscriber account
type CreateCustomerRequest struct {
	Code        string `json:"code" binding:"required,min=1,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	TaxID       string `json:"tax_id" binding:"max=50"`
	TaxCategory string `json:"tax_category" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Phone       string `json:"phone" binding:"max=50"`
	Address     string `json:"address" binding:"max=500"`
}

// ContractServiceRequest subscribes a customer to a recurring service
type ContractServiceRequest struct {
	ServiceName     string          `json:"service_name" binding:"required,min=1,max=200"`
	MonthlyPrice    decimal.Decimal `json:"monthly_price" binding:"required"`
	TaxRateCategory string          `json:"tax_rate_category" binding:"required"`
}

// ServiceResponse represents a contracted service in API responses
type ServiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	ServiceName     string          `json:"service_name"`
	MonthlyPrice    decimal.Decimal `json:"monthly_price"`
	TaxRateCategory string          `json:"tax_rate_category"`
	Active          bool            `json:"active"`
	ContractedAt    time.Time       `json:"contracted_at"`
}

// CustomerResponse represents a subscriber in API responses
type CustomerResponse struct {
	ID            uuid.UUID         `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	TaxID         string            `json:"tax_id,omitempty"`
	TaxCategory   string            `json:"tax_category"`
	Email         string            `json:"email,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	Address       string            `json:"address,omitempty"`
	Status        string            `json:"status"`
	CreditBalance decimal.Decimal   `json:"credit_balance"`
	Services      []ServiceResponse `json:"services,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// CreateCustomer registers a new subscriber account
func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "create")
	defer span.End()

	existing, err := s.customerRepo.FindByCode(ctx, req.Code)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check customer code: %w", err)
	}
	if existing != nil {
		err := shared.NewStateError("DUPLICATE_CODE", "A customer with this code already exists")
		telemetry.RecordError(span, err)
		return nil, err
	}

	customer, err := partner.NewCustomer(req.Code, req.Name, req.TaxID, billing.TaxCategory(req.TaxCategory))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Email != "" || req.Phone != "" || req.Address != "" {
		if err := customer.SetContact(req.Email, req.Phone, req.Address); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	s.publishEvents(ctx, customer)
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customer.ID.String())

	return s.toResponse(customer, nil), nil
}

// GetCustomer returns a subscriber with its contracted services
func (s *CustomerService) GetCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewValidationError("CUSTOMER_NOT_FOUND", "Customer does not exist")
	}

	services, err := s.serviceRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracted services: %w", err)
	}

	return s.toResponse(customer, services), nil
}

// ListCustomers returns a page of subscribers
func (s *CustomerService) ListCustomers(ctx context.Context, filter shared.Filter) ([]*CustomerResponse, int64, error) {
	page, err := s.customerRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}

	responses := make([]*CustomerResponse, 0, len(page.Items))
	for _, c := range page.Items {
		responses = append(responses, s.toResponse(c, nil))
	}
	return responses, page.Total, nil
}

// ContractService subscribes the customer to a new recurring service
func (s *CustomerService) ContractService(ctx context.Context, customerID uuid.UUID, req ContractServiceRequest) (*ServiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "contract_service")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customerID.String())

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		err := shared.NewValidationError("CUSTOMER_NOT_FOUND", "Customer does not exist")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if customer.Status == partner.CustomerStatusTerminated {
		err := shared.NewStateError("CUSTOMER_TERMINATED", "Cannot contract services for a terminated customer")
		telemetry.RecordError(span, err)
		return nil, err
	}

	service, err := partner.NewContractedService(
		customerID,
		req.ServiceName,
		req.MonthlyPrice,
		billing.TaxRateCategory(req.TaxRateCategory),
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.serviceRepo.Save(ctx, service); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save contracted service: %w", err)
	}

	resp := toServiceResponse(service)
	return &resp, nil
}

// CancelService deactivates a subscription so it stops billing
func (s *CustomerService) CancelService(ctx context.Context, serviceID uuid.UUID) (*ServiceResponse, error) {
	service, err := s.serviceRepo.FindByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracted service: %w", err)
	}
	if service == nil {
		return nil, shared.NewValidationError("SERVICE_NOT_FOUND", "Contracted service does not exist")
	}

	service.Deactivate()
	if err := s.serviceRepo.Save(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to save contracted service: %w", err)
	}

	resp := toServiceResponse(service)
	return &resp, nil
}

// SuspendCustomer cuts the subscriber's service, keeping the account
func (s *CustomerService) SuspendCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	return s.transition(ctx, customerID, (*partner.Customer).Suspend)
}

// ReactivateCustomer restores a suspended subscriber
func (s *CustomerService) ReactivateCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	return s.transition(ctx, customerID, (*partner.Customer).Activate)
}

// TerminateCustomer ends the contract
func (s *CustomerService) TerminateCustomer(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	return s.transition(ctx, customerID, (*partner.Customer).Terminate)
}

func (s *CustomerService) transition(ctx context.Context, customerID uuid.UUID, change func(*partner.Customer) error) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, shared.NewValidationError("CUSTOMER_NOT_FOUND", "Customer does not exist")
	}

	if err := change(customer); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}

	s.publishEvents(ctx, customer)
	return s.toResponse(customer, nil), nil
}

func (s *CustomerService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	aggregate.ClearDomainEvents()
	// best effort, read models catch up later
	_ = s.eventBus.Publish(ctx, events...)
}

func (s *CustomerService) toResponse(c *partner.Customer, services []*partner.ContractedService) *CustomerResponse {
	resp := &CustomerResponse{
		ID:            c.ID,
		Code:          c.Code,
		Name:          c.Name,
		TaxID:         c.TaxID,
		TaxCategory:   c.TaxCategory.String(),
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		Status:        string(c.Status),
		CreditBalance: c.CreditBalance,
		CreatedAt:     c.CreatedAt,
	}
	for _, svc := range services {
		resp.Services = append(resp.Services, toServiceResponse(svc))
	}
	return resp
}

func toServiceResponse(s *partner.ContractedService) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		ServiceName:     s.ServiceName,
		MonthlyPrice:    s.ContractedPrice,
		TaxRateCategory: s.TaxRateCategory.String(),
		Active:          s.Active,
		ContractedAt:    s.ContractedAt,
	}
}
