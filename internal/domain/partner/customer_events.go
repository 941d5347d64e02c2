package partner

import (
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants for the partner context
const (
	EventCustomerCreated       = "partner.customer.created"
	EventCustomerStatusChanged = "partner.customer.status_changed"
	EventCustomerCreditChanged = "partner.customer.credit_changed"
)

// CustomerCreatedEvent is raised when a subscriber is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerCreated, "Customer", c.ID),
		Code:            c.Code,
		Name:            c.Name,
	}
}

// CustomerStatusChangedEvent is raised on activate, suspend or terminate
type CustomerStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus CustomerStatus `json:"old_status"`
	NewStatus CustomerStatus `json:"new_status"`
}

// NewCustomerStatusChangedEvent creates a new CustomerStatusChangedEvent
func NewCustomerStatusChangedEvent(c *Customer, oldStatus, newStatus CustomerStatus) *CustomerStatusChangedEvent {
	return &CustomerStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerStatusChanged, "Customer", c.ID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// CustomerCreditChangedEvent is raised when the credit balance moves
type CustomerCreditChangedEvent struct {
	shared.BaseDomainEvent
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Operation  string          `json:"operation"` // credit or debit
}

// NewCustomerCreditChangedEvent creates a new CustomerCreditChangedEvent
func NewCustomerCreditChangedEvent(c *Customer, oldBalance, newBalance decimal.Decimal, operation string) *CustomerCreditChangedEvent {
	return &CustomerCreditChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerCreditChanged, "Customer", c.ID),
		OldBalance:      oldBalance,
		NewBalance:      newBalance,
		Operation:       operation,
	}
}
