package partner

import (
	"regexp"
	"strings"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the operating status of a subscriber
type CustomerStatus string

const (
	CustomerStatusActive     CustomerStatus = "ACTIVE"
	CustomerStatusSuspended  CustomerStatus = "SUSPENDED"  // Service cut for non-payment, account kept
	CustomerStatusTerminated CustomerStatus = "TERMINATED" // Contract ended
)

// IsValid checks if the status is a valid CustomerStatus
func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusActive, CustomerStatusSuspended, CustomerStatusTerminated:
		return true
	}
	return false
}

// String returns the string representation of CustomerStatus
func (s CustomerStatus) String() string {
	return string(s)
}

// Customer is the aggregate root for a subscriber. Besides identity and
// fiscal data it holds the account credit balance: money received beyond
// what invoices required, available to fund future settlements. The balance
// never goes negative.
type Customer struct {
	shared.BaseAggregateRoot
	Code          string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string              `gorm:"type:varchar(200);not null"`
	TaxID         string              `gorm:"type:varchar(50)"` // CUIT or DNI
	TaxCategory   billing.TaxCategory `gorm:"type:varchar(30);not null"`
	Email         string              `gorm:"type:varchar(200);index"`
	Phone         string              `gorm:"type:varchar(50)"`
	Address       string              `gorm:"type:text"`
	Status        CustomerStatus      `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CreditBalance decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new active subscriber
func NewCustomer(code, name, taxID string, taxCategory billing.TaxCategory) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	if !taxCategory.IsValid() {
		return nil, shared.NewValidationError("INVALID_TAX_CATEGORY", "Customer tax category is not valid")
	}

	customer := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		TaxID:             taxID,
		TaxCategory:       taxCategory,
		Status:            CustomerStatusActive,
		CreditBalance:     decimal.Zero,
	}

	customer.AddDomainEvent(NewCustomerCreatedEvent(customer))

	return customer, nil
}

// SetContact sets the customer's contact information
func (c *Customer) SetContact(email, phone, address string) error {
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if address != "" && len(address) > 500 {
		return shared.NewValidationError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}

	c.Email = email
	c.Phone = phone
	c.Address = address
	c.Touch()
	c.IncrementVersion()

	return nil
}

// AddCredit increases the account credit balance, typically from a
// settlement surplus
func (c *Customer) AddCredit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Credit amount must be positive")
	}

	oldBalance := c.CreditBalance
	c.CreditBalance = c.CreditBalance.Add(amount)
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerCreditChangedEvent(c, oldBalance, c.CreditBalance, "credit"))

	return nil
}

// DeductCredit draws from the account credit balance to fund a settlement
func (c *Customer) DeductCredit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	if !c.HasCreditBalance() {
		return shared.NewStateError("NO_CREDIT_BALANCE", "Customer has no credit balance")
	}
	if amount.GreaterThan(c.CreditBalance) {
		return shared.NewValidationError("EXCEEDS_CREDIT_BALANCE",
			"Credit amount exceeds the available balance")
	}

	oldBalance := c.CreditBalance
	c.CreditBalance = c.CreditBalance.Sub(amount)
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerCreditChangedEvent(c, oldBalance, c.CreditBalance, "debit"))

	return nil
}

// Activate reinstates a suspended customer
func (c *Customer) Activate() error {
	if c.Status == CustomerStatusActive {
		return shared.NewStateError("ALREADY_ACTIVE", "Customer is already active")
	}
	if c.Status == CustomerStatusTerminated {
		return shared.NewStateError("TERMINATED", "Cannot reactivate a terminated customer")
	}

	oldStatus := c.Status
	c.Status = CustomerStatusActive
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, oldStatus, CustomerStatusActive))

	return nil
}

// Suspend cuts service for the customer, keeping the account
func (c *Customer) Suspend() error {
	if c.Status == CustomerStatusSuspended {
		return shared.NewStateError("ALREADY_SUSPENDED", "Customer is already suspended")
	}
	if c.Status == CustomerStatusTerminated {
		return shared.NewStateError("TERMINATED", "Cannot suspend a terminated customer")
	}

	oldStatus := c.Status
	c.Status = CustomerStatusSuspended
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, oldStatus, CustomerStatusSuspended))

	return nil
}

// Terminate ends the customer's contract
func (c *Customer) Terminate() error {
	if c.Status == CustomerStatusTerminated {
		return shared.NewStateError("ALREADY_TERMINATED", "Customer is already terminated")
	}

	oldStatus := c.Status
	c.Status = CustomerStatusTerminated
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, oldStatus, CustomerStatusTerminated))

	return nil
}

// IsActive returns true if the customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// HasCreditBalance returns true if the customer holds any credit
func (c *Customer) HasCreditBalance() bool {
	return c.CreditBalance.IsPositive()
}

// AvailableCredit returns the credit balance available for settlements
func (c *Customer) AvailableCredit() decimal.Decimal {
	return c.CreditBalance
}

// GetCreditBalanceMoney returns the credit balance as Money
func (c *Customer) GetCreditBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyARS(c.CreditBalance)
}

// Validation functions

func validateCustomerCode(code string) error {
	if code == "" {
		return shared.NewValidationError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewValidationError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewValidationError("INVALID_CODE", "Customer code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewValidationError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewValidationError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewValidationError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewValidationError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewValidationError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
