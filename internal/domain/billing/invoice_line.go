package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/facturador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLine represents one billed item inside an Invoice aggregate.
// Computed fields start zeroed and are filled by Calculate, which must run
// in the fixed order subtotal, tax, total: tax depends on the subtotal and
// the total depends on both.
type InvoiceLine struct {
	ID              uuid.UUID       `json:"id"`
	Description     string          `json:"description"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int64           `json:"quantity"`
	TaxRateCategory TaxRateCategory `json:"tax_rate_category"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewInvoiceLine creates an uncalculated invoice line
func NewInvoiceLine(description string, unitPrice valueobject.Money, quantity int64, category TaxRateCategory) (*InvoiceLine, error) {
	if description == "" {
		return nil, shared.NewValidationError("INVALID_DESCRIPTION", "Line description cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	if quantity < 1 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if !category.IsValid() {
		return nil, shared.NewValidationError("INVALID_TAX_CATEGORY", "Tax rate category is not valid")
	}

	return &InvoiceLine{
		ID:              uuid.New(),
		Description:     description,
		UnitPrice:       unitPrice.Amount(),
		Quantity:        quantity,
		TaxRateCategory: category,
		Subtotal:        decimal.Zero,
		TaxAmount:       decimal.Zero,
		Total:           decimal.Zero,
		CreatedAt:       time.Now(),
	}, nil
}

// NewProratedLine creates an uncalculated line whose unit price is the
// monthly price prorated by the billing period: the day proportion is
// rounded to 4 places half-up, the resulting price to 2 places half-up.
// The description carries the covered span.
func NewProratedLine(baseDescription string, monthlyPrice valueobject.Money, quantity int64, category TaxRateCategory, period BillingPeriod) (*InvoiceLine, error) {
	proportion := period.Proportion()
	prorated := monthlyPrice.Multiply(proportion).Round(2)
	return NewInvoiceLine(period.Description(baseDescription), prorated, quantity, category)
}

// CalculateSubtotal computes unitPrice multiplied by quantity
func (l *InvoiceLine) CalculateSubtotal() {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// CalculateTax computes the tax on the current subtotal
func (l *InvoiceLine) CalculateTax() {
	l.TaxAmount = l.Subtotal.Mul(l.TaxRateCategory.Rate())
}

// CalculateTotal computes subtotal plus tax
func (l *InvoiceLine) CalculateTotal() {
	l.Total = l.Subtotal.Add(l.TaxAmount)
}

// Calculate fills subtotal, tax and total in that order
func (l *InvoiceLine) Calculate() {
	l.CalculateSubtotal()
	l.CalculateTax()
	l.CalculateTotal()
}

// GetUnitPriceMoney returns the unit price as Money
func (l *InvoiceLine) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyARS(l.UnitPrice)
}

// GetTotalMoney returns the line total as Money
func (l *InvoiceLine) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyARS(l.Total)
}

// InvoiceLines is a slice of InvoiceLine that implements GORM Scanner/Valuer
// for JSONB storage inside the invoice row.
type InvoiceLines []InvoiceLine

// Value implements driver.Valuer interface for GORM to store as JSONB
func (ls InvoiceLines) Value() (driver.Value, error) {
	if ls == nil {
		return "[]", nil
	}
	return json.Marshal(ls)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (ls *InvoiceLines) Scan(value interface{}) error {
	if value == nil {
		*ls = InvoiceLines{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan InvoiceLines: unsupported type")
	}

	if len(bytes) == 0 {
		*ls = InvoiceLines{}
		return nil
	}

	return json.Unmarshal(bytes, ls)
}
