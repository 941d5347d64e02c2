package billing

import (
	"github.com/shopspring/decimal"
)

// TaxRateCategory represents the VAT rate bracket applied to an invoice line
type TaxRateCategory string

const (
	TaxRateGeneral   TaxRateCategory = "R21"    // 21% general rate
	TaxRateReduced   TaxRateCategory = "R10_5"  // 10.5% reduced rate
	TaxRateIncreased TaxRateCategory = "R27"    // 27% increased rate (utilities)
	TaxRateMinimal   TaxRateCategory = "R2_5"   // 2.5% minimal rate
	TaxRateExempt    TaxRateCategory = "EXEMPT" // 0%, exempt goods/services
)

var taxRates = map[TaxRateCategory]decimal.Decimal{
	TaxRateGeneral:   decimal.NewFromFloat(0.21),
	TaxRateReduced:   decimal.NewFromFloat(0.105),
	TaxRateIncreased: decimal.NewFromFloat(0.27),
	TaxRateMinimal:   decimal.NewFromFloat(0.025),
	TaxRateExempt:    decimal.Zero,
}

// IsValid checks if the category is a valid TaxRateCategory
func (c TaxRateCategory) IsValid() bool {
	_, ok := taxRates[c]
	return ok
}

// Rate returns the decimal rate for the category (for example 0.21 for R21).
// Unknown categories map to zero; callers validate with IsValid first.
func (c TaxRateCategory) Rate() decimal.Decimal {
	return taxRates[c]
}

// String returns the string representation of TaxRateCategory
func (c TaxRateCategory) String() string {
	return string(c)
}

// TaxCategory represents the fiscal condition of a party (issuer or customer)
type TaxCategory string

const (
	TaxCategoryRegistered TaxCategory = "RESPONSABLE_INSCRIPTO" // VAT-registered
	TaxCategorySimplified TaxCategory = "MONOTRIBUTO"           // simplified regime
	TaxCategoryConsumer   TaxCategory = "CONSUMIDOR_FINAL"      // final consumer
	TaxCategoryExempt     TaxCategory = "EXENTO"                // exempt
)

// IsValid checks if the tax category is valid
func (c TaxCategory) IsValid() bool {
	switch c {
	case TaxCategoryRegistered, TaxCategorySimplified, TaxCategoryConsumer, TaxCategoryExempt:
		return true
	}
	return false
}

// String returns the string representation of TaxCategory
func (c TaxCategory) String() string {
	return string(c)
}

// InvoiceType represents the fiscal invoice letter
type InvoiceType string

const (
	InvoiceTypeA InvoiceType = "A" // registered issuer to registered customer
	InvoiceTypeB InvoiceType = "B" // registered issuer to consumer/exempt customer
	InvoiceTypeC InvoiceType = "C" // simplified-regime issuer
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeA || t == InvoiceTypeB || t == InvoiceTypeC
}

// String returns the string representation of InvoiceType
func (t InvoiceType) String() string {
	return string(t)
}

// DetermineInvoiceType resolves the invoice letter from the fiscal condition
// of both parties. The issuer's category dominates when the issuer operates
// under the simplified regime.
func DetermineInvoiceType(issuer, customer TaxCategory) InvoiceType {
	if issuer == TaxCategorySimplified {
		return InvoiceTypeC
	}
	if customer == TaxCategoryRegistered {
		return InvoiceTypeA
	}
	return InvoiceTypeB
}
