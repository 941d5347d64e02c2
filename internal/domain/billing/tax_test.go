package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTaxRateCategory_IsValid(t *testing.T) {
	tests := []struct {
		category TaxRateCategory
		isValid  bool
	}{
		{TaxRateGeneral, true},
		{TaxRateReduced, true},
		{TaxRateIncreased, true},
		{TaxRateMinimal, true},
		{TaxRateExempt, true},
		{TaxRateCategory("R50"), false},
		{TaxRateCategory(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.category.IsValid())
		})
	}
}

func TestTaxRateCategory_Rate(t *testing.T) {
	tests := []struct {
		category TaxRateCategory
		rate     string
	}{
		{TaxRateGeneral, "0.21"},
		{TaxRateReduced, "0.105"},
		{TaxRateIncreased, "0.27"},
		{TaxRateMinimal, "0.025"},
		{TaxRateExempt, "0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			expected, err := decimal.NewFromString(tt.rate)
			assert.NoError(t, err)
			assert.True(t, expected.Equal(tt.category.Rate()),
				"expected %s, got %s", expected, tt.category.Rate())
		})
	}
}

func TestTaxRateCategory_Rate_UnknownIsZero(t *testing.T) {
	assert.True(t, TaxRateCategory("BOGUS").Rate().IsZero())
}

func TestDetermineInvoiceType(t *testing.T) {
	tests := []struct {
		name     string
		issuer   TaxCategory
		customer TaxCategory
		expected InvoiceType
	}{
		{"registered to registered", TaxCategoryRegistered, TaxCategoryRegistered, InvoiceTypeA},
		{"registered to consumer", TaxCategoryRegistered, TaxCategoryConsumer, InvoiceTypeB},
		{"registered to exempt", TaxCategoryRegistered, TaxCategoryExempt, InvoiceTypeB},
		{"registered to simplified", TaxCategoryRegistered, TaxCategorySimplified, InvoiceTypeB},
		{"simplified issuer dominates over registered customer", TaxCategorySimplified, TaxCategoryRegistered, InvoiceTypeC},
		{"simplified to consumer", TaxCategorySimplified, TaxCategoryConsumer, InvoiceTypeC},
		{"exempt issuer to consumer", TaxCategoryExempt, TaxCategoryConsumer, InvoiceTypeB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetermineInvoiceType(tt.issuer, tt.customer))
		})
	}
}

func TestTaxCategory_IsValid(t *testing.T) {
	assert.True(t, TaxCategoryRegistered.IsValid())
	assert.True(t, TaxCategorySimplified.IsValid())
	assert.True(t, TaxCategoryConsumer.IsValid())
	assert.True(t, TaxCategoryExempt.IsValid())
	assert.False(t, TaxCategory("OTHER").IsValid())
}

func TestInvoiceType_IsValid(t *testing.T) {
	assert.True(t, InvoiceTypeA.IsValid())
	assert.True(t, InvoiceTypeB.IsValid())
	assert.True(t, InvoiceTypeC.IsValid())
	assert.False(t, InvoiceType("D").IsValid())
}
