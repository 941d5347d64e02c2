package billing

import (
	"strings"
	"testing"
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentMethod_IsValid(t *testing.T) {
	tests := []struct {
		method  PaymentMethod
		isValid bool
	}{
		{PaymentMethodCash, true},
		{PaymentMethodTransfer, true},
		{PaymentMethodCard, true},
		{PaymentMethodCreditBalance, true},
		{PaymentMethod("CHEQUE"), false},
		{PaymentMethod(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.method.IsValid())
		})
	}
}

func TestPaymentMethod_DisplayName(t *testing.T) {
	assert.Equal(t, "Efectivo", PaymentMethodCash.DisplayName())
	assert.Equal(t, "Transferencia", PaymentMethodTransfer.DisplayName())
	assert.Equal(t, "Tarjeta", PaymentMethodCard.DisplayName())
	assert.Equal(t, "Saldo a favor", PaymentMethodCreditBalance.DisplayName())
}

func TestNewPayment(t *testing.T) {
	customerID := uuid.New()

	t.Run("valid payment", func(t *testing.T) {
		p, err := NewPayment(customerID, decimal.NewFromFloat(5000.00), PaymentMethodTransfer, "OP-1234", time.Now(), 42)
		require.NoError(t, err)

		assert.Equal(t, customerID, p.CustomerID)
		assert.Equal(t, "5000", p.Amount.String())
		assert.Equal(t, PaymentMethodTransfer, p.Method)
		assert.Equal(t, 42, p.ReceiptNumber)
		assert.False(t, p.IsCreditFunded())
	})

	t.Run("zero amount fails", func(t *testing.T) {
		_, err := NewPayment(customerID, decimal.Zero, PaymentMethodCash, "", time.Now(), 1)
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("negative amount fails", func(t *testing.T) {
		_, err := NewPayment(customerID, decimal.NewFromInt(-1), PaymentMethodCash, "", time.Now(), 1)
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("invalid method fails", func(t *testing.T) {
		_, err := NewPayment(customerID, decimal.NewFromInt(100), PaymentMethod("CHEQUE"), "", time.Now(), 1)
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("reference over 500 chars fails", func(t *testing.T) {
		_, err := NewPayment(customerID, decimal.NewFromInt(100), PaymentMethodCash, strings.Repeat("x", 501), time.Now(), 1)
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("nil customer fails", func(t *testing.T) {
		_, err := NewPayment(uuid.Nil, decimal.NewFromInt(100), PaymentMethodCash, "", time.Now(), 1)
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("zero payment date defaults to now", func(t *testing.T) {
		p, err := NewPayment(customerID, decimal.NewFromInt(100), PaymentMethodCash, "", time.Time{}, 1)
		require.NoError(t, err)
		assert.False(t, p.PaymentDate.IsZero())
	})

	t.Run("credit balance funding is flagged", func(t *testing.T) {
		p, err := NewPayment(customerID, decimal.NewFromInt(100), PaymentMethodCreditBalance, "", time.Now(), 1)
		require.NoError(t, err)
		assert.True(t, p.IsCreditFunded())
	})
}

func TestNewPaymentApplication(t *testing.T) {
	inv := createTestInvoiceWithLine(t, 15000.00)
	payment := testPayment(t, inv.CustomerID, 5000.00, PaymentMethodCash)

	t.Run("valid application", func(t *testing.T) {
		app, err := NewPaymentApplication(payment, inv, decimal.NewFromFloat(5000.00))
		require.NoError(t, err)

		assert.Equal(t, payment.ID, app.PaymentID)
		assert.Equal(t, inv.ID, app.InvoiceID)
		assert.Equal(t, "0001-00000042", app.InvoiceNumber)
		assert.Equal(t, "5000", app.Amount.String())
	})

	t.Run("amount beyond the payment fails", func(t *testing.T) {
		_, err := NewPaymentApplication(payment, inv, decimal.NewFromFloat(6000.00))
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("non positive amount fails", func(t *testing.T) {
		_, err := NewPaymentApplication(payment, inv, decimal.Zero)
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("nil payment or invoice fails", func(t *testing.T) {
		_, err := NewPaymentApplication(nil, inv, decimal.NewFromInt(1))
		assert.True(t, shared.IsValidationError(err))
		_, err = NewPaymentApplication(payment, nil, decimal.NewFromInt(1))
		assert.True(t, shared.IsValidationError(err))
	})
}
