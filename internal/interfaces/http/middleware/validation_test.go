package middleware

import (
	"testing"

	"github.com/facturador/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestFormatValidationErrors(t *testing.T) {
	type payment struct {
		CustomerID string `json:"customer_id" binding:"required,uuid"`
		Method     string `json:"method" binding:"required,oneof=CASH TRANSFER CARD"`
	}

	SetupValidator()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(payment{CustomerID: "not-a-uuid", Method: "BARTER"})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-42")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)

	byField := map[string]string{}
	for _, d := range resp.Error.Details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid UUID format", byField["customer_id"])
	assert.Equal(t, "Must be one of: CASH TRANSFER CARD", byField["method"])
}

func TestFormatValidationErrorsNonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Empty(t, resp.Error.Details)
}
