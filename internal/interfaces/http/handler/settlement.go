package handler

import (
	"strconv"

	billingapp "github.com/facturador/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// SettlementHandler exposes payment collection and receipt lookup
type SettlementHandler struct {
	BaseHandler
	settlementService *billingapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *billingapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// RegisterRoutes registers the settlement routes
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.Collect)
	rg.GET("/receipts/:number", h.GetReceipt)
}

// Collect settles one or more invoices with a combined cash plus credit
// payment and returns the consolidated receipt
func (h *SettlementHandler) Collect(c *gin.Context) {
	var req billingapp.CollectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.settlementService.CollectCombinedPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetReceipt rebuilds a receipt from its stored payments
func (h *SettlementHandler) GetReceipt(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		h.BadRequest(c, "Receipt number must be a positive integer")
		return
	}

	resp, err := h.settlementService.GetReceipt(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
