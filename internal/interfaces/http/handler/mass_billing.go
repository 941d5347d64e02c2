package handler

import (
	billingapp "github.com/facturador/backend/internal/application/billing"
	"github.com/facturador/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// MassBillingHandler exposes the monthly billing run endpoints
type MassBillingHandler struct {
	BaseHandler
	massBillingService *billingapp.MassBillingService
}

// NewMassBillingHandler creates a new MassBillingHandler
func NewMassBillingHandler(massBillingService *billingapp.MassBillingService) *MassBillingHandler {
	return &MassBillingHandler{massBillingService: massBillingService}
}

// RegisterRoutes registers the billing run routes
func (h *MassBillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	runs := rg.Group("/billing/runs")
	{
		runs.POST("", h.Run)
		runs.GET("", h.List)
		runs.GET("/:id", h.Get)
		runs.POST("/:id/void", h.Void)
	}
}

// Run executes the mass billing for one period
func (h *MassBillingHandler) Run(c *gin.Context) {
	var req billingapp.RunMonthlyBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.massBillingService.RunMonthlyBilling(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one billing run
func (h *MassBillingHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	resp, err := h.massBillingService.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of billing runs
func (h *MassBillingHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := req.ToFilter()
	batches, total, err := h.massBillingService.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, batches, total, filter.Page, filter.PageSize)
}

// VoidBatchRequest carries the reason for reversing a billing run
type VoidBatchRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Void reverses a whole billing run, crediting every invoice in it
func (h *MassBillingHandler) Void(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	var req VoidBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Void reason is required")
		return
	}

	resp, err := h.massBillingService.VoidBatch(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
