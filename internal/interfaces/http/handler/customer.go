package handler

import (
	"context"

	partnerapp "github.com/facturador/backend/internal/application/partner"
	"github.com/facturador/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerHandler exposes subscriber lifecycle and service contracting
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// RegisterRoutes registers the customer routes
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	{
		customers.POST("", h.Create)
		customers.GET("", h.List)
		customers.GET("/:id", h.Get)
		customers.POST("/:id/suspend", h.Suspend)
		customers.POST("/:id/activate", h.Activate)
		customers.POST("/:id/terminate", h.Terminate)
		customers.POST("/:id/services", h.ContractService)
	}
	rg.POST("/services/:id/cancel", h.CancelService)
}

// Create registers a new subscriber
func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.customerService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a customer with its contracted services
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	resp, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a paginated customer listing
func (h *CustomerHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := req.ToFilter()
	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, customers, total, filter.Page, filter.PageSize)
}

// Suspend pauses billing for a customer
func (h *CustomerHandler) Suspend(c *gin.Context) {
	h.transition(c, h.customerService.SuspendCustomer)
}

// Activate resumes billing for a suspended customer
func (h *CustomerHandler) Activate(c *gin.Context) {
	h.transition(c, h.customerService.ReactivateCustomer)
}

// Terminate permanently closes a customer account
func (h *CustomerHandler) Terminate(c *gin.Context) {
	h.transition(c, h.customerService.TerminateCustomer)
}

// ContractService subscribes a customer to a recurring service
func (h *CustomerHandler) ContractService(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req partnerapp.ContractServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.customerService.ContractService(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CancelService deactivates a contracted service
func (h *CustomerHandler) CancelService(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid service ID")
		return
	}

	resp, err := h.customerService.CancelService(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *CustomerHandler) transition(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*partnerapp.CustomerResponse, error)) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	resp, err := op(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
