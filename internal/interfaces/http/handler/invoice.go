package handler

import (
	billingapp "github.com/facturador/backend/internal/application/billing"
	"github.com/facturador/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler exposes invoice issuance and lookup endpoints
type InvoiceHandler struct {
	BaseHandler
	invoicingService *billingapp.InvoicingService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoicingService *billingapp.InvoicingService) *InvoiceHandler {
	return &InvoiceHandler{invoicingService: invoicingService}
}

// RegisterRoutes registers the invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.Issue)
		invoices.POST("/prorated", h.IssueProrated)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
		invoices.POST("/:id/void", h.Void)
	}
	rg.GET("/customers/:id/invoices", h.ListByCustomer)
}

// Issue creates an invoice from explicit lines
func (h *InvoiceHandler) Issue(c *gin.Context) {
	var req billingapp.IssueInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.invoicingService.IssueInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// IssueProrated creates an invoice covering part of a month, priced from the
// customer's active subscriptions
func (h *InvoiceHandler) IssueProrated(c *gin.Context) {
	var req billingapp.IssueProratedInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.invoicingService.IssueProratedInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one invoice, refreshing its overdue status on read
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	resp, err := h.invoicingService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := req.ToFilter()
	invoices, total, err := h.invoicingService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// ListByCustomer returns a page of one customer's invoices
func (h *InvoiceHandler) ListByCustomer(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := req.ToFilter()
	invoices, total, err := h.invoicingService.ListCustomerInvoices(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// VoidInvoiceRequest carries the reason for reversing an invoice
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Void reverses an invoice by issuing a credit note
func (h *InvoiceHandler) Void(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req VoidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Void reason is required")
		return
	}

	resp, err := h.invoicingService.VoidInvoice(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
