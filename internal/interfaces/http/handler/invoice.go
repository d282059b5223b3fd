package handler

import (
	billingapp "github.com/crm/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler serves the read-only invoice projections
type InvoiceHandler struct {
	BaseHandler
	queryService *billingapp.InvoiceQueryService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(queryService *billingapp.InvoiceQueryService) *InvoiceHandler {
	return &InvoiceHandler{queryService: queryService}
}

// RegisterRoutes registers the invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	invoices.GET("/:id/summary", h.Summary)
}

// Summary returns the current reconciliation state of an invoice
func (h *InvoiceHandler) Summary(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	summary, err := h.queryService.GetSummary(c.Request.Context(), invoiceID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, summary)
}
