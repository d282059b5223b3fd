package handler

import (
	"time"

	billingapp "github.com/crm/backend/internal/application/billing"
	"github.com/crm/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment API endpoints. Every write triggers
// reconciliation of the affected invoice(s) before the response.
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers the payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	payments.POST("", h.Record)
	payments.PUT("/:id", h.Update)
	payments.DELETE("/:id", h.Delete)
	payments.POST("/:id/restore", h.Restore)
}

// RecordPaymentRequest is the request body for recording a payment
type RecordPaymentRequest struct {
	InvoiceID string  `json:"invoice_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CARD CHEQUE ONLINE"`
	PaidAt    string  `json:"paid_at" binding:"omitempty,rfc3339"`
	Reference string  `json:"reference" binding:"max=200"`
	Note      string  `json:"note" binding:"max=1000"`
}

// UpdatePaymentRequest is the request body for a partial payment update
type UpdatePaymentRequest struct {
	Amount       *float64 `json:"amount" binding:"omitempty,gt=0"`
	Method       *string  `json:"method" binding:"omitempty,oneof=CASH BANK_TRANSFER CARD CHEQUE ONLINE"`
	PaidAt       *string  `json:"paid_at" binding:"omitempty,rfc3339"`
	Reference    *string  `json:"reference" binding:"omitempty,max=200"`
	Note         *string  `json:"note" binding:"omitempty,max=1000"`
	NewInvoiceID *string  `json:"new_invoice_id" binding:"omitempty,uuid"`
}

// Record creates a payment against an invoice
func (h *PaymentHandler) Record(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != "" {
		paidAt, err = time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			h.BadRequest(c, "paid_at must be RFC 3339")
			return
		}
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), billingapp.RecordPaymentRequest{
		InvoiceID: invoiceID,
		Amount:    decimal.NewFromFloat(req.Amount),
		Method:    billing.PaymentMethod(req.Method),
		PaidAt:    paidAt,
		Reference: req.Reference,
		Note:      req.Note,
	})
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Update applies a partial update, including invoice reassignment
func (h *PaymentHandler) Update(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := billingapp.UpdatePaymentRequest{
		Reference: req.Reference,
		Note:      req.Note,
	}
	if req.Amount != nil {
		amount := decimal.NewFromFloat(*req.Amount)
		appReq.Amount = &amount
	}
	if req.Method != nil {
		method := billing.PaymentMethod(*req.Method)
		appReq.Method = &method
	}
	if req.PaidAt != nil {
		paidAt, err := time.Parse(time.RFC3339, *req.PaidAt)
		if err != nil {
			h.BadRequest(c, "paid_at must be RFC 3339")
			return
		}
		appReq.PaidAt = &paidAt
	}
	if req.NewInvoiceID != nil {
		invoiceID, err := uuid.Parse(*req.NewInvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID")
			return
		}
		appReq.NewInvoiceID = &invoiceID
	}

	result, err := h.paymentService.UpdatePayment(c.Request.Context(), paymentID, appReq)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete tombstones a payment and reconciles its invoice
func (h *PaymentHandler) Delete(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid X-User-ID header")
		return
	}

	result, err := h.paymentService.DeletePayment(c.Request.Context(), paymentID, actor)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Restore brings a tombstoned payment back and reconciles its invoice
func (h *PaymentHandler) Restore(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	result, err := h.paymentService.RestorePayment(c.Request.Context(), paymentID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	h.Success(c, result)
}
