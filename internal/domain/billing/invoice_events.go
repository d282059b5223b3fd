package billing

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Billing event types
const (
	EventTypeInvoiceIssued        = "invoice.issued"
	EventTypeInvoiceStatusChanged = "invoice.status_changed"
	EventTypePaymentRecorded      = "payment.recorded"
)

// InvoiceIssuedEvent is emitted when a draft invoice is issued
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, "Invoice", inv.ID),
		Number:          inv.Number,
		Total:           inv.Total,
	}
}

// InvoiceStatusChangedEvent is emitted when reconciliation moves an
// invoice between paid states
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	From InvoiceStatus `json:"from"`
	To   InvoiceStatus `json:"to"`
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, from, to InvoiceStatus) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceStatusChanged, "Invoice", inv.ID),
		From:            from,
		To:              to,
	}
}

// PaymentRecordedEvent is emitted when a payment is recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, "Payment", p.ID),
		InvoiceID:       p.InvoiceID,
		Amount:          p.Amount,
	}
}
