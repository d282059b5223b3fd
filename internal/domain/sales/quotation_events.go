package sales

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Quotation event types
const (
	EventTypeQuotationSent     = "quotation.sent"
	EventTypeQuotationAccepted = "quotation.accepted"
)

// QuotationSentEvent is emitted when a quotation is sent to the customer
type QuotationSentEvent struct {
	shared.BaseDomainEvent
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
}

// NewQuotationSentEvent creates a new QuotationSentEvent
func NewQuotationSentEvent(q *Quotation) *QuotationSentEvent {
	return &QuotationSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationSent, "Quotation", q.ID),
		Number:          q.Number,
		Total:           q.Total,
	}
}

// QuotationAcceptedEvent is emitted when the customer accepts a quotation
type QuotationAcceptedEvent struct {
	shared.BaseDomainEvent
	Number string          `json:"number"`
	Total  decimal.Decimal `json:"total"`
}

// NewQuotationAcceptedEvent creates a new QuotationAcceptedEvent
func NewQuotationAcceptedEvent(q *Quotation) *QuotationAcceptedEvent {
	return &QuotationAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotationAccepted, "Quotation", q.ID),
		Number:          q.Number,
		Total:           q.Total,
	}
}
