package sales

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationStatus represents the lifecycle of a quotation
type QuotationStatus string

const (
	QuotationStatusDraft    QuotationStatus = "DRAFT"
	QuotationStatusSent     QuotationStatus = "SENT"
	QuotationStatusAccepted QuotationStatus = "ACCEPTED"
	QuotationStatusDeclined QuotationStatus = "DECLINED"
)

// IsValid checks if the status is a valid QuotationStatus
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSent,
		QuotationStatusAccepted, QuotationStatusDeclined:
		return true
	}
	return false
}

// QuotationItem is a priced line on a quotation. Items carry their own
// tombstone so a cascade can remove and restore them individually.
type QuotationItem struct {
	shared.BaseEntity
	shared.Tombstone
	QuotationID uuid.UUID       `json:"quotation_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Position    int             `json:"position"`
}

// LineTotal returns quantity * unit price
func (i *QuotationItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Quotation is a priced offer attached to a lead
type Quotation struct {
	shared.BaseAggregateRoot
	shared.Tombstone
	Number     string          `json:"number"`
	LeadID     uuid.UUID       `json:"lead_id"`
	Status     QuotationStatus `json:"status"`
	Total      decimal.Decimal `json:"total"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
	Remark     string          `json:"remark"`
	Items      []QuotationItem `json:"items"`
}

// NewQuotation creates a draft quotation for a lead
func NewQuotation(number string, leadID uuid.UUID) (*Quotation, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Quotation number cannot be empty")
	}
	if leadID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEAD", "Quotation must reference a lead")
	}

	return &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		LeadID:            leadID,
		Status:            QuotationStatusDraft,
		Total:             decimal.Zero,
	}, nil
}

// AddItem appends a line to the quotation and recalculates the total
func (q *Quotation) AddItem(description string, quantity, unitPrice decimal.Decimal) (*QuotationItem, error) {
	if q.Status != QuotationStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Only draft quotations can be modified")
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item description cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item unit price cannot be negative")
	}

	item := QuotationItem{
		BaseEntity:  shared.NewBaseEntity(),
		QuotationID: q.ID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Position:    len(q.Items) + 1,
	}
	q.Items = append(q.Items, item)
	q.recalculateTotal()
	q.Touch()
	q.IncrementVersion()

	return &q.Items[len(q.Items)-1], nil
}

// recalculateTotal sums the live line items
func (q *Quotation) recalculateTotal() {
	total := decimal.Zero
	for i := range q.Items {
		if q.Items[i].IsLive() {
			total = total.Add(q.Items[i].LineTotal())
		}
	}
	q.Total = total
}

// Send marks a draft quotation as sent to the customer
func (q *Quotation) Send(validUntil time.Time) error {
	if q.Status != QuotationStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft quotations can be sent")
	}
	if len(q.Items) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Quotation has no line items")
	}
	q.Status = QuotationStatusSent
	q.ValidUntil = &validUntil
	q.Touch()
	q.IncrementVersion()

	q.AddDomainEvent(NewQuotationSentEvent(q))

	return nil
}

// Accept marks a sent quotation as accepted
func (q *Quotation) Accept() error {
	if q.Status != QuotationStatusSent {
		return shared.NewDomainError("INVALID_STATE", "Only sent quotations can be accepted")
	}
	q.Status = QuotationStatusAccepted
	q.Touch()
	q.IncrementVersion()

	q.AddDomainEvent(NewQuotationAcceptedEvent(q))

	return nil
}

// Decline marks a sent quotation as declined
func (q *Quotation) Decline() error {
	if q.Status != QuotationStatusSent {
		return shared.NewDomainError("INVALID_STATE", "Only sent quotations can be declined")
	}
	q.Status = QuotationStatusDeclined
	q.Touch()
	q.IncrementVersion()
	return nil
}

// Delete tombstones the quotation. Returns false when already tombstoned.
func (q *Quotation) Delete(actor uuid.UUID) bool {
	if !q.MarkDeleted(actor) {
		return false
	}
	q.Touch()
	q.IncrementVersion()
	return true
}

// Undelete restores a tombstoned quotation. Returns false when already live.
func (q *Quotation) Undelete() bool {
	if !q.Restore() {
		return false
	}
	q.Touch()
	q.IncrementVersion()
	return true
}
