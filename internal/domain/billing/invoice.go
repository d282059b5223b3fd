package billing

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment lifecycle of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusUnpaid    InvoiceStatus = "UNPAID"
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusUnpaid, InvoiceStatusPartial,
		InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsTerminalForReconciliation reports whether reconciliation must leave
// the status untouched. Draft and cancelled invoices keep their status;
// only the amount due is kept current.
func (s InvoiceStatus) IsTerminalForReconciliation() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusCancelled
}

// InvoiceItem is a billed line on an invoice
type InvoiceItem struct {
	shared.BaseEntity
	shared.Tombstone
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Position    int             `json:"position"`
}

// LineTotal returns quantity * unit price
func (i *InvoiceItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Invoice bills a contact, optionally tracing back to the quotation it was
// raised from. AmountDue and the paid statuses are derived state: they are
// recomputed from the live payments by the reconciliation service and never
// edited directly.
type Invoice struct {
	shared.BaseAggregateRoot
	shared.Tombstone
	Number      string          `json:"number"`
	ContactID   uuid.UUID       `json:"contact_id"`
	QuotationID *uuid.UUID      `json:"quotation_id,omitempty"`
	Status      InvoiceStatus   `json:"status"`
	Total       decimal.Decimal `json:"total"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	IssueDate   *time.Time      `json:"issue_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Items       []InvoiceItem   `json:"items"`
}

// NewInvoice creates a draft invoice for a contact
func NewInvoice(number string, contactID uuid.UUID, quotationID *uuid.UUID) (*Invoice, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if contactID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTACT", "Invoice must reference a contact")
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		ContactID:         contactID,
		QuotationID:       quotationID,
		Status:            InvoiceStatusDraft,
		Total:             decimal.Zero,
		AmountDue:         decimal.Zero,
	}, nil
}

// AddItem appends a line to a draft invoice and recalculates the total
func (inv *Invoice) AddItem(description string, quantity, unitPrice decimal.Decimal) (*InvoiceItem, error) {
	if inv.Status != InvoiceStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Only draft invoices can be modified")
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

	item := InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   inv.ID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Position:    len(inv.Items) + 1,
	}
	inv.Items = append(inv.Items, item)
	inv.RecalculateTotal()
	inv.Touch()
	inv.IncrementVersion()

	return &inv.Items[len(inv.Items)-1], nil
}

// RecalculateTotal sums the live line items into Total and keeps
// AmountDue consistent for a draft (no payments applied yet)
func (inv *Invoice) RecalculateTotal() {
	total := decimal.Zero
	for i := range inv.Items {
		if inv.Items[i].IsLive() {
			total = total.Add(inv.Items[i].LineTotal())
		}
	}
	inv.Total = total
	if inv.Status == InvoiceStatusDraft {
		inv.AmountDue = total
	}
}

// Issue moves a draft invoice into the unpaid state
func (inv *Invoice) Issue(issueDate, dueDate time.Time) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft invoices can be issued")
	}
	if len(inv.Items) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Invoice has no line items")
	}
	if dueDate.Before(issueDate) {
		return shared.NewDomainError("INVALID_DATE", "Due date cannot precede issue date")
	}
	inv.Status = InvoiceStatusUnpaid
	inv.IssueDate = &issueDate
	inv.DueDate = &dueDate
	inv.AmountDue = inv.Total
	inv.Touch()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return nil
}

// Cancel voids the invoice. Cancelled invoices keep receiving amount-due
// updates from reconciliation but their status is never overwritten.
func (inv *Invoice) Cancel() error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already cancelled")
	}
	if inv.Status == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Paid invoices cannot be cancelled")
	}
	inv.Status = InvoiceStatusCancelled
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// ApplyPaidTotal recomputes AmountDue and Status from the given sum of
// live payments. It returns true when either field changed.
//
// AmountDue is clamped at zero when payments exceed the total. Draft and
// cancelled invoices get the amount refreshed but keep their status.
func (inv *Invoice) ApplyPaidTotal(paid decimal.Decimal) bool {
	due := inv.Total.Sub(paid)
	if due.IsNegative() {
		due = decimal.Zero
	}

	status := inv.Status
	if !inv.Status.IsTerminalForReconciliation() {
		switch {
		case paid.LessThanOrEqual(decimal.Zero):
			status = InvoiceStatusUnpaid
		case paid.LessThan(inv.Total):
			status = InvoiceStatusPartial
		default:
			status = InvoiceStatusPaid
		}
	}

	changed := !inv.AmountDue.Equal(due) || inv.Status != status
	if !changed {
		return false
	}

	if inv.Status != status {
		inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, inv.Status, status))
	}
	inv.AmountDue = due
	inv.Status = status
	inv.Touch()
	inv.IncrementVersion()
	return true
}

// Delete tombstones the invoice. Returns false when already tombstoned.
func (inv *Invoice) Delete(actor uuid.UUID) bool {
	if !inv.MarkDeleted(actor) {
		return false
	}
	inv.Touch()
	inv.IncrementVersion()
	return true
}

// Undelete restores a tombstoned invoice. Returns false when already live.
func (inv *Invoice) Undelete() bool {
	if !inv.Restore() {
		return false
	}
	inv.Touch()
	inv.IncrementVersion()
	return true
}
