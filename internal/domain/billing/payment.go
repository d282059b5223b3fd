package billing

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the money arrived
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodOnline       PaymentMethod = "ONLINE"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard,
		PaymentMethodCheque, PaymentMethodOnline:
		return true
	}
	return false
}

// Payment is money received against an invoice. Every mutation of a
// payment requires re-reconciling the invoice it points at; reassigning
// it to another invoice requires re-reconciling both.
type Payment struct {
	shared.BaseAggregateRoot
	shared.Tombstone
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	PaidAt    time.Time       `json:"paid_at"`
	Reference string          `json:"reference"`
	Note      string          `json:"note"`
}

// NewPayment creates a payment against an invoice
func NewPayment(invoiceID uuid.UUID, amount decimal.Decimal, method PaymentMethod, paidAt time.Time) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Payment must reference an invoice")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is not valid")
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceID:         invoiceID,
		Amount:            amount,
		Method:            method,
		PaidAt:            paidAt,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// WithReference sets the external reference (e.g. a bank transaction id)
func (p *Payment) WithReference(reference string) *Payment {
	p.Reference = reference
	return p
}

// WithNote sets a free-form note
func (p *Payment) WithNote(note string) *Payment {
	p.Note = note
	return p
}

// UpdateDetails changes how and when the payment was made
func (p *Payment) UpdateDetails(method PaymentMethod, paidAt time.Time) error {
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_METHOD", "Payment method is not valid")
	}
	p.Method = method
	p.PaidAt = paidAt
	p.Touch()
	p.IncrementVersion()
	return nil
}

// UpdateAmount changes the payment amount
func (p *Payment) UpdateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	p.Amount = amount
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Reassign moves the payment to a different invoice. The caller must
// reconcile both the old and the new invoice afterwards.
func (p *Payment) Reassign(invoiceID uuid.UUID) (previous uuid.UUID, err error) {
	if invoiceID == uuid.Nil {
		return uuid.Nil, shared.NewDomainError("INVALID_INVOICE", "Payment must reference an invoice")
	}
	previous = p.InvoiceID
	p.InvoiceID = invoiceID
	p.Touch()
	p.IncrementVersion()
	return previous, nil
}

// Delete tombstones the payment. Returns false when already tombstoned.
func (p *Payment) Delete(actor uuid.UUID) bool {
	if !p.MarkDeleted(actor) {
		return false
	}
	p.Touch()
	p.IncrementVersion()
	return true
}

// Undelete restores a tombstoned payment. Returns false when already live.
func (p *Payment) Undelete() bool {
	if !p.Restore() {
		return false
	}
	p.Touch()
	p.IncrementVersion()
	return true
}
