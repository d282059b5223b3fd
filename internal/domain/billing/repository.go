package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRepository defines the persistence contract for invoices.
// Save persists the aggregate including its line items.
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDAnyState(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByContactID(ctx context.Context, contactID uuid.UUID) ([]*Invoice, error)
	FindByQuotationID(ctx context.Context, quotationID uuid.UUID) ([]*Invoice, error)
}

// PaymentRepository defines the persistence contract for payments
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByIDAnyState(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]*Payment, error)
	// SumLiveByInvoice aggregates the live payment amounts for an invoice
	SumLiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
}
