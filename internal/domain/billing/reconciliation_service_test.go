package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuedInvoice(t *testing.T, total int64) *Invoice {
	t.Helper()
	inv, err := NewInvoice("INV-2026-001", uuid.New(), nil)
	require.NoError(t, err)
	_, err = inv.AddItem("Services", decimal.NewFromInt(1), decimal.NewFromInt(total))
	require.NoError(t, err)
	require.NoError(t, inv.Issue(time.Now(), time.Now().AddDate(0, 0, 30)))
	return inv
}

func TestReconcile_StatusTransitions(t *testing.T) {
	svc := NewReconciliationService()

	tests := []struct {
		name       string
		paid       int64
		wantStatus InvoiceStatus
		wantDue    int64
	}{
		{"no payments", 0, InvoiceStatusUnpaid, 1000},
		{"partial", 400, InvoiceStatusPartial, 600},
		{"exact", 1000, InvoiceStatusPaid, 0},
		{"overpaid clamps due at zero", 1500, InvoiceStatusPaid, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := issuedInvoice(t, 1000)
			res := svc.Reconcile(inv, decimal.NewFromInt(tt.paid))

			assert.Equal(t, tt.wantStatus, inv.Status)
			assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(tt.wantDue)),
				"amount due = %s", inv.AmountDue)
			assert.Equal(t, inv.Status, res.Status)
		})
	}
}

func TestReconcile_DraftAndCancelledKeepStatus(t *testing.T) {
	svc := NewReconciliationService()

	draft, err := NewInvoice("INV-2026-002", uuid.New(), nil)
	require.NoError(t, err)
	_, err = draft.AddItem("Services", decimal.NewFromInt(1), decimal.NewFromInt(500))
	require.NoError(t, err)

	svc.Reconcile(draft, decimal.NewFromInt(200))
	assert.Equal(t, InvoiceStatusDraft, draft.Status)
	assert.True(t, draft.AmountDue.Equal(decimal.NewFromInt(300)))

	cancelled := issuedInvoice(t, 500)
	require.NoError(t, cancelled.Cancel())

	svc.Reconcile(cancelled, decimal.NewFromInt(500))
	assert.Equal(t, InvoiceStatusCancelled, cancelled.Status)
	assert.True(t, cancelled.AmountDue.IsZero())
}

func TestReconcile_IsIdempotent(t *testing.T) {
	svc := NewReconciliationService()
	inv := issuedInvoice(t, 1000)

	first := svc.Reconcile(inv, decimal.NewFromInt(400))
	assert.True(t, first.Changed)

	second := svc.Reconcile(inv, decimal.NewFromInt(400))
	assert.False(t, second.Changed)
	assert.Equal(t, InvoiceStatusPartial, inv.Status)
}

func TestReconcile_EmitsStatusChangedEvent(t *testing.T) {
	svc := NewReconciliationService()
	inv := issuedInvoice(t, 1000)
	inv.ClearDomainEvents()

	svc.Reconcile(inv, decimal.NewFromInt(1000))

	events := inv.GetDomainEvents()
	require.Len(t, events, 1)
	evt, ok := events[0].(*InvoiceStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, InvoiceStatusUnpaid, evt.From)
	assert.Equal(t, InvoiceStatusPaid, evt.To)
}

func TestReconcileFromPayments_SkipsTombstonedAndForeign(t *testing.T) {
	svc := NewReconciliationService()
	inv := issuedInvoice(t, 1000)

	live, err := NewPayment(inv.ID, decimal.NewFromInt(300), PaymentMethodBankTransfer, time.Now())
	require.NoError(t, err)

	dead, err := NewPayment(inv.ID, decimal.NewFromInt(500), PaymentMethodCash, time.Now())
	require.NoError(t, err)
	dead.Delete(uuid.New())

	other, err := NewPayment(uuid.New(), decimal.NewFromInt(999), PaymentMethodCard, time.Now())
	require.NoError(t, err)

	res := svc.ReconcileFromPayments(inv, []*Payment{live, dead, other})

	assert.True(t, res.PaidTotal.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, InvoiceStatusPartial, inv.Status)
	assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(700)))
}

func TestPayment_Reassign(t *testing.T) {
	oldInvoice := uuid.New()
	newInvoice := uuid.New()

	p, err := NewPayment(oldInvoice, decimal.NewFromInt(100), PaymentMethodOnline, time.Now())
	require.NoError(t, err)

	prev, err := p.Reassign(newInvoice)
	require.NoError(t, err)
	assert.Equal(t, oldInvoice, prev)
	assert.Equal(t, newInvoice, p.InvoiceID)

	_, err = p.Reassign(uuid.Nil)
	assert.Error(t, err)
}

func TestInvoice_Lifecycle(t *testing.T) {
	inv, err := NewInvoice("INV-2026-003", uuid.New(), nil)
	require.NoError(t, err)

	// Cannot issue without items
	assert.Error(t, inv.Issue(time.Now(), time.Now().AddDate(0, 0, 30)))

	_, err = inv.AddItem("Work", decimal.NewFromInt(2), decimal.NewFromInt(250))
	require.NoError(t, err)
	assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(500)))

	require.NoError(t, inv.Issue(time.Now(), time.Now().AddDate(0, 0, 30)))
	assert.Equal(t, InvoiceStatusUnpaid, inv.Status)

	// Issued invoices are frozen
	_, err = inv.AddItem("Late", decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.Error(t, err)

	inv.ApplyPaidTotal(decimal.NewFromInt(500))
	assert.Error(t, inv.Cancel(), "paid invoices cannot be cancelled")
}
