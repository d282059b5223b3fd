package billing

import (
	"github.com/shopspring/decimal"
)

// ReconciliationService recomputes an invoice's derived payment state.
// It is a pure domain service: callers load the invoice and the live
// payment total, and persist the invoice when Reconcile reports a change.
type ReconciliationService struct{}

// NewReconciliationService creates a ReconciliationService
func NewReconciliationService() *ReconciliationService {
	return &ReconciliationService{}
}

// ReconcileResult reports what reconciliation did to an invoice
type ReconcileResult struct {
	InvoiceID string          `json:"invoice_id"`
	PaidTotal decimal.Decimal `json:"paid_total"`
	AmountDue decimal.Decimal `json:"amount_due"`
	Status    InvoiceStatus   `json:"status"`
	Changed   bool            `json:"changed"`
}

// Reconcile applies the live payment total to the invoice and reports
// the outcome. Tombstoned payments never contribute to the total; the
// caller is responsible for summing live payments only.
func (s *ReconciliationService) Reconcile(inv *Invoice, livePaidTotal decimal.Decimal) ReconcileResult {
	changed := inv.ApplyPaidTotal(livePaidTotal)
	return ReconcileResult{
		InvoiceID: inv.ID.String(),
		PaidTotal: livePaidTotal,
		AmountDue: inv.AmountDue,
		Status:    inv.Status,
		Changed:   changed,
	}
}

// ReconcileFromPayments sums the live payments itself and then applies
// them, for callers that already hold the payment rows.
func (s *ReconciliationService) ReconcileFromPayments(inv *Invoice, payments []*Payment) ReconcileResult {
	total := decimal.Zero
	for _, p := range payments {
		if p.IsLive() && p.InvoiceID == inv.ID {
			total = total.Add(p.Amount)
		}
	}
	return s.Reconcile(inv, total)
}
