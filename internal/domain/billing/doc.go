// Package billing provides the invoicing and payment domain model.
//
// Key Aggregates:
//   - Invoice: an itemised bill against a contact with a derived payment
//     status (DRAFT, UNPAID, PARTIAL, PAID, CANCELLED) and an amount due
//   - Payment: money received against an invoice
//
// The package also hosts the ReconciliationService, which recomputes an
// invoice's paid total, amount due and status from the sum of its live
// (non-tombstoned) payments. Draft and cancelled invoices keep their
// status; only the amount due is refreshed for them.
package billing
