package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	Transaction(fn func(tx *gorm.DB) error) error
}

// PaymentService handles payment writes. Every mutation reconciles the
// invoice(s) the payment touches inside the same transaction, so the
// derived amount-due/status pair is never observable in a stale state.
type PaymentService struct {
	db         TxRunner
	reconciler *billing.ReconciliationService
	cache      cache.InvoiceSummaryCache
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewPaymentService creates a PaymentService
func NewPaymentService(db TxRunner, reconciler *billing.ReconciliationService, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		db:         db,
		reconciler: reconciler,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for post-commit events
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetSummaryCache sets the invoice summary cache to invalidate on
// every reconciliation
func (s *PaymentService) SetSummaryCache(c cache.InvoiceSummaryCache) {
	s.cache = c
}

// RecordPaymentRequest carries the fields of a new payment
type RecordPaymentRequest struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Method    billing.PaymentMethod
	PaidAt    time.Time
	Reference string
	Note      string
}

// UpdatePaymentRequest carries a partial payment update. Nil fields are
// left unchanged. NewInvoiceID moves the payment to another invoice and
// reconciles both sides.
type UpdatePaymentRequest struct {
	Amount       *decimal.Decimal
	Method       *billing.PaymentMethod
	PaidAt       *time.Time
	Reference    *string
	Note         *string
	NewInvoiceID *uuid.UUID
}

// PaymentResult is the outcome of a payment mutation: the payment row
// plus the post-reconciliation state of every invoice it touched.
type PaymentResult struct {
	Payment    *billing.Payment          `json:"payment"`
	Reconciled []billing.ReconcileResult `json:"reconciled"`
}

// RecordPayment creates a payment against a live invoice and reconciles it
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, req.InvoiceID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var result *PaymentResult
	var events []shared.DomainEvent

	err := s.db.Transaction(func(tx *gorm.DB) error {
		invoiceRepo := persistence.NewGormInvoiceRepository(tx)
		paymentRepo := persistence.NewGormPaymentRepository(tx)

		invoice, err := invoiceRepo.FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError(shared.ErrInvariantViolation.Code,
				"Payment references an invoice that does not exist")
		}

		payment, err := billing.NewPayment(req.InvoiceID, req.Amount, req.Method, req.PaidAt)
		if err != nil {
			return err
		}
		payment.WithReference(req.Reference).WithNote(req.Note)

		if err := paymentRepo.Save(ctx, payment); err != nil {
			return err
		}
		events = append(events, payment.GetDomainEvents()...)
		payment.ClearDomainEvents()

		outcome, invEvents, err := s.reconcileInvoice(ctx, tx, invoice)
		if err != nil {
			return err
		}
		events = append(events, invEvents...)

		result = &PaymentResult{
			Payment:    payment,
			Reconciled: []billing.ReconcileResult{outcome},
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, events, req.InvoiceID)
	telemetry.SetOK(span)

	return result, nil
}

// UpdatePayment applies a partial update. A reassignment reconciles
// both the old and the new invoice.
func (s *PaymentService) UpdatePayment(ctx context.Context, paymentID uuid.UUID, req UpdatePaymentRequest) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, paymentID.String())

	var result *PaymentResult
	var events []shared.DomainEvent
	var touched []uuid.UUID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		invoiceRepo := persistence.NewGormInvoiceRepository(tx)
		paymentRepo := persistence.NewGormPaymentRepository(tx)

		payment, err := paymentRepo.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return shared.ErrNotFound
		}

		if req.Amount != nil {
			if err := payment.UpdateAmount(*req.Amount); err != nil {
				return err
			}
		}
		if req.Method != nil || req.PaidAt != nil {
			method := payment.Method
			paidAt := payment.PaidAt
			if req.Method != nil {
				method = *req.Method
			}
			if req.PaidAt != nil {
				paidAt = *req.PaidAt
			}
			if err := payment.UpdateDetails(method, paidAt); err != nil {
				return err
			}
		}
		if req.Reference != nil {
			payment.WithReference(*req.Reference)
		}
		if req.Note != nil {
			payment.WithNote(*req.Note)
		}

		touched = []uuid.UUID{payment.InvoiceID}
		if req.NewInvoiceID != nil && *req.NewInvoiceID != payment.InvoiceID {
			target, err := invoiceRepo.FindByID(ctx, *req.NewInvoiceID)
			if err != nil {
				return err
			}
			if target == nil {
				return shared.NewDomainError(shared.ErrInvariantViolation.Code,
					"Payment references an invoice that does not exist")
			}
			previous, err := payment.Reassign(*req.NewInvoiceID)
			if err != nil {
				return err
			}
			touched = []uuid.UUID{previous, *req.NewInvoiceID}
		}

		if err := paymentRepo.Save(ctx, payment); err != nil {
			return err
		}

		result = &PaymentResult{Payment: payment}
		for _, invoiceID := range touched {
			invoice, err := invoiceRepo.FindByIDAnyState(ctx, invoiceID)
			if err != nil {
				return err
			}
			if invoice == nil {
				return shared.NewDomainError(shared.ErrInvariantViolation.Code,
					fmt.Sprintf("payment %s references invoice %s which does not exist", payment.ID, invoiceID))
			}
			outcome, invEvents, err := s.reconcileInvoice(ctx, tx, invoice)
			if err != nil {
				return err
			}
			events = append(events, invEvents...)
			result.Reconciled = append(result.Reconciled, outcome)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, events, touched...)
	telemetry.SetOK(span)

	return result, nil
}

// DeletePayment tombstones a payment and reconciles its invoice.
// Deleting an already tombstoned payment is a no-op.
func (s *PaymentService) DeletePayment(ctx context.Context, paymentID uuid.UUID, actor uuid.UUID) (*PaymentResult, error) {
	return s.toggleTombstone(ctx, "delete", paymentID, func(p *billing.Payment) bool {
		return p.Delete(actor)
	})
}

// RestorePayment brings a tombstoned payment back and reconciles its
// invoice. Restoring a live payment is a no-op.
func (s *PaymentService) RestorePayment(ctx context.Context, paymentID uuid.UUID) (*PaymentResult, error) {
	return s.toggleTombstone(ctx, "restore", paymentID, func(p *billing.Payment) bool {
		return p.Undelete()
	})
}

func (s *PaymentService) toggleTombstone(ctx context.Context, op string, paymentID uuid.UUID, toggle func(*billing.Payment) bool) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", op)
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, paymentID.String())

	var result *PaymentResult
	var events []shared.DomainEvent
	var invoiceID uuid.UUID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		invoiceRepo := persistence.NewGormInvoiceRepository(tx)
		paymentRepo := persistence.NewGormPaymentRepository(tx)

		payment, err := paymentRepo.FindByIDAnyState(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return shared.ErrNotFound
		}

		result = &PaymentResult{Payment: payment}
		if !toggle(payment) {
			return nil
		}
		if err := paymentRepo.Save(ctx, payment); err != nil {
			return err
		}

		invoiceID = payment.InvoiceID
		invoice, err := invoiceRepo.FindByIDAnyState(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return shared.NewDomainError(shared.ErrInvariantViolation.Code,
				fmt.Sprintf("payment %s references invoice %s which does not exist", payment.ID, invoiceID))
		}

		outcome, invEvents, err := s.reconcileInvoice(ctx, tx, invoice)
		if err != nil {
			return err
		}
		events = append(events, invEvents...)
		result.Reconciled = append(result.Reconciled, outcome)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if invoiceID != uuid.Nil {
		s.afterCommit(ctx, events, invoiceID)
	}
	telemetry.SetOK(span)

	return result, nil
}

// reconcileInvoice recomputes one invoice from its live payments and
// persists it when anything changed
func (s *PaymentService) reconcileInvoice(ctx context.Context, tx *gorm.DB, invoice *billing.Invoice) (billing.ReconcileResult, []shared.DomainEvent, error) {
	paymentRepo := persistence.NewGormPaymentRepository(tx)
	invoiceRepo := persistence.NewGormInvoiceRepository(tx)

	paid, err := paymentRepo.SumLiveByInvoice(ctx, invoice.ID)
	if err != nil {
		return billing.ReconcileResult{}, nil, err
	}

	outcome := s.reconciler.Reconcile(invoice, paid)
	if !outcome.Changed {
		return outcome, nil, nil
	}

	if err := invoiceRepo.Save(ctx, invoice); err != nil {
		return billing.ReconcileResult{}, nil, err
	}

	events := invoice.GetDomainEvents()
	invoice.ClearDomainEvents()
	return outcome, events, nil
}

// afterCommit publishes events and drops stale cached summaries;
// neither failure can undo the committed write, so both only log
func (s *PaymentService) afterCommit(ctx context.Context, events []shared.DomainEvent, invoiceIDs ...uuid.UUID) {
	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish payment events", zap.Error(err))
		}
	}
	if s.cache != nil && len(invoiceIDs) > 0 {
		if err := s.cache.Invalidate(ctx, invoiceIDs...); err != nil {
			s.logger.Error("failed to invalidate invoice summaries", zap.Error(err))
		}
	}
}
