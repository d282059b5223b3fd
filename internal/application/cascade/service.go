package cascade

import (
	"context"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/cascade"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	Transaction(fn func(tx *gorm.DB) error) error
}

// Service executes delete and restore cascades. Each cascade runs in a
// single transaction: resolve the closure, write tombstones in
// dependency order, then reconcile every invoice whose payment picture
// the cascade changed. Events are published only after the transaction
// commits.
type Service struct {
	db         TxRunner
	reconciler *billing.ReconciliationService
	publisher  shared.EventPublisher
	cache      cache.InvoiceSummaryCache
	logger     *zap.Logger
}

// NewService creates a cascade Service
func NewService(db TxRunner, reconciler *billing.ReconciliationService, logger *zap.Logger) *Service {
	return &Service{
		db:         db,
		reconciler: reconciler,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher for post-commit events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetSummaryCache sets the invoice summary cache to invalidate for
// every invoice a cascade reconciles
func (s *Service) SetSummaryCache(c cache.InvoiceSummaryCache) {
	s.cache = c
}

// Delete tombstones the entity and its whole live subtree
func (s *Service) Delete(ctx context.Context, kind string, id uuid.UUID, actor uuid.UUID) (*cascade.Result, error) {
	return s.run(ctx, cascade.OpDelete, kind, id, actor)
}

// Restore brings the entity and its tombstoned subtree back
func (s *Service) Restore(ctx context.Context, kind string, id uuid.UUID, actor uuid.UUID) (*cascade.Result, error) {
	return s.run(ctx, cascade.OpRestore, kind, id, actor)
}

func (s *Service) run(ctx context.Context, op cascade.Op, rawKind string, id uuid.UUID, actor uuid.UUID) (*cascade.Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cascade", string(op))
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntityKind, rawKind,
		telemetry.SpanAttrEntityID, id.String(),
		telemetry.SpanAttrActorID, actor.String(),
	)

	kind, ok := cascade.ParseEntityKind(rawKind)
	if !ok {
		telemetry.RecordError(span, cascade.ErrUnknownKind)
		return nil, cascade.ErrUnknownKind
	}

	var result *cascade.Result
	var statusEvents []shared.DomainEvent
	var touchedInvoices []uuid.UUID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		store := persistence.NewGormEntityStore(tx)
		resolver := cascade.NewGraphResolver(store)

		set, err := resolver.Resolve(ctx, op, kind, id)
		if err != nil {
			return err
		}

		if err := s.writeTombstones(ctx, store, op, set, actor); err != nil {
			return err
		}

		result = cascade.NewResult(op, kind, id, set)

		reconciled, invoiceIDs, events, err := s.reconcileAffected(ctx, tx, set)
		if err != nil {
			return err
		}
		result.ReconciledInvoices = reconciled
		touchedInvoices = invoiceIDs
		statusEvents = events

		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("cascade completed",
		zap.String("op", string(op)),
		zap.String("kind", string(kind)),
		zap.String("id", id.String()),
		zap.Int("total", result.Total),
		zap.Int("reconciled_invoices", result.ReconciledInvoices),
	)

	s.publish(ctx, result, statusEvents)
	s.invalidateSummaries(ctx, touchedInvoices)
	telemetry.SetOK(span)

	return result, nil
}

// writeTombstones applies the cascade in dependency order: children
// before parents on delete, parents before children on restore. A row
// count short of the resolved set means another writer changed a row's
// tombstone state between resolve and write.
func (s *Service) writeTombstones(ctx context.Context, store cascade.EntityStore, op cascade.Op, set *cascade.EntitySet, actor uuid.UUID) error {
	order := cascade.DeleteOrder
	if op == cascade.OpRestore {
		order = cascade.RestoreOrder
	}
	now := time.Now().UTC()

	for _, kind := range order {
		ids := set.IDs(kind)
		if len(ids) == 0 {
			continue
		}

		var affected int64
		var err error
		if op == cascade.OpDelete {
			affected, err = store.Tombstone(ctx, kind, ids, actor, now)
		} else {
			affected, err = store.Untombstone(ctx, kind, ids)
		}
		if err != nil {
			return err
		}
		if affected != int64(len(ids)) {
			return shared.NewDomainError(shared.ErrConcurrencyConflict.Code,
				fmt.Sprintf("cascade lost a race on %s: expected %d rows, wrote %d", kind, len(ids), affected))
		}
	}

	return nil
}

// reconcileAffected recomputes every invoice the cascade touched:
// invoices in the set themselves, plus the invoices of every payment in
// the set. The derived state always reflects live payments only, so an
// invoice whose payments were just tombstoned drops back accordingly.
// A payment pointing at an invoice that does not exist breaks the data
// invariant and aborts the whole cascade.
func (s *Service) reconcileAffected(ctx context.Context, tx *gorm.DB, set *cascade.EntitySet) (int, []uuid.UUID, []shared.DomainEvent, error) {
	invoiceRepo := persistence.NewGormInvoiceRepository(tx)
	paymentRepo := persistence.NewGormPaymentRepository(tx)

	invoiceIDs := make(map[uuid.UUID]struct{})
	for _, id := range set.IDs(cascade.KindInvoice) {
		invoiceIDs[id] = struct{}{}
	}
	fromPayment := make(map[uuid.UUID]uuid.UUID)
	for _, paymentID := range set.IDs(cascade.KindPayment) {
		payment, err := paymentRepo.FindByIDAnyState(ctx, paymentID)
		if err != nil {
			return 0, nil, nil, err
		}
		if payment == nil {
			continue
		}
		invoiceIDs[payment.InvoiceID] = struct{}{}
		fromPayment[payment.InvoiceID] = payment.ID
	}

	reconciled := 0
	touched := make([]uuid.UUID, 0, len(invoiceIDs))
	var events []shared.DomainEvent

	for invoiceID := range invoiceIDs {
		touched = append(touched, invoiceID)

		inv, err := invoiceRepo.FindByIDAnyState(ctx, invoiceID)
		if err != nil {
			return 0, nil, nil, err
		}
		if inv == nil {
			return 0, nil, nil, shared.NewDomainError(shared.ErrInvariantViolation.Code,
				fmt.Sprintf("payment %s references invoice %s which does not exist", fromPayment[invoiceID], invoiceID))
		}

		paid, err := paymentRepo.SumLiveByInvoice(ctx, invoiceID)
		if err != nil {
			return 0, nil, nil, err
		}

		outcome := s.reconciler.Reconcile(inv, paid)
		if !outcome.Changed {
			continue
		}

		if err := invoiceRepo.Save(ctx, inv); err != nil {
			return 0, nil, nil, err
		}
		reconciled++
		events = append(events, inv.GetDomainEvents()...)
		inv.ClearDomainEvents()
	}

	return reconciled, touched, events, nil
}

// publish emits the post-commit events; failures are logged, never
// surfaced, because the cascade itself has already committed
func (s *Service) publish(ctx context.Context, result *cascade.Result, statusEvents []shared.DomainEvent) {
	if s.publisher == nil {
		return
	}

	events := append([]shared.DomainEvent{cascade.NewCompletedEvent(result)}, statusEvents...)
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish cascade events",
			zap.String("root_id", result.RootID.String()),
			zap.Error(err),
		)
	}
}

// invalidateSummaries drops the cached projection of every invoice the
// cascade reconciled; a cache failure never fails a committed cascade
func (s *Service) invalidateSummaries(ctx context.Context, invoiceIDs []uuid.UUID) {
	if s.cache == nil || len(invoiceIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, invoiceIDs...); err != nil {
		s.logger.Error("failed to invalidate invoice summaries", zap.Error(err))
	}
}
