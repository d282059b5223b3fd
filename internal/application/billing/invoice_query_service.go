package billing

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceQueryService serves the read-only reconciliation projection of
// an invoice. Summaries are cached; writes invalidate the cache, so a
// hit is always post-reconciliation state.
type InvoiceQueryService struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	cache       cache.InvoiceSummaryCache
	logger      *zap.Logger
}

// NewInvoiceQueryService creates an InvoiceQueryService
func NewInvoiceQueryService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	logger *zap.Logger,
) *InvoiceQueryService {
	return &InvoiceQueryService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// SetSummaryCache sets the summary cache. Without one every read goes
// to the store.
func (s *InvoiceQueryService) SetSummaryCache(c cache.InvoiceSummaryCache) {
	s.cache = c
}

// GetSummary returns the current {amountDue, status} projection for a
// live invoice
func (s *InvoiceQueryService) GetSummary(ctx context.Context, invoiceID uuid.UUID) (*cache.InvoiceSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_query", "get_summary")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, invoiceID.String())

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, invoiceID)
		if err != nil {
			// A broken cache must not take reads down
			s.logger.Warn("invoice summary cache read failed", zap.Error(err))
		} else if cached != nil {
			telemetry.SetAttribute(span, "cache_hit", "true")
			telemetry.SetOK(span)
			return cached, nil
		}
	}

	summary, err := s.computeSummary(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.Warn("invoice summary cache write failed", zap.Error(err))
		}
	}

	telemetry.SetOK(span)
	return summary, nil
}

func (s *InvoiceQueryService) computeSummary(ctx context.Context, invoiceID uuid.UUID) (*cache.InvoiceSummary, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.ErrNotFound
	}

	paid, err := s.paymentRepo.SumLiveByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	// FindByInvoiceID only returns live payments
	payments, err := s.paymentRepo.FindByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	return &cache.InvoiceSummary{
		InvoiceID:        invoice.ID,
		Status:           string(invoice.Status),
		Total:            invoice.Total,
		PaidTotal:        paid,
		AmountDue:        invoice.AmountDue,
		LivePaymentCount: len(payments),
		ComputedAt:       time.Now().UTC(),
	}, nil
}
