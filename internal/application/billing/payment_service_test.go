package billing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.PaymentModel{},
	)
	require.NoError(t, err)

	return db
}

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func newPaymentService(db *gorm.DB) *PaymentService {
	return NewPaymentService(gormRunner{db: db}, billing.NewReconciliationService(), zap.NewNop())
}

// seedInvoice persists an issued invoice with the given total
func seedInvoice(t *testing.T, db *gorm.DB, number string, total int64) *billing.Invoice {
	t.Helper()

	inv, err := billing.NewInvoice(number, uuid.New(), nil)
	require.NoError(t, err)
	_, err = inv.AddItem("Delivery", decimal.NewFromInt(1), decimal.NewFromInt(total))
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, inv.Issue(now, now.AddDate(0, 1, 0)))
	inv.ClearDomainEvents()

	require.NoError(t, persistence.NewGormInvoiceRepository(db).Save(context.Background(), inv))
	return inv
}

func loadInvoice(t *testing.T, db *gorm.DB, id uuid.UUID) *billing.Invoice {
	t.Helper()
	inv, err := persistence.NewGormInvoiceRepository(db).FindByIDAnyState(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, inv)
	return inv
}

func TestPaymentService_RecordPaymentProgression(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	inv := seedInvoice(t, db, "INV-2001", 1000)

	// 400 of 1000 paid
	result, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: inv.ID,
		Amount:    decimal.NewFromInt(400),
		Method:    billing.PaymentMethodBankTransfer,
		PaidAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, result.Reconciled, 1)
	assert.Equal(t, billing.InvoiceStatusPartial, result.Reconciled[0].Status)
	assert.True(t, result.Reconciled[0].AmountDue.Equal(decimal.NewFromInt(600)))

	// remaining 600 settles it
	second, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: inv.ID,
		Amount:    decimal.NewFromInt(600),
		Method:    billing.PaymentMethodCard,
		PaidAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, second.Reconciled[0].Status)
	assert.True(t, second.Reconciled[0].AmountDue.IsZero())

	// deleting the settling payment reopens the balance
	deleted, err := svc.DeletePayment(ctx, second.Payment.ID, uuid.New())
	require.NoError(t, err)
	require.Len(t, deleted.Reconciled, 1)
	assert.Equal(t, billing.InvoiceStatusPartial, deleted.Reconciled[0].Status)
	assert.True(t, deleted.Reconciled[0].AmountDue.Equal(decimal.NewFromInt(600)))

	stored := loadInvoice(t, db, inv.ID)
	assert.Equal(t, billing.InvoiceStatusPartial, stored.Status)
	assert.True(t, stored.AmountDue.Equal(decimal.NewFromInt(600)))
}

func TestPaymentService_DraftInvoiceKeepsStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()

	draft, err := billing.NewInvoice("INV-2002", uuid.New(), nil)
	require.NoError(t, err)
	_, err = draft.AddItem("Retainer", decimal.NewFromInt(1), decimal.NewFromInt(500))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormInvoiceRepository(db).Save(ctx, draft))

	result, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: draft.ID,
		Amount:    decimal.NewFromInt(100),
		Method:    billing.PaymentMethodCash,
		PaidAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusDraft, result.Reconciled[0].Status)
	assert.True(t, result.Reconciled[0].AmountDue.Equal(decimal.NewFromInt(400)))
}

func TestPaymentService_ReassignReconcilesBothInvoices(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	source := seedInvoice(t, db, "INV-2003", 100)
	target := seedInvoice(t, db, "INV-2004", 50)

	recorded, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: source.ID,
		Amount:    decimal.NewFromInt(100),
		Method:    billing.PaymentMethodOnline,
		PaidAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, recorded.Reconciled[0].Status)

	moved, err := svc.UpdatePayment(ctx, recorded.Payment.ID, UpdatePaymentRequest{
		NewInvoiceID: &target.ID,
	})
	require.NoError(t, err)
	require.Len(t, moved.Reconciled, 2)

	sourceAfter := loadInvoice(t, db, source.ID)
	assert.Equal(t, billing.InvoiceStatusUnpaid, sourceAfter.Status)
	assert.True(t, sourceAfter.AmountDue.Equal(decimal.NewFromInt(100)))

	// overpayment on the new invoice clamps the amount due at zero
	targetAfter := loadInvoice(t, db, target.ID)
	assert.Equal(t, billing.InvoiceStatusPaid, targetAfter.Status)
	assert.True(t, targetAfter.AmountDue.IsZero())
}

func TestPaymentService_UpdateAmountReconciles(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	inv := seedInvoice(t, db, "INV-2005", 200)

	recorded, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: inv.ID,
		Amount:    decimal.NewFromInt(200),
		Method:    billing.PaymentMethodCheque,
		PaidAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, recorded.Reconciled[0].Status)

	smaller := decimal.NewFromInt(50)
	updated, err := svc.UpdatePayment(ctx, recorded.Payment.ID, UpdatePaymentRequest{Amount: &smaller})
	require.NoError(t, err)
	require.Len(t, updated.Reconciled, 1)
	assert.Equal(t, billing.InvoiceStatusPartial, updated.Reconciled[0].Status)
	assert.True(t, updated.Reconciled[0].AmountDue.Equal(decimal.NewFromInt(150)))
}

func TestPaymentService_RecordAgainstMissingInvoice(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		InvoiceID: uuid.New(),
		Amount:    decimal.NewFromInt(10),
		Method:    billing.PaymentMethodCash,
		PaidAt:    time.Now().UTC(),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrInvariantViolation.Code, domainErr.Code)
}

func TestPaymentService_DeleteDanglingPaymentSurfacesViolation(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()

	// payment pointing at an invoice that was never written
	payment, err := billing.NewPayment(uuid.New(), decimal.NewFromInt(10), billing.PaymentMethodCash, time.Now().UTC())
	require.NoError(t, err)
	payment.ClearDomainEvents()
	require.NoError(t, persistence.NewGormPaymentRepository(db).Save(ctx, payment))

	_, err = svc.DeletePayment(ctx, payment.ID, uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrInvariantViolation.Code, domainErr.Code)

	// the tombstone rolled back with the failed transaction
	stored, err := persistence.NewGormPaymentRepository(db).FindByID(ctx, payment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsLive())
}

func TestPaymentService_UpdateMissingPayment(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)

	amount := decimal.NewFromInt(10)
	_, err := svc.UpdatePayment(context.Background(), uuid.New(), UpdatePaymentRequest{Amount: &amount})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrNotFound.Code, domainErr.Code)
}

func TestPaymentService_DeleteRestoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	inv := seedInvoice(t, db, "INV-2006", 300)

	recorded, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: inv.ID,
		Amount:    decimal.NewFromInt(300),
		Method:    billing.PaymentMethodBankTransfer,
		PaidAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	deleted, err := svc.DeletePayment(ctx, recorded.Payment.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusUnpaid, deleted.Reconciled[0].Status)

	// repeating the delete is a no-op: nothing to reconcile
	again, err := svc.DeletePayment(ctx, recorded.Payment.ID, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, again.Reconciled)

	restored, err := svc.RestorePayment(ctx, recorded.Payment.ID)
	require.NoError(t, err)
	require.Len(t, restored.Reconciled, 1)
	assert.Equal(t, billing.InvoiceStatusPaid, restored.Reconciled[0].Status)
	assert.True(t, restored.Reconciled[0].AmountDue.IsZero())
}

func TestPaymentService_InvalidatesSummaryCache(t *testing.T) {
	db := setupTestDB(t)
	svc := newPaymentService(db)
	ctx := context.Background()
	inv := seedInvoice(t, db, "INV-2007", 100)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	summaryCache := cache.NewRedisInvoiceSummaryCacheWithClient(client, "", time.Minute)
	svc.SetSummaryCache(summaryCache)

	require.NoError(t, summaryCache.Set(ctx, &cache.InvoiceSummary{
		InvoiceID: inv.ID,
		Status:    string(billing.InvoiceStatusUnpaid),
		Total:     decimal.NewFromInt(100),
		AmountDue: decimal.NewFromInt(100),
	}))

	_, err := svc.RecordPayment(ctx, RecordPaymentRequest{
		InvoiceID: inv.ID,
		Amount:    decimal.NewFromInt(100),
		Method:    billing.PaymentMethodCard,
		PaidAt:    time.Now().UTC(),
	})
	require.NoError(t, err)

	cached, err := summaryCache.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
