package cascade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/cascade"
	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
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
		&models.LeadModel{},
		&models.CompanyModel{},
		&models.ContactModel{},
		&models.QuotationModel{},
		&models.QuotationItemModel{},
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.PaymentModel{},
		&models.ProjectModel{},
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

type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

// graph holds the seeded business records a cascade test runs against
type graph struct {
	lead      *crm.Lead
	company   *crm.Company
	contact   *crm.Contact
	quotation *sales.Quotation
	invoice   *billing.Invoice
	payments  []*billing.Payment
	project   *sales.Project
}

// total records in the graph: lead, company, contact, quotation,
// 2 quotation items, invoice, invoice item, 2 payments, project
const graphSize = 11

// seedGraph builds a converted lead with a fully paid invoice:
// total 100, payments 40 + 60
func seedGraph(t *testing.T, db *gorm.DB) *graph {
	t.Helper()
	ctx := context.Background()

	leadRepo := persistence.NewGormLeadRepository(db)
	companyRepo := persistence.NewGormCompanyRepository(db)
	contactRepo := persistence.NewGormContactRepository(db)
	quotationRepo := persistence.NewGormQuotationRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	projectRepo := persistence.NewGormProjectRepository(db)

	lead, err := crm.NewLead("Acme lead", "sales@acme.test", "", "referral")
	require.NoError(t, err)

	company, err := crm.NewCompany("Acme Ltd", "info@acme.test", "", &lead.ID)
	require.NoError(t, err)
	require.NoError(t, lead.Convert(company.ID))

	contact, err := crm.NewContact("Ada", "Byron", "ada@acme.test", &company.ID, &lead.ID)
	require.NoError(t, err)

	quotation, err := sales.NewQuotation("Q-1001", lead.ID)
	require.NoError(t, err)
	_, err = quotation.AddItem("Consulting", decimal.NewFromInt(2), decimal.NewFromInt(30))
	require.NoError(t, err)
	_, err = quotation.AddItem("Licence", decimal.NewFromInt(1), decimal.NewFromInt(40))
	require.NoError(t, err)

	invoice, err := billing.NewInvoice("INV-1001", contact.ID, &quotation.ID)
	require.NoError(t, err)
	_, err = invoice.AddItem("Project delivery", decimal.NewFromInt(1), decimal.NewFromInt(100))
	require.NoError(t, err)
	issueDate := time.Now().UTC()
	require.NoError(t, invoice.Issue(issueDate, issueDate.AddDate(0, 1, 0)))

	first, err := billing.NewPayment(invoice.ID, decimal.NewFromInt(40), billing.PaymentMethodBankTransfer, issueDate)
	require.NoError(t, err)
	second, err := billing.NewPayment(invoice.ID, decimal.NewFromInt(60), billing.PaymentMethodCard, issueDate)
	require.NoError(t, err)

	invoice.ApplyPaidTotal(decimal.NewFromInt(100))
	invoice.ClearDomainEvents()

	project, err := sales.NewProject("Rollout", &company.ID, &quotation.ID)
	require.NoError(t, err)

	require.NoError(t, leadRepo.Save(ctx, lead))
	require.NoError(t, companyRepo.Save(ctx, company))
	require.NoError(t, contactRepo.Save(ctx, contact))
	require.NoError(t, quotationRepo.Save(ctx, quotation))
	require.NoError(t, invoiceRepo.Save(ctx, invoice))
	require.NoError(t, paymentRepo.Save(ctx, first))
	require.NoError(t, paymentRepo.Save(ctx, second))
	require.NoError(t, projectRepo.Save(ctx, project))

	return &graph{
		lead:      lead,
		company:   company,
		contact:   contact,
		quotation: quotation,
		invoice:   invoice,
		payments:  []*billing.Payment{first, second},
		project:   project,
	}
}

func newService(db *gorm.DB) (*Service, *capturingPublisher) {
	svc := NewService(gormRunner{db: db}, billing.NewReconciliationService(), zap.NewNop())
	pub := &capturingPublisher{}
	svc.SetEventPublisher(pub)
	return svc, pub
}

func requireState(t *testing.T, db *gorm.DB, kind cascade.EntityKind, id uuid.UUID, deleted bool) {
	t.Helper()
	store := persistence.NewGormEntityStore(db)
	rec, err := store.Find(context.Background(), kind, id)
	require.NoError(t, err)
	assert.Equal(t, deleted, rec.Deleted, "kind %s id %s", kind, id)
}

func TestService_DeleteLeadCascadesWholeSubtree(t *testing.T) {
	db := setupTestDB(t)
	g := seedGraph(t, db)
	svc, pub := newService(db)
	actor := uuid.New()

	result, err := svc.Delete(context.Background(), "lead", g.lead.ID, actor)
	require.NoError(t, err)

	assert.Equal(t, cascade.OpDelete, result.Op)
	assert.Equal(t, graphSize, result.Total)
	assert.Equal(t, 1, result.ReconciledInvoices)

	requireState(t, db, cascade.KindLead, g.lead.ID, true)
	requireState(t, db, cascade.KindCompany, g.company.ID, true)
	requireState(t, db, cascade.KindContact, g.contact.ID, true)
	requireState(t, db, cascade.KindQuotation, g.quotation.ID, true)
	requireState(t, db, cascade.KindInvoice, g.invoice.ID, true)
	requireState(t, db, cascade.KindPayment, g.payments[0].ID, true)
	requireState(t, db, cascade.KindPayment, g.payments[1].ID, true)
	requireState(t, db, cascade.KindProject, g.project.ID, true)

	// With every payment tombstoned the invoice falls back to unpaid
	inv, err := persistence.NewGormInvoiceRepository(db).FindByIDAnyState(context.Background(), g.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusUnpaid, inv.Status)
	assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(100)))

	require.NotEmpty(t, pub.events)
	assert.Equal(t, cascade.EventTypeCascadeCompleted, pub.events[0].EventType())
}

func TestService_DeletePaymentReconcilesItsInvoice(t *testing.T) {
	db := setupTestDB(t)
	g := seedGraph(t, db)
	svc, _ := newService(db)

	result, err := svc.Delete(context.Background(), "payment", g.payments[0].ID, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.ReconciledInvoices)

	inv, err := persistence.NewGormInvoiceRepository(db).FindByID(context.Background(), g.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPartial, inv.Status)
	assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(40)))
}

func TestService_RestoreRoundTripRecoversPaidStatus(t *testing.T) {
	db := setupTestDB(t)
	g := seedGraph(t, db)
	svc, _ := newService(db)
	ctx := context.Background()
	actor := uuid.New()

	_, err := svc.Delete(ctx, "lead", g.lead.ID, actor)
	require.NoError(t, err)

	result, err := svc.Restore(ctx, "lead", g.lead.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, graphSize, result.Total)

	requireState(t, db, cascade.KindLead, g.lead.ID, false)
	requireState(t, db, cascade.KindPayment, g.payments[1].ID, false)
	requireState(t, db, cascade.KindProject, g.project.ID, false)

	inv, err := persistence.NewGormInvoiceRepository(db).FindByID(ctx, g.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.AmountDue.IsZero())
}

func TestService_RestoreSkipsRecordsRestoredOutOfBand(t *testing.T) {
	db := setupTestDB(t)
	g := seedGraph(t, db)
	svc, _ := newService(db)
	ctx := context.Background()

	_, err := svc.Delete(ctx, "lead", g.lead.ID, uuid.New())
	require.NoError(t, err)

	// One payment comes back on its own before the subtree restore
	store := persistence.NewGormEntityStore(db)
	n, err := store.Untombstone(ctx, cascade.KindPayment, []uuid.UUID{g.payments[0].ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	result, err := svc.Restore(ctx, "lead", g.lead.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, graphSize-1, result.Total)
	requireState(t, db, cascade.KindPayment, g.payments[0].ID, false)
}

func TestService_DeleteTwiceIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	g := seedGraph(t, db)
	svc, _ := newService(db)
	ctx := context.Background()

	first, err := svc.Delete(ctx, "lead", g.lead.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, graphSize, first.Total)

	second, err := svc.Delete(ctx, "lead", g.lead.ID, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, second.Total)
	assert.Zero(t, second.ReconciledInvoices)
}

func TestService_WriteFailureRollsBackWholeCascade(t *testing.T) {
	db := setupTestDB(t)
	g := seedGraph(t, db)
	svc, pub := newService(db)

	// Companies are tombstoned second-to-last, so by the time this
	// fires the payments, invoices and line items have already been
	// written inside the transaction.
	injected := errors.New("companies write failed")
	err := db.Callback().Update().Before("gorm:update").Register("fail_companies", func(d *gorm.DB) {
		if d.Statement.Table == "companies" {
			_ = d.AddError(injected)
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Callback().Update().Remove("fail_companies")
	})

	_, err = svc.Delete(context.Background(), "lead", g.lead.ID, uuid.New())
	require.ErrorIs(t, err, injected)

	requireState(t, db, cascade.KindLead, g.lead.ID, false)
	requireState(t, db, cascade.KindCompany, g.company.ID, false)
	requireState(t, db, cascade.KindQuotation, g.quotation.ID, false)
	requireState(t, db, cascade.KindInvoice, g.invoice.ID, false)
	requireState(t, db, cascade.KindPayment, g.payments[0].ID, false)
	requireState(t, db, cascade.KindPayment, g.payments[1].ID, false)
	requireState(t, db, cascade.KindProject, g.project.ID, false)

	inv, err := persistence.NewGormInvoiceRepository(db).FindByID(context.Background(), g.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.AmountDue.IsZero())

	assert.Empty(t, pub.events)
}

func TestService_DeleteDanglingPaymentSurfacesInvariantViolation(t *testing.T) {
	db := setupTestDB(t)
	svc, pub := newService(db)
	ctx := context.Background()

	// payment pointing at an invoice that was never written
	payment, err := billing.NewPayment(uuid.New(), decimal.NewFromInt(25), billing.PaymentMethodCash, time.Now().UTC())
	require.NoError(t, err)
	payment.ClearDomainEvents()
	require.NoError(t, persistence.NewGormPaymentRepository(db).Save(ctx, payment))

	_, err = svc.Delete(ctx, "payment", payment.ID, uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrInvariantViolation.Code, domainErr.Code)

	// the aborted cascade rolled back the tombstone
	requireState(t, db, cascade.KindPayment, payment.ID, false)
	assert.Empty(t, pub.events)
}

func TestService_RowLostBetweenResolveAndWriteConflicts(t *testing.T) {
	db := setupTestDB(t)
	g := seedGraph(t, db)
	svc, pub := newService(db)

	// Tombstone one payment after the resolver collected it but before
	// the payment writes run; invoice items are written first, so their
	// update is the window.
	err := db.Callback().Update().After("gorm:update").Register("steal_payment", func(d *gorm.DB) {
		if d.Statement.Table != "invoice_items" {
			return
		}
		d.Session(&gorm.Session{NewDB: true}).
			Table("payments").
			Where("id = ?", g.payments[0].ID).
			Update("deleted", true)
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Callback().Update().Remove("steal_payment")
	})

	_, err = svc.Delete(context.Background(), "lead", g.lead.ID, uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrConcurrencyConflict.Code, domainErr.Code)

	// the conflicting write rolled the whole cascade back, the
	// stolen payment included
	requireState(t, db, cascade.KindLead, g.lead.ID, false)
	requireState(t, db, cascade.KindInvoice, g.invoice.ID, false)
	requireState(t, db, cascade.KindPayment, g.payments[0].ID, false)
	requireState(t, db, cascade.KindPayment, g.payments[1].ID, false)
	assert.Empty(t, pub.events)
}

func TestService_UnknownKindRejected(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newService(db)

	_, err := svc.Delete(context.Background(), "warehouse", uuid.New(), uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNKNOWN_KIND", domainErr.Code)
}

func TestService_DeleteMissingRootReportsNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newService(db)

	_, err := svc.Delete(context.Background(), "lead", uuid.New(), uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.ErrNotFound.Code, domainErr.Code)
}
