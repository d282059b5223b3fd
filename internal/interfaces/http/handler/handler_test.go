package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingapp "github.com/crm/backend/internal/application/billing"
	cascadeapp "github.com/crm/backend/internal/application/cascade"
	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func setupServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.LeadModel{},
		&models.CompanyModel{},
		&models.ContactModel{},
		&models.QuotationModel{},
		&models.QuotationItemModel{},
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.PaymentModel{},
		&models.ProjectModel{},
	))

	runner := gormRunner{db: db}
	reconciler := billing.NewReconciliationService()
	logger := zap.NewNop()

	cascadeService := cascadeapp.NewService(runner, reconciler, logger)
	paymentService := billingapp.NewPaymentService(runner, reconciler, logger)
	queryService := billingapp.NewInvoiceQueryService(
		persistence.NewGormInvoiceRepository(db),
		persistence.NewGormPaymentRepository(db),
		logger,
	)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.BodyLimit(1 << 20))

	router.NewRouter(engine).
		Register(NewCascadeHandler(cascadeService)).
		Register(NewPaymentHandler(paymentService)).
		Register(NewInvoiceHandler(queryService)).
		Setup()

	return engine, db
}

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

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	return rec, parsed
}

func TestRecordPaymentAndSummary(t *testing.T) {
	engine, db := setupServer(t)
	inv := seedInvoice(t, db, "INV-5001", 100)

	rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/payments", gin.H{
		"invoice_id": inv.ID.String(),
		"amount":     40,
		"method":     "CARD",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, resp = doJSON(t, engine, http.MethodGet, "/api/v1/invoices/"+inv.ID.String()+"/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp["data"].(map[string]any)
	assert.Equal(t, "PARTIAL", data["status"])
	assert.Equal(t, "60", data["amount_due"])
	assert.Equal(t, "40", data["paid_total"])
}

func TestCascadeDeleteAndRestoreInvoice(t *testing.T) {
	engine, db := setupServer(t)
	inv := seedInvoice(t, db, "INV-5002", 100)
	actor := uuid.New().String()

	rec, resp := doJSON(t, engine, http.MethodDelete, "/api/v1/entities/invoice/"+inv.ID.String(), nil,
		map[string]string{"X-User-ID": actor})
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp["data"].(map[string]any)
	affected := data["affected"].(map[string]any)
	assert.Equal(t, float64(1), affected["invoice"])
	assert.Equal(t, float64(1), affected["invoice_item"])

	// Tombstoned invoices disappear from the read side
	rec, resp = doJSON(t, engine, http.MethodGet, "/api/v1/invoices/"+inv.ID.String()+"/summary", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp["error"].(map[string]any)["code"])

	rec, _ = doJSON(t, engine, http.MethodPost, "/api/v1/entities/invoice/"+inv.ID.String()+"/restore", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, engine, http.MethodGet, "/api/v1/invoices/"+inv.ID.String()+"/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCascadeUnknownKind(t *testing.T) {
	engine, _ := setupServer(t)

	rec, resp := doJSON(t, engine, http.MethodDelete, "/api/v1/entities/warehouse/"+uuid.NewString(), nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_KIND", resp["error"].(map[string]any)["code"])
}

func TestRecordPaymentValidation(t *testing.T) {
	engine, _ := setupServer(t)

	// negative amount never reaches the service
	rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/payments", gin.H{
		"invoice_id": uuid.NewString(),
		"amount":     -5,
		"method":     "CARD",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, resp["success"])

	// a payment against a missing invoice violates the data invariant
	rec, resp = doJSON(t, engine, http.MethodPost, "/api/v1/payments", gin.H{
		"invoice_id": uuid.NewString(),
		"amount":     5,
		"method":     "CARD",
	}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "INVARIANT_VIOLATION", resp["error"].(map[string]any)["code"])
}

func TestReassignPaymentEndpoint(t *testing.T) {
	engine, db := setupServer(t)
	source := seedInvoice(t, db, "INV-5003", 100)
	target := seedInvoice(t, db, "INV-5004", 100)

	_, resp := doJSON(t, engine, http.MethodPost, "/api/v1/payments", gin.H{
		"invoice_id": source.ID.String(),
		"amount":     100,
		"method":     "BANK_TRANSFER",
	}, nil)
	payment := resp["data"].(map[string]any)["payment"].(map[string]any)
	paymentID := payment["ID"].(string)

	rec, resp := doJSON(t, engine, http.MethodPut, "/api/v1/payments/"+paymentID, gin.H{
		"new_invoice_id": target.ID.String(),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reconciled := resp["data"].(map[string]any)["reconciled"].([]any)
	assert.Len(t, reconciled, 2)

	_, resp = doJSON(t, engine, http.MethodGet, "/api/v1/invoices/"+source.ID.String()+"/summary", nil, nil)
	assert.Equal(t, "UNPAID", resp["data"].(map[string]any)["status"])

	_, resp = doJSON(t, engine, http.MethodGet, "/api/v1/invoices/"+target.ID.String()+"/summary", nil, nil)
	assert.Equal(t, "PAID", resp["data"].(map[string]any)["status"])
}
