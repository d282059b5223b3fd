package persistence

import (
	"testing"

	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with the full schema
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
