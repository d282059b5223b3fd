package persistence

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQuotationRepository implements QuotationRepository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// Save creates or updates a quotation together with its line items
func (r *GormQuotationRepository) Save(ctx context.Context, quotation *sales.Quotation) error {
	model := models.QuotationModelFromDomain(quotation)
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(model).Error
}

// FindByID finds a live quotation by ID with its line items
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Quotation, error) {
	var model models.QuotationModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ? AND deleted = ?", id, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDAnyState finds a quotation by ID regardless of tombstone state
func (r *GormQuotationRepository) FindByIDAnyState(ctx context.Context, id uuid.UUID) (*sales.Quotation, error) {
	var model models.QuotationModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLeadID lists live quotations of a lead
func (r *GormQuotationRepository) FindByLeadID(ctx context.Context, leadID uuid.UUID) ([]*sales.Quotation, error) {
	var quotationModels []models.QuotationModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("lead_id = ? AND deleted = ?", leadID, false).
		Order("created_at DESC").
		Find(&quotationModels).Error; err != nil {
		return nil, err
	}
	quotations := make([]*sales.Quotation, len(quotationModels))
	for i := range quotationModels {
		quotations[i] = quotationModels[i].ToDomain()
	}
	return quotations, nil
}

// Ensure GormQuotationRepository implements the interface
var _ sales.QuotationRepository = (*GormQuotationRepository)(nil)
