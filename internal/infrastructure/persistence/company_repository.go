package persistence

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Save creates or updates a company
func (r *GormCompanyRepository) Save(ctx context.Context, company *crm.Company) error {
	model := models.CompanyModelFromDomain(company)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a live company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND deleted = ?", id, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDAnyState finds a company by ID regardless of tombstone state
func (r *GormCompanyRepository) FindByIDAnyState(ctx context.Context, id uuid.UUID) (*crm.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLeadID finds the live company converted from a lead
func (r *GormCompanyRepository) FindByLeadID(ctx context.Context, leadID uuid.UUID) (*crm.Company, error) {
	var model models.CompanyModel
	if err := r.db.WithContext(ctx).
		First(&model, "lead_id = ? AND deleted = ?", leadID, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists live companies with pagination
func (r *GormCompanyRepository) FindAll(ctx context.Context, offset, limit int) ([]*crm.Company, error) {
	var companyModels []models.CompanyModel
	query := r.db.WithContext(ctx).Where("deleted = ?", false).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&companyModels).Error; err != nil {
		return nil, err
	}
	companies := make([]*crm.Company, len(companyModels))
	for i := range companyModels {
		companies[i] = companyModels[i].ToDomain()
	}
	return companies, nil
}

// Ensure GormCompanyRepository implements the interface
var _ crm.CompanyRepository = (*GormCompanyRepository)(nil)
