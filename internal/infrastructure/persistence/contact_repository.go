package persistence

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/crm"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContactRepository implements ContactRepository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// Save creates or updates a contact
func (r *GormContactRepository) Save(ctx context.Context, contact *crm.Contact) error {
	model := models.ContactModelFromDomain(contact)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a live contact by ID
func (r *GormContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND deleted = ?", id, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDAnyState finds a contact by ID regardless of tombstone state
func (r *GormContactRepository) FindByIDAnyState(ctx context.Context, id uuid.UUID) (*crm.Contact, error) {
	var model models.ContactModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompanyID lists live contacts of a company
func (r *GormContactRepository) FindByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*crm.Contact, error) {
	return r.findBy(ctx, "company_id = ? AND deleted = ?", companyID, false)
}

// FindByLeadID lists live contacts attached directly to a lead
func (r *GormContactRepository) FindByLeadID(ctx context.Context, leadID uuid.UUID) ([]*crm.Contact, error) {
	return r.findBy(ctx, "lead_id = ? AND deleted = ?", leadID, false)
}

func (r *GormContactRepository) findBy(ctx context.Context, query string, args ...interface{}) ([]*crm.Contact, error) {
	var contactModels []models.ContactModel
	if err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at ASC").
		Find(&contactModels).Error; err != nil {
		return nil, err
	}
	contacts := make([]*crm.Contact, len(contactModels))
	for i := range contactModels {
		contacts[i] = contactModels[i].ToDomain()
	}
	return contacts, nil
}

// Ensure GormContactRepository implements the interface
var _ crm.ContactRepository = (*GormContactRepository)(nil)
