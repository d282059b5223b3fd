package persistence

import (
	"context"
	"errors"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/crm/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProjectRepository implements ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, project *sales.Project) error {
	model := models.ProjectModelFromDomain(project)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a live project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND deleted = ?", id, false).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDAnyState finds a project by ID regardless of tombstone state
func (r *GormProjectRepository) FindByIDAnyState(ctx context.Context, id uuid.UUID) (*sales.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCompanyID lists live projects of a company
func (r *GormProjectRepository) FindByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*sales.Project, error) {
	return r.findBy(ctx, "company_id = ? AND deleted = ?", companyID, false)
}

// FindByQuotationID lists live projects spawned from a quotation
func (r *GormProjectRepository) FindByQuotationID(ctx context.Context, quotationID uuid.UUID) ([]*sales.Project, error) {
	return r.findBy(ctx, "quotation_id = ? AND deleted = ?", quotationID, false)
}

// FindOrphaned lists live projects with no company and no quotation link
func (r *GormProjectRepository) FindOrphaned(ctx context.Context) ([]*sales.Project, error) {
	return r.findBy(ctx, "company_id IS NULL AND quotation_id IS NULL AND deleted = ?", false)
}

func (r *GormProjectRepository) findBy(ctx context.Context, query string, args ...interface{}) ([]*sales.Project, error) {
	var projectModels []models.ProjectModel
	if err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at DESC").
		Find(&projectModels).Error; err != nil {
		return nil, err
	}
	projects := make([]*sales.Project, len(projectModels))
	for i := range projectModels {
		projects[i] = projectModels[i].ToDomain()
	}
	return projects, nil
}

// Ensure GormProjectRepository implements the interface
var _ sales.ProjectRepository = (*GormProjectRepository)(nil)
