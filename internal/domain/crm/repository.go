package crm

import (
	"context"

	"github.com/google/uuid"
)

// LeadRepository defines the persistence contract for leads
type LeadRepository interface {
	Save(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id uuid.UUID) (*Lead, error)
	// FindByIDAnyState returns the lead regardless of tombstone state
	FindByIDAnyState(ctx context.Context, id uuid.UUID) (*Lead, error)
	FindAll(ctx context.Context, offset, limit int) ([]*Lead, error)
	Count(ctx context.Context) (int64, error)
}

// CompanyRepository defines the persistence contract for companies
type CompanyRepository interface {
	Save(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	FindByIDAnyState(ctx context.Context, id uuid.UUID) (*Company, error)
	// FindByLeadID follows the Company -> Lead back-reference
	FindByLeadID(ctx context.Context, leadID uuid.UUID) (*Company, error)
	FindAll(ctx context.Context, offset, limit int) ([]*Company, error)
}

// ContactRepository defines the persistence contract for contacts
type ContactRepository interface {
	Save(ctx context.Context, contact *Contact) error
	FindByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	FindByIDAnyState(ctx context.Context, id uuid.UUID) (*Contact, error)
	FindByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*Contact, error)
	FindByLeadID(ctx context.Context, leadID uuid.UUID) ([]*Contact, error)
}
