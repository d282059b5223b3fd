package sales

import (
	"context"

	"github.com/google/uuid"
)

// QuotationRepository defines the persistence contract for quotations.
// Save persists the aggregate including its line items.
type QuotationRepository interface {
	Save(ctx context.Context, quotation *Quotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)
	FindByIDAnyState(ctx context.Context, id uuid.UUID) (*Quotation, error)
	FindByLeadID(ctx context.Context, leadID uuid.UUID) ([]*Quotation, error)
}

// ProjectRepository defines the persistence contract for projects
type ProjectRepository interface {
	Save(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindByIDAnyState(ctx context.Context, id uuid.UUID) (*Project, error)
	FindByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*Project, error)
	FindByQuotationID(ctx context.Context, quotationID uuid.UUID) ([]*Project, error)
	// FindOrphaned lists live projects with neither a company nor a
	// quotation link, for manual reconciliation.
	FindOrphaned(ctx context.Context) ([]*Project, error)
}
