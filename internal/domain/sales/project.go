package sales

import (
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProjectStatus represents the delivery state of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

// Project is delivery work spawned from an accepted quotation. Both links
// are optional: legacy rows may carry only the company, imported ones only
// the quotation.
type Project struct {
	shared.BaseAggregateRoot
	shared.Tombstone
	Name        string        `json:"name"`
	CompanyID   *uuid.UUID    `json:"company_id,omitempty"`
	QuotationID *uuid.UUID    `json:"quotation_id,omitempty"`
	Status      ProjectStatus `json:"status"`
	StartDate   *time.Time    `json:"start_date,omitempty"`
	EndDate     *time.Time    `json:"end_date,omitempty"`
}

// NewProject creates a new active project
func NewProject(name string, companyID, quotationID *uuid.UUID) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Project name cannot be empty")
	}

	return &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		CompanyID:         companyID,
		QuotationID:       quotationID,
		Status:            ProjectStatusActive,
	}, nil
}

// Complete marks the project as finished
func (p *Project) Complete(endDate time.Time) error {
	if p.Status == ProjectStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Project is already completed")
	}
	p.Status = ProjectStatusCompleted
	p.EndDate = &endDate
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Delete tombstones the project. Returns false when already tombstoned.
func (p *Project) Delete(actor uuid.UUID) bool {
	if !p.MarkDeleted(actor) {
		return false
	}
	p.Touch()
	p.IncrementVersion()
	return true
}

// Undelete restores a tombstoned project. Returns false when already live.
func (p *Project) Undelete() bool {
	if !p.Restore() {
		return false
	}
	p.Touch()
	p.IncrementVersion()
	return true
}
