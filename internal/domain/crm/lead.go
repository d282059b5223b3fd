package crm

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LeadStatus represents the position of a lead in the sales funnel
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusQualified LeadStatus = "QUALIFIED"
	LeadStatusConverted LeadStatus = "CONVERTED" // Converted into a company
	LeadStatusLost      LeadStatus = "LOST"
)

// IsValid checks if the status is a valid LeadStatus
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// String returns the string representation of LeadStatus
func (s LeadStatus) String() string {
	return string(s)
}

// Lead is the root of the sales funnel. Once converted it references the
// Company created from it; the Company keeps a back-reference too, and the
// cascade resolver checks both directions.
type Lead struct {
	shared.BaseAggregateRoot
	shared.Tombstone
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Source    string     `json:"source"`
	Status    LeadStatus `json:"status"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	Remark    string     `json:"remark"`
}

// NewLead creates a new lead in the NEW status
func NewLead(name, email, phone, source string) (*Lead, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Lead name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Lead name cannot exceed 200 characters")
	}

	l := &Lead{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		Phone:             phone,
		Source:            source,
		Status:            LeadStatusNew,
	}

	l.AddDomainEvent(NewLeadCreatedEvent(l))

	return l, nil
}

// UpdateStatus moves the lead through the funnel
func (l *Lead) UpdateStatus(status LeadStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Lead status is not valid")
	}
	if status == LeadStatusConverted && l.CompanyID == nil {
		return shared.NewDomainError("INVALID_STATE", "Lead cannot be marked converted without a company")
	}
	l.Status = status
	l.Touch()
	l.IncrementVersion()
	return nil
}

// Convert links the lead to the company created from it
func (l *Lead) Convert(companyID uuid.UUID) error {
	if companyID == uuid.Nil {
		return shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if l.Status == LeadStatusConverted {
		return shared.NewDomainError("INVALID_STATE", "Lead is already converted")
	}
	l.CompanyID = &companyID
	l.Status = LeadStatusConverted
	l.Touch()
	l.IncrementVersion()

	l.AddDomainEvent(NewLeadConvertedEvent(l, companyID))

	return nil
}

// Delete tombstones the lead. Returns false when already tombstoned.
func (l *Lead) Delete(actor uuid.UUID) bool {
	if !l.MarkDeleted(actor) {
		return false
	}
	l.Touch()
	l.IncrementVersion()
	l.AddDomainEvent(NewLeadDeletedEvent(l, actor))
	return true
}

// Undelete restores a tombstoned lead. Returns false when already live.
func (l *Lead) Undelete() bool {
	if !l.Restore() {
		return false
	}
	l.Touch()
	l.IncrementVersion()
	l.AddDomainEvent(NewLeadRestoredEvent(l))
	return true
}
