package crm

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Company is a converted customer organisation. It may carry a back-reference
// to the Lead it originated from; that link and Lead.CompanyID are maintained
// independently, so graph resolution must union both directions.
type Company struct {
	shared.BaseAggregateRoot
	shared.Tombstone
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
	Website string     `json:"website"`
	Address string     `json:"address"`
	LeadID  *uuid.UUID `json:"lead_id,omitempty"`
}

// NewCompany creates a new company
func NewCompany(name, email, phone string, leadID *uuid.UUID) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Company name cannot exceed 200 characters")
	}
	if leadID != nil && *leadID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LEAD", "Lead ID cannot be the zero UUID")
	}

	c := &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Email:             email,
		Phone:             phone,
		LeadID:            leadID,
	}

	c.AddDomainEvent(NewCompanyCreatedEvent(c))

	return c, nil
}

// Delete tombstones the company. Returns false when already tombstoned.
func (c *Company) Delete(actor uuid.UUID) bool {
	if !c.MarkDeleted(actor) {
		return false
	}
	c.Touch()
	c.IncrementVersion()
	return true
}

// Undelete restores a tombstoned company. Returns false when already live.
func (c *Company) Undelete() bool {
	if !c.Restore() {
		return false
	}
	c.Touch()
	c.IncrementVersion()
	return true
}

// Contact is a person attached to a company and/or directly to a lead.
// A contact is valid with either link; it does not require both.
type Contact struct {
	shared.BaseAggregateRoot
	shared.Tombstone
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Position  string     `json:"position"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	LeadID    *uuid.UUID `json:"lead_id,omitempty"`
}

// NewContact creates a new contact. At least one of companyID/leadID is required.
func NewContact(firstName, lastName, email string, companyID, leadID *uuid.UUID) (*Contact, error) {
	if strings.TrimSpace(firstName) == "" && strings.TrimSpace(lastName) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Contact name cannot be empty")
	}
	if companyID == nil && leadID == nil {
		return nil, shared.NewDomainError("INVALID_LINK", "Contact must reference a company or a lead")
	}

	return &Contact{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FirstName:         firstName,
		LastName:          lastName,
		Email:             email,
		CompanyID:         companyID,
		LeadID:            leadID,
	}, nil
}

// FullName returns the contact's display name
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Delete tombstones the contact. Returns false when already tombstoned.
func (c *Contact) Delete(actor uuid.UUID) bool {
	if !c.MarkDeleted(actor) {
		return false
	}
	c.Touch()
	c.IncrementVersion()
	return true
}

// Undelete restores a tombstoned contact. Returns false when already live.
func (c *Contact) Undelete() bool {
	if !c.Restore() {
		return false
	}
	c.Touch()
	c.IncrementVersion()
	return true
}
