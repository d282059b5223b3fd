package crm

import (
	"github.com/crm/backend/internal/domain/shared"
)

// Company event types
const (
	EventTypeCompanyCreated = "company.created"
)

// CompanyCreatedEvent is emitted when a company is created
type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewCompanyCreatedEvent creates a new CompanyCreatedEvent
func NewCompanyCreatedEvent(c *Company) *CompanyCreatedEvent {
	return &CompanyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, "Company", c.ID),
		Name:            c.Name,
	}
}
