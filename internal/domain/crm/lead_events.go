package crm

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Lead event types
const (
	EventTypeLeadCreated   = "lead.created"
	EventTypeLeadConverted = "lead.converted"
	EventTypeLeadDeleted   = "lead.deleted"
	EventTypeLeadRestored  = "lead.restored"
)

// LeadCreatedEvent is emitted when a lead is created
type LeadCreatedEvent struct {
	shared.BaseDomainEvent
	Name   string `json:"name"`
	Source string `json:"source"`
}

// NewLeadCreatedEvent creates a new LeadCreatedEvent
func NewLeadCreatedEvent(l *Lead) *LeadCreatedEvent {
	return &LeadCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadCreated, "Lead", l.ID),
		Name:            l.Name,
		Source:          l.Source,
	}
}

// LeadConvertedEvent is emitted when a lead is converted into a company
type LeadConvertedEvent struct {
	shared.BaseDomainEvent
	CompanyID uuid.UUID `json:"company_id"`
}

// NewLeadConvertedEvent creates a new LeadConvertedEvent
func NewLeadConvertedEvent(l *Lead, companyID uuid.UUID) *LeadConvertedEvent {
	return &LeadConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadConverted, "Lead", l.ID),
		CompanyID:       companyID,
	}
}

// LeadDeletedEvent is emitted when a lead is tombstoned
type LeadDeletedEvent struct {
	shared.BaseDomainEvent
	Actor uuid.UUID `json:"actor"`
}

// NewLeadDeletedEvent creates a new LeadDeletedEvent
func NewLeadDeletedEvent(l *Lead, actor uuid.UUID) *LeadDeletedEvent {
	return &LeadDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadDeleted, "Lead", l.ID),
		Actor:           actor,
	}
}

// LeadRestoredEvent is emitted when a tombstoned lead is restored
type LeadRestoredEvent struct {
	shared.BaseDomainEvent
}

// NewLeadRestoredEvent creates a new LeadRestoredEvent
func NewLeadRestoredEvent(l *Lead) *LeadRestoredEvent {
	return &LeadRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadRestored, "Lead", l.ID),
	}
}
