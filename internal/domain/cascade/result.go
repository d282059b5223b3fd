package cascade

import (
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Result summarises what a cascade wrote
type Result struct {
	Op                 Op                 `json:"op"`
	RootKind           EntityKind         `json:"root_kind"`
	RootID             uuid.UUID          `json:"root_id"`
	Affected           map[EntityKind]int `json:"affected"`
	Total              int                `json:"total"`
	ReconciledInvoices int                `json:"reconciled_invoices"`
}

// NewResult builds a Result from the resolved set
func NewResult(op Op, rootKind EntityKind, rootID uuid.UUID, set *EntitySet) *Result {
	return &Result{
		Op:       op,
		RootKind: rootKind,
		RootID:   rootID,
		Affected: set.Counts(),
		Total:    set.Total(),
	}
}

// EventTypeCascadeCompleted is published after a cascade commits
const EventTypeCascadeCompleted = "cascade.completed"

// CompletedEvent is the post-commit notification for a cascade
type CompletedEvent struct {
	shared.BaseDomainEvent
	Result *Result `json:"result"`
}

// NewCompletedEvent creates a new CompletedEvent
func NewCompletedEvent(result *Result) *CompletedEvent {
	return &CompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCascadeCompleted, string(result.RootKind), result.RootID),
		Result:          result,
	}
}
