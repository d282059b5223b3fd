package shared

import (
	"time"

	"github.com/google/uuid"
)

// Tombstone is the soft-delete marker shared by every business record.
// A tombstoned record is hidden from default queries but stays stored
// and restorable.
type Tombstone struct {
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uuid.UUID `json:"deleted_by,omitempty"`
}

// IsDeleted returns true if the record is tombstoned
func (t *Tombstone) IsDeleted() bool {
	return t.Deleted
}

// IsLive returns true if the record is not tombstoned
func (t *Tombstone) IsLive() bool {
	return !t.Deleted
}

// MarkDeleted sets all three tombstone fields atomically.
// Returns false if the record is already tombstoned (no-op).
func (t *Tombstone) MarkDeleted(actor uuid.UUID) bool {
	if t.Deleted {
		return false
	}
	now := time.Now()
	t.Deleted = true
	t.DeletedAt = &now
	t.DeletedBy = &actor
	return true
}

// Restore clears all three tombstone fields.
// Returns false if the record is already live (no-op).
func (t *Tombstone) Restore() bool {
	if !t.Deleted {
		return false
	}
	t.Deleted = false
	t.DeletedAt = nil
	t.DeletedBy = nil
	return true
}
