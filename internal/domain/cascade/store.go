package cascade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is the kind-agnostic view of a row the resolver traverses:
// its identity, its tombstone state, and whichever parent references
// are set on it.
type Record struct {
	ID      uuid.UUID
	Kind    EntityKind
	Deleted bool
	Refs    map[RefField]uuid.UUID
}

// Ref returns the referenced parent ID, if the field is set
func (r *Record) Ref(field RefField) (uuid.UUID, bool) {
	id, ok := r.Refs[field]
	return id, ok
}

// EntityStore is the persistence port the resolver and engine run
// against. Implementations must scope all calls to the surrounding
// transaction.
type EntityStore interface {
	// Find returns the record regardless of tombstone state, or
	// shared.ErrNotFound.
	Find(ctx context.Context, kind EntityKind, id uuid.UUID) (*Record, error)

	// ListByParent returns every record of childKind, in any tombstone
	// state, whose ref column equals parentID.
	ListByParent(ctx context.Context, childKind EntityKind, ref RefField, parentID uuid.UUID) ([]Record, error)

	// Tombstone marks the given rows deleted, touching only rows that
	// are still live, and returns how many it changed.
	Tombstone(ctx context.Context, kind EntityKind, ids []uuid.UUID, actor uuid.UUID, at time.Time) (int64, error)

	// Untombstone restores the given rows, touching only rows that are
	// still tombstoned, and returns how many it changed.
	Untombstone(ctx context.Context, kind EntityKind, ids []uuid.UUID) (int64, error)
}
