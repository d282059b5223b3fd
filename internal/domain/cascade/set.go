package cascade

import (
	"github.com/google/uuid"
)

// EntitySet is a deduplicated collection of entity references grouped
// by kind, preserving insertion order within each kind.
type EntitySet struct {
	ids   map[EntityKind][]uuid.UUID
	index map[EntityKind]map[uuid.UUID]struct{}
}

// NewEntitySet creates an empty EntitySet
func NewEntitySet() *EntitySet {
	return &EntitySet{
		ids:   make(map[EntityKind][]uuid.UUID),
		index: make(map[EntityKind]map[uuid.UUID]struct{}),
	}
}

// Add inserts the reference, returning false if it was already present
func (s *EntitySet) Add(kind EntityKind, id uuid.UUID) bool {
	idx, ok := s.index[kind]
	if !ok {
		idx = make(map[uuid.UUID]struct{})
		s.index[kind] = idx
	}
	if _, exists := idx[id]; exists {
		return false
	}
	idx[id] = struct{}{}
	s.ids[kind] = append(s.ids[kind], id)
	return true
}

// Contains reports whether the reference is in the set
func (s *EntitySet) Contains(kind EntityKind, id uuid.UUID) bool {
	idx, ok := s.index[kind]
	if !ok {
		return false
	}
	_, exists := idx[id]
	return exists
}

// IDs returns the references of one kind in insertion order
func (s *EntitySet) IDs(kind EntityKind) []uuid.UUID {
	return s.ids[kind]
}

// Count returns how many references of one kind are in the set
func (s *EntitySet) Count(kind EntityKind) int {
	return len(s.ids[kind])
}

// Total returns the number of references across all kinds
func (s *EntitySet) Total() int {
	n := 0
	for _, ids := range s.ids {
		n += len(ids)
	}
	return n
}

// Counts returns the per-kind sizes, omitting empty kinds
func (s *EntitySet) Counts() map[EntityKind]int {
	counts := make(map[EntityKind]int, len(s.ids))
	for kind, ids := range s.ids {
		if len(ids) > 0 {
			counts[kind] = len(ids)
		}
	}
	return counts
}
