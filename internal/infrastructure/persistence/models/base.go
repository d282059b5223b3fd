package models

import (
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// PopulateAggregateRoot populates a domain BaseAggregateRoot from persistence model
func (m *AggregateModel) PopulateAggregateRoot(a *shared.BaseAggregateRoot) {
	a.BaseEntity.ID = m.ID
	a.BaseEntity.CreatedAt = m.CreatedAt
	a.BaseEntity.UpdatedAt = m.UpdatedAt
	a.Version = m.Version
}

// TombstoneModel provides the soft-delete columns every cascaded table
// carries. DeletedAt is a plain timestamp, not gorm.DeletedAt: tombstone
// visibility is managed explicitly by queries, never by GORM's own
// soft-delete filtering.
type TombstoneModel struct {
	Deleted   bool       `gorm:"not null;default:false;index"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
	DeletedBy *uuid.UUID `gorm:"type:uuid"`
}

// ToDomain converts TombstoneModel to domain Tombstone
func (m *TombstoneModel) ToDomain() shared.Tombstone {
	return shared.Tombstone{
		Deleted:   m.Deleted,
		DeletedAt: m.DeletedAt,
		DeletedBy: m.DeletedBy,
	}
}

// FromDomainTombstone populates TombstoneModel from domain Tombstone
func (m *TombstoneModel) FromDomainTombstone(t shared.Tombstone) {
	m.Deleted = t.Deleted
	m.DeletedAt = t.DeletedAt
	m.DeletedBy = t.DeletedBy
}
