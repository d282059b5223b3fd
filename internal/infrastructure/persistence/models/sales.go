package models

import (
	"time"

	"github.com/crm/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationModel is the persistence model for sales.Quotation
type QuotationModel struct {
	AggregateModel
	TombstoneModel
	Number     string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	LeadID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	Status     string               `gorm:"type:varchar(20);not null;index"`
	Total      decimal.Decimal      `gorm:"type:decimal(20,4);not null"`
	ValidUntil *time.Time
	Remark     string               `gorm:"type:text"`
	Items      []QuotationItemModel `gorm:"foreignKey:QuotationID"`
}

// TableName returns the table name for QuotationModel
func (QuotationModel) TableName() string {
	return "quotations"
}

// ToDomain converts QuotationModel to domain Quotation
func (m *QuotationModel) ToDomain() *sales.Quotation {
	q := &sales.Quotation{
		Number:     m.Number,
		LeadID:     m.LeadID,
		Status:     sales.QuotationStatus(m.Status),
		Total:      m.Total,
		ValidUntil: m.ValidUntil,
		Remark:     m.Remark,
	}
	m.PopulateAggregateRoot(&q.BaseAggregateRoot)
	q.Tombstone = m.TombstoneModel.ToDomain()

	q.Items = make([]sales.QuotationItem, len(m.Items))
	for i := range m.Items {
		q.Items[i] = *m.Items[i].ToDomain()
	}
	return q
}

// QuotationModelFromDomain creates a QuotationModel from domain Quotation
func QuotationModelFromDomain(q *sales.Quotation) *QuotationModel {
	m := &QuotationModel{
		Number:     q.Number,
		LeadID:     q.LeadID,
		Status:     string(q.Status),
		Total:      q.Total,
		ValidUntil: q.ValidUntil,
		Remark:     q.Remark,
	}
	m.FromDomainAggregateRoot(q.BaseAggregateRoot)
	m.FromDomainTombstone(q.Tombstone)

	m.Items = make([]QuotationItemModel, len(q.Items))
	for i := range q.Items {
		m.Items[i] = *QuotationItemModelFromDomain(&q.Items[i])
	}
	return m
}

// QuotationItemModel is the persistence model for sales.QuotationItem
type QuotationItemModel struct {
	BaseModel
	TombstoneModel
	QuotationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Position    int             `gorm:"not null"`
}

// TableName returns the table name for QuotationItemModel
func (QuotationItemModel) TableName() string {
	return "quotation_items"
}

// ToDomain converts QuotationItemModel to domain QuotationItem
func (m *QuotationItemModel) ToDomain() *sales.QuotationItem {
	item := &sales.QuotationItem{
		BaseEntity:  m.BaseModel.ToDomain(),
		QuotationID: m.QuotationID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Position:    m.Position,
	}
	item.Tombstone = m.TombstoneModel.ToDomain()
	return item
}

// QuotationItemModelFromDomain creates a QuotationItemModel from domain QuotationItem
func QuotationItemModelFromDomain(item *sales.QuotationItem) *QuotationItemModel {
	m := &QuotationItemModel{
		QuotationID: item.QuotationID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Position:    item.Position,
	}
	m.FromDomainBaseEntity(item.BaseEntity)
	m.FromDomainTombstone(item.Tombstone)
	return m
}

// ProjectModel is the persistence model for sales.Project
type ProjectModel struct {
	AggregateModel
	TombstoneModel
	Name        string     `gorm:"type:varchar(200);not null"`
	CompanyID   *uuid.UUID `gorm:"type:uuid;index"`
	QuotationID *uuid.UUID `gorm:"type:uuid;index"`
	Status      string     `gorm:"type:varchar(20);not null;index"`
	StartDate   *time.Time
	EndDate     *time.Time
}

// TableName returns the table name for ProjectModel
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts ProjectModel to domain Project
func (m *ProjectModel) ToDomain() *sales.Project {
	p := &sales.Project{
		Name:        m.Name,
		CompanyID:   m.CompanyID,
		QuotationID: m.QuotationID,
		Status:      sales.ProjectStatus(m.Status),
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	p.Tombstone = m.TombstoneModel.ToDomain()
	return p
}

// ProjectModelFromDomain creates a ProjectModel from domain Project
func ProjectModelFromDomain(p *sales.Project) *ProjectModel {
	m := &ProjectModel{
		Name:        p.Name,
		CompanyID:   p.CompanyID,
		QuotationID: p.QuotationID,
		Status:      string(p.Status),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.FromDomainTombstone(p.Tombstone)
	return m
}
