package models

import (
	"time"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for billing.Invoice
type InvoiceModel struct {
	AggregateModel
	TombstoneModel
	Number      string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	ContactID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	QuotationID *uuid.UUID         `gorm:"type:uuid;index"`
	Status      string             `gorm:"type:varchar(20);not null;index"`
	Total       decimal.Decimal    `gorm:"type:decimal(20,4);not null"`
	AmountDue   decimal.Decimal    `gorm:"type:decimal(20,4);not null"`
	IssueDate   *time.Time
	DueDate     *time.Time
	Items       []InvoiceItemModel `gorm:"foreignKey:InvoiceID"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts InvoiceModel to domain Invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		Number:      m.Number,
		ContactID:   m.ContactID,
		QuotationID: m.QuotationID,
		Status:      billing.InvoiceStatus(m.Status),
		Total:       m.Total,
		AmountDue:   m.AmountDue,
		IssueDate:   m.IssueDate,
		DueDate:     m.DueDate,
	}
	m.PopulateAggregateRoot(&inv.BaseAggregateRoot)
	inv.Tombstone = m.TombstoneModel.ToDomain()

	inv.Items = make([]billing.InvoiceItem, len(m.Items))
	for i := range m.Items {
		inv.Items[i] = *m.Items[i].ToDomain()
	}
	return inv
}

// InvoiceModelFromDomain creates an InvoiceModel from domain Invoice
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:      inv.Number,
		ContactID:   inv.ContactID,
		QuotationID: inv.QuotationID,
		Status:      string(inv.Status),
		Total:       inv.Total,
		AmountDue:   inv.AmountDue,
		IssueDate:   inv.IssueDate,
		DueDate:     inv.DueDate,
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.FromDomainTombstone(inv.Tombstone)

	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i] = *InvoiceItemModelFromDomain(&inv.Items[i])
	}
	return m
}

// InvoiceItemModel is the persistence model for billing.InvoiceItem
type InvoiceItemModel struct {
	BaseModel
	TombstoneModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Position    int             `gorm:"not null"`
}

// TableName returns the table name for InvoiceItemModel
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts InvoiceItemModel to domain InvoiceItem
func (m *InvoiceItemModel) ToDomain() *billing.InvoiceItem {
	item := &billing.InvoiceItem{
		BaseEntity:  m.BaseModel.ToDomain(),
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Position:    m.Position,
	}
	item.Tombstone = m.TombstoneModel.ToDomain()
	return item
}

// InvoiceItemModelFromDomain creates an InvoiceItemModel from domain InvoiceItem
func InvoiceItemModelFromDomain(item *billing.InvoiceItem) *InvoiceItemModel {
	m := &InvoiceItemModel{
		InvoiceID:   item.InvoiceID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Position:    item.Position,
	}
	m.FromDomainBaseEntity(item.BaseEntity)
	m.FromDomainTombstone(item.Tombstone)
	return m
}

// PaymentModel is the persistence model for billing.Payment
type PaymentModel struct {
	AggregateModel
	TombstoneModel
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Method    string          `gorm:"type:varchar(20);not null"`
	PaidAt    time.Time       `gorm:"not null"`
	Reference string          `gorm:"type:varchar(100)"`
	Note      string          `gorm:"type:text"`
}

// TableName returns the table name for PaymentModel
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts PaymentModel to domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		InvoiceID: m.InvoiceID,
		Amount:    m.Amount,
		Method:    billing.PaymentMethod(m.Method),
		PaidAt:    m.PaidAt,
		Reference: m.Reference,
		Note:      m.Note,
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	p.Tombstone = m.TombstoneModel.ToDomain()
	return p
}

// PaymentModelFromDomain creates a PaymentModel from domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		InvoiceID: p.InvoiceID,
		Amount:    p.Amount,
		Method:    string(p.Method),
		PaidAt:    p.PaidAt,
		Reference: p.Reference,
		Note:      p.Note,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.FromDomainTombstone(p.Tombstone)
	return m
}
