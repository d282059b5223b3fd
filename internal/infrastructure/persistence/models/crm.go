package models

import (
	"github.com/crm/backend/internal/domain/crm"
	"github.com/google/uuid"
)

// LeadModel is the persistence model for crm.Lead
type LeadModel struct {
	AggregateModel
	TombstoneModel
	Name      string     `gorm:"type:varchar(200);not null"`
	Email     string     `gorm:"type:varchar(255)"`
	Phone     string     `gorm:"type:varchar(50)"`
	Source    string     `gorm:"type:varchar(100)"`
	Status    string     `gorm:"type:varchar(20);not null;index"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
	Remark    string     `gorm:"type:text"`
}

// TableName returns the table name for LeadModel
func (LeadModel) TableName() string {
	return "leads"
}

// ToDomain converts LeadModel to domain Lead
func (m *LeadModel) ToDomain() *crm.Lead {
	lead := &crm.Lead{
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Source:    m.Source,
		Status:    crm.LeadStatus(m.Status),
		CompanyID: m.CompanyID,
		Remark:    m.Remark,
	}
	m.PopulateAggregateRoot(&lead.BaseAggregateRoot)
	lead.Tombstone = m.TombstoneModel.ToDomain()
	return lead
}

// LeadModelFromDomain creates a LeadModel from domain Lead
func LeadModelFromDomain(lead *crm.Lead) *LeadModel {
	m := &LeadModel{
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Source:    lead.Source,
		Status:    lead.Status.String(),
		CompanyID: lead.CompanyID,
		Remark:    lead.Remark,
	}
	m.FromDomainAggregateRoot(lead.BaseAggregateRoot)
	m.FromDomainTombstone(lead.Tombstone)
	return m
}

// CompanyModel is the persistence model for crm.Company
type CompanyModel struct {
	AggregateModel
	TombstoneModel
	Name    string     `gorm:"type:varchar(200);not null"`
	Email   string     `gorm:"type:varchar(255)"`
	Phone   string     `gorm:"type:varchar(50)"`
	Website string     `gorm:"type:varchar(255)"`
	Address string     `gorm:"type:text"`
	LeadID  *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for CompanyModel
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts CompanyModel to domain Company
func (m *CompanyModel) ToDomain() *crm.Company {
	company := &crm.Company{
		Name:    m.Name,
		Email:   m.Email,
		Phone:   m.Phone,
		Website: m.Website,
		Address: m.Address,
		LeadID:  m.LeadID,
	}
	m.PopulateAggregateRoot(&company.BaseAggregateRoot)
	company.Tombstone = m.TombstoneModel.ToDomain()
	return company
}

// CompanyModelFromDomain creates a CompanyModel from domain Company
func CompanyModelFromDomain(company *crm.Company) *CompanyModel {
	m := &CompanyModel{
		Name:    company.Name,
		Email:   company.Email,
		Phone:   company.Phone,
		Website: company.Website,
		Address: company.Address,
		LeadID:  company.LeadID,
	}
	m.FromDomainAggregateRoot(company.BaseAggregateRoot)
	m.FromDomainTombstone(company.Tombstone)
	return m
}

// ContactModel is the persistence model for crm.Contact
type ContactModel struct {
	AggregateModel
	TombstoneModel
	FirstName string     `gorm:"type:varchar(100)"`
	LastName  string     `gorm:"type:varchar(100)"`
	Email     string     `gorm:"type:varchar(255)"`
	Phone     string     `gorm:"type:varchar(50)"`
	Position  string     `gorm:"type:varchar(100)"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index"`
	LeadID    *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for ContactModel
func (ContactModel) TableName() string {
	return "contacts"
}

// ToDomain converts ContactModel to domain Contact
func (m *ContactModel) ToDomain() *crm.Contact {
	contact := &crm.Contact{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Phone:     m.Phone,
		Position:  m.Position,
		CompanyID: m.CompanyID,
		LeadID:    m.LeadID,
	}
	m.PopulateAggregateRoot(&contact.BaseAggregateRoot)
	contact.Tombstone = m.TombstoneModel.ToDomain()
	return contact
}

// ContactModelFromDomain creates a ContactModel from domain Contact
func ContactModelFromDomain(contact *crm.Contact) *ContactModel {
	m := &ContactModel{
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Position:  contact.Position,
		CompanyID: contact.CompanyID,
		LeadID:    contact.LeadID,
	}
	m.FromDomainAggregateRoot(contact.BaseAggregateRoot)
	m.FromDomainTombstone(contact.Tombstone)
	return m
}
