package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/cascade"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tableSpec maps an entity kind to its table and the parent reference
// columns that table carries.
type tableSpec struct {
	table string
	refs  []cascade.RefField
}

var tableSpecs = map[cascade.EntityKind]tableSpec{
	cascade.KindLead:          {table: "leads", refs: []cascade.RefField{cascade.RefCompany}},
	cascade.KindCompany:       {table: "companies", refs: []cascade.RefField{cascade.RefLead}},
	cascade.KindContact:       {table: "contacts", refs: []cascade.RefField{cascade.RefCompany, cascade.RefLead}},
	cascade.KindQuotation:     {table: "quotations", refs: []cascade.RefField{cascade.RefLead}},
	cascade.KindQuotationItem: {table: "quotation_items", refs: []cascade.RefField{cascade.RefQuotation}},
	cascade.KindInvoice:       {table: "invoices", refs: []cascade.RefField{cascade.RefQuotation, cascade.RefContact}},
	cascade.KindInvoiceItem:   {table: "invoice_items", refs: []cascade.RefField{cascade.RefInvoice}},
	cascade.KindPayment:       {table: "payments", refs: []cascade.RefField{cascade.RefInvoice}},
	cascade.KindProject:       {table: "projects", refs: []cascade.RefField{cascade.RefCompany, cascade.RefQuotation}},
}

func (s tableSpec) columns() []string {
	cols := []string{"id", "deleted"}
	for _, ref := range s.refs {
		cols = append(cols, string(ref))
	}
	return cols
}

func (s tableSpec) hasRef(ref cascade.RefField) bool {
	for _, r := range s.refs {
		if r == ref {
			return true
		}
	}
	return false
}

// recordRow is the scan target for kind-agnostic lookups. Each query
// selects only the columns its table has; the rest stay nil.
type recordRow struct {
	ID          uuid.UUID  `gorm:"column:id"`
	Deleted     bool       `gorm:"column:deleted"`
	LeadID      *uuid.UUID `gorm:"column:lead_id"`
	CompanyID   *uuid.UUID `gorm:"column:company_id"`
	ContactID   *uuid.UUID `gorm:"column:contact_id"`
	QuotationID *uuid.UUID `gorm:"column:quotation_id"`
	InvoiceID   *uuid.UUID `gorm:"column:invoice_id"`
}

func (row *recordRow) toRecord(kind cascade.EntityKind, spec tableSpec) cascade.Record {
	rec := cascade.Record{
		ID:      row.ID,
		Kind:    kind,
		Deleted: row.Deleted,
		Refs:    make(map[cascade.RefField]uuid.UUID, len(spec.refs)),
	}
	set := func(ref cascade.RefField, id *uuid.UUID) {
		if id != nil && spec.hasRef(ref) {
			rec.Refs[ref] = *id
		}
	}
	set(cascade.RefLead, row.LeadID)
	set(cascade.RefCompany, row.CompanyID)
	set(cascade.RefContact, row.ContactID)
	set(cascade.RefQuotation, row.QuotationID)
	set(cascade.RefInvoice, row.InvoiceID)
	return rec
}

// GormEntityStore implements cascade.EntityStore over the business
// tables. It is constructed per transaction so the resolver and the
// cascade writes share one consistent view.
type GormEntityStore struct {
	db *gorm.DB
}

// NewGormEntityStore creates a new GormEntityStore
func NewGormEntityStore(db *gorm.DB) *GormEntityStore {
	return &GormEntityStore{db: db}
}

// Find returns the record regardless of tombstone state
func (s *GormEntityStore) Find(ctx context.Context, kind cascade.EntityKind, id uuid.UUID) (*cascade.Record, error) {
	spec, ok := tableSpecs[kind]
	if !ok {
		return nil, cascade.ErrUnknownKind
	}

	var row recordRow
	if err := s.db.WithContext(ctx).
		Table(spec.table).
		Select(spec.columns()).
		Where("id = ?", id).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rec := row.toRecord(kind, spec)
	return &rec, nil
}

// ListByParent returns every record of childKind referencing parentID,
// in any tombstone state
func (s *GormEntityStore) ListByParent(ctx context.Context, childKind cascade.EntityKind, ref cascade.RefField, parentID uuid.UUID) ([]cascade.Record, error) {
	spec, ok := tableSpecs[childKind]
	if !ok {
		return nil, cascade.ErrUnknownKind
	}
	if !spec.hasRef(ref) {
		return nil, fmt.Errorf("table %s has no column %s", spec.table, ref)
	}

	var rows []recordRow
	if err := s.db.WithContext(ctx).
		Table(spec.table).
		Select(spec.columns()).
		Where(fmt.Sprintf("%s = ?", ref), parentID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]cascade.Record, len(rows))
	for i := range rows {
		records[i] = rows[i].toRecord(childKind, spec)
	}
	return records, nil
}

// Tombstone marks the given rows deleted, skipping rows that are
// already tombstoned, and returns how many it changed
func (s *GormEntityStore) Tombstone(ctx context.Context, kind cascade.EntityKind, ids []uuid.UUID, actor uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	spec, ok := tableSpecs[kind]
	if !ok {
		return 0, cascade.ErrUnknownKind
	}

	result := s.db.WithContext(ctx).
		Table(spec.table).
		Where("id IN ? AND deleted = ?", ids, false).
		Updates(map[string]interface{}{
			"deleted":    true,
			"deleted_at": at,
			"deleted_by": actor,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

// Untombstone restores the given rows, skipping rows that are already
// live, and returns how many it changed
func (s *GormEntityStore) Untombstone(ctx context.Context, kind cascade.EntityKind, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	spec, ok := tableSpecs[kind]
	if !ok {
		return 0, cascade.ErrUnknownKind
	}

	result := s.db.WithContext(ctx).
		Table(spec.table).
		Where("id IN ? AND deleted = ?", ids, true).
		Updates(map[string]interface{}{
			"deleted":    false,
			"deleted_at": nil,
			"deleted_by": nil,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// Ensure GormEntityStore implements the interface
var _ cascade.EntityStore = (*GormEntityStore)(nil)
