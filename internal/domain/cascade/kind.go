package cascade

// EntityKind identifies one of the record types the cascade engine
// knows how to traverse and tombstone.
type EntityKind string

const (
	KindLead          EntityKind = "lead"
	KindCompany       EntityKind = "company"
	KindContact       EntityKind = "contact"
	KindQuotation     EntityKind = "quotation"
	KindQuotationItem EntityKind = "quotation_item"
	KindInvoice       EntityKind = "invoice"
	KindInvoiceItem   EntityKind = "invoice_item"
	KindPayment       EntityKind = "payment"
	KindProject       EntityKind = "project"
)

// IsValid checks if the kind is one the engine traverses
func (k EntityKind) IsValid() bool {
	switch k {
	case KindLead, KindCompany, KindContact, KindQuotation, KindQuotationItem,
		KindInvoice, KindInvoiceItem, KindPayment, KindProject:
		return true
	}
	return false
}

// String returns the string representation of EntityKind
func (k EntityKind) String() string {
	return string(k)
}

// ParseEntityKind converts a wire string into an EntityKind
func ParseEntityKind(s string) (EntityKind, bool) {
	k := EntityKind(s)
	return k, k.IsValid()
}

// RefField names a foreign-key column a child record uses to point at
// its parent.
type RefField string

const (
	RefLead      RefField = "lead_id"
	RefCompany   RefField = "company_id"
	RefContact   RefField = "contact_id"
	RefQuotation RefField = "quotation_id"
	RefInvoice   RefField = "invoice_id"
)

// DeleteOrder is the fixed write order for a delete cascade: leaves
// first, root kinds last, so a failure partway never leaves a live
// parent above tombstoned children the restore path cannot see.
var DeleteOrder = []EntityKind{
	KindInvoiceItem,
	KindPayment,
	KindInvoice,
	KindQuotationItem,
	KindQuotation,
	KindProject,
	KindContact,
	KindCompany,
	KindLead,
}

// RestoreOrder is DeleteOrder reversed: parents come back before their
// children.
var RestoreOrder = []EntityKind{
	KindLead,
	KindCompany,
	KindContact,
	KindProject,
	KindQuotation,
	KindQuotationItem,
	KindInvoice,
	KindPayment,
	KindInvoiceItem,
}
