package cascade

import (
	"context"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Op is the direction of a cascade
type Op string

const (
	OpDelete  Op = "delete"
	OpRestore Op = "restore"
)

// ErrUnknownKind is returned for a kind outside the business graph
var ErrUnknownKind = shared.NewDomainError("UNKNOWN_KIND", "Unknown entity kind")

// childEdge describes one child kind reachable from a parent via a
// foreign-key column on the child.
type childEdge struct {
	child EntityKind
	ref   RefField
}

// childEdges is the ownership graph. A delete of any record cascades
// down these edges; restores walk the same closure upward-first.
var childEdges = map[EntityKind][]childEdge{
	KindLead: {
		{KindContact, RefLead},
		{KindQuotation, RefLead},
	},
	KindCompany: {
		{KindContact, RefCompany},
		{KindProject, RefCompany},
	},
	KindQuotation: {
		{KindQuotationItem, RefQuotation},
		{KindInvoice, RefQuotation},
		{KindProject, RefQuotation},
	},
	KindInvoice: {
		{KindInvoiceItem, RefInvoice},
		{KindPayment, RefInvoice},
	},
}

// GraphResolver computes the closure of records a cascade will touch.
//
// The lead/company edge is special: either side of the conversion may
// hold the link (Lead.CompanyID or Company.LeadID), so the resolver
// unions both directions instead of trusting one column.
type GraphResolver struct {
	store EntityStore
}

// NewGraphResolver creates a resolver over the given store
func NewGraphResolver(store EntityStore) *GraphResolver {
	return &GraphResolver{store: store}
}

// Resolve walks the subtree under the root and returns the set of
// records the operation will write: live ones for a delete, tombstoned
// ones for a restore. Records already in the target state (the root
// included) are traversed through but not collected, which is what
// makes re-running a cascade a no-op for them.
//
// Returns shared.ErrNotFound if the root does not exist.
func (r *GraphResolver) Resolve(ctx context.Context, op Op, kind EntityKind, id uuid.UUID) (*EntitySet, error) {
	if !kind.IsValid() {
		return nil, ErrUnknownKind
	}

	root, err := r.store.Find(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	// source state of the operation: delete collects live records,
	// restore collects tombstoned ones
	wantDeleted := op == OpRestore
	set := NewEntitySet()
	visited := NewEntitySet()

	queue := []*Record{root}
	visited.Add(root.Kind, root.ID)

	for len(queue) > 0 {
		rec := queue[0]
		queue = queue[1:]

		if rec.Deleted == wantDeleted {
			set.Add(rec.Kind, rec.ID)
		}

		children, err := r.children(ctx, rec)
		if err != nil {
			return nil, err
		}
		for i := range children {
			child := &children[i]
			if visited.Add(child.Kind, child.ID) {
				queue = append(queue, child)
			}
		}
	}

	return set, nil
}

// children lists every record directly owned by rec, in any state
func (r *GraphResolver) children(ctx context.Context, rec *Record) ([]Record, error) {
	var out []Record

	for _, edge := range childEdges[rec.Kind] {
		rows, err := r.store.ListByParent(ctx, edge.child, edge.ref, rec.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}

	if rec.Kind == KindLead {
		companies, err := r.companiesOfLead(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, companies...)
	}

	return out, nil
}

// companiesOfLead resolves the lead/company link from both ends
func (r *GraphResolver) companiesOfLead(ctx context.Context, lead *Record) ([]Record, error) {
	out, err := r.store.ListByParent(ctx, KindCompany, RefLead, lead.ID)
	if err != nil {
		return nil, err
	}

	companyID, ok := lead.Ref(RefCompany)
	if !ok {
		return out, nil
	}
	for i := range out {
		if out[i].ID == companyID {
			return out, nil
		}
	}

	company, err := r.store.Find(ctx, KindCompany, companyID)
	if err != nil {
		// A dangling forward link is not fatal to the cascade
		if de, ok := err.(*shared.DomainError); ok && de.Code == shared.ErrNotFound.Code {
			return out, nil
		}
		return nil, err
	}
	out = append(out, *company)

	return out, nil
}
