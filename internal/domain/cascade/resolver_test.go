package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory EntityStore for resolver tests
type fakeStore struct {
	records map[EntityKind]map[uuid.UUID]*Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[EntityKind]map[uuid.UUID]*Record)}
}

func (s *fakeStore) add(kind EntityKind, refs map[RefField]uuid.UUID) uuid.UUID {
	id := uuid.New()
	if s.records[kind] == nil {
		s.records[kind] = make(map[uuid.UUID]*Record)
	}
	s.records[kind][id] = &Record{ID: id, Kind: kind, Refs: refs}
	return id
}

func (s *fakeStore) get(kind EntityKind, id uuid.UUID) *Record {
	return s.records[kind][id]
}

func (s *fakeStore) Find(_ context.Context, kind EntityKind, id uuid.UUID) (*Record, error) {
	rec, ok := s.records[kind][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) ListByParent(_ context.Context, childKind EntityKind, ref RefField, parentID uuid.UUID) ([]Record, error) {
	var out []Record
	for _, rec := range s.records[childKind] {
		if rid, ok := rec.Refs[ref]; ok && rid == parentID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *fakeStore) Tombstone(_ context.Context, kind EntityKind, ids []uuid.UUID, _ uuid.UUID, _ time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		if rec, ok := s.records[kind][id]; ok && !rec.Deleted {
			rec.Deleted = true
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Untombstone(_ context.Context, kind EntityKind, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if rec, ok := s.records[kind][id]; ok && rec.Deleted {
			rec.Deleted = false
			n++
		}
	}
	return n, nil
}

// graph builds the standard fixture:
//
//	lead -> company (one or both link directions)
//	lead -> contact, company -> contact
//	lead -> quotation -> {2 items, invoice, project}
//	invoice -> {item, 2 payments}
//	company -> project
type graph struct {
	store *fakeStore
	lead, company, contactLead, contactCompany,
	quotation, qItem1, qItem2,
	invoice, iItem, payment1, payment2,
	projectQuot, projectComp uuid.UUID
}

func buildGraph(t *testing.T, forwardLink, backLink bool) *graph {
	t.Helper()
	require.True(t, forwardLink || backLink, "lead and company must be linked somehow")

	s := newFakeStore()
	g := &graph{store: s}

	g.lead = s.add(KindLead, map[RefField]uuid.UUID{})

	companyRefs := map[RefField]uuid.UUID{}
	if backLink {
		companyRefs[RefLead] = g.lead
	}
	g.company = s.add(KindCompany, companyRefs)
	if forwardLink {
		s.get(KindLead, g.lead).Refs[RefCompany] = g.company
	}

	g.contactLead = s.add(KindContact, map[RefField]uuid.UUID{RefLead: g.lead})
	g.contactCompany = s.add(KindContact, map[RefField]uuid.UUID{RefCompany: g.company})

	g.quotation = s.add(KindQuotation, map[RefField]uuid.UUID{RefLead: g.lead})
	g.qItem1 = s.add(KindQuotationItem, map[RefField]uuid.UUID{RefQuotation: g.quotation})
	g.qItem2 = s.add(KindQuotationItem, map[RefField]uuid.UUID{RefQuotation: g.quotation})

	g.invoice = s.add(KindInvoice, map[RefField]uuid.UUID{RefQuotation: g.quotation})
	g.iItem = s.add(KindInvoiceItem, map[RefField]uuid.UUID{RefInvoice: g.invoice})
	g.payment1 = s.add(KindPayment, map[RefField]uuid.UUID{RefInvoice: g.invoice})
	g.payment2 = s.add(KindPayment, map[RefField]uuid.UUID{RefInvoice: g.invoice})

	g.projectQuot = s.add(KindProject, map[RefField]uuid.UUID{RefQuotation: g.quotation})
	g.projectComp = s.add(KindProject, map[RefField]uuid.UUID{RefCompany: g.company})

	return g
}

func TestResolve_DeleteLeadCollectsWholeSubtree(t *testing.T) {
	for _, tc := range []struct {
		name                  string
		forwardLink, backLink bool
	}{
		{"company linked via lead.company_id", true, false},
		{"company linked via company.lead_id", false, true},
		{"both directions linked", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := buildGraph(t, tc.forwardLink, tc.backLink)
			r := NewGraphResolver(g.store)

			set, err := r.Resolve(context.Background(), OpDelete, KindLead, g.lead)
			require.NoError(t, err)

			assert.Equal(t, 13, set.Total())
			assert.Equal(t, 1, set.Count(KindCompany))
			assert.Equal(t, 2, set.Count(KindContact))
			assert.Equal(t, 2, set.Count(KindPayment))
			assert.Equal(t, 2, set.Count(KindProject))
			assert.True(t, set.Contains(KindCompany, g.company))
		})
	}
}

func TestResolve_DeleteSubtreeRoot(t *testing.T) {
	g := buildGraph(t, true, true)
	r := NewGraphResolver(g.store)

	set, err := r.Resolve(context.Background(), OpDelete, KindInvoice, g.invoice)
	require.NoError(t, err)

	// invoice + its item + both payments, nothing above it
	assert.Equal(t, 4, set.Total())
	assert.False(t, set.Contains(KindQuotation, g.quotation))
	assert.False(t, set.Contains(KindLead, g.lead))
}

func TestResolve_DeleteSkipsAlreadyTombstonedChildren(t *testing.T) {
	g := buildGraph(t, true, true)
	g.store.get(KindPayment, g.payment1).Deleted = true
	r := NewGraphResolver(g.store)

	set, err := r.Resolve(context.Background(), OpDelete, KindInvoice, g.invoice)
	require.NoError(t, err)

	assert.Equal(t, 3, set.Total())
	assert.False(t, set.Contains(KindPayment, g.payment1))
	assert.True(t, set.Contains(KindPayment, g.payment2))
}

func TestResolve_RestoreCollectsOnlyTombstoned(t *testing.T) {
	g := buildGraph(t, true, true)
	r := NewGraphResolver(g.store)
	ctx := context.Background()

	// Tombstone the whole lead subtree first
	set, err := r.Resolve(ctx, OpDelete, KindLead, g.lead)
	require.NoError(t, err)
	for _, kind := range DeleteOrder {
		_, err := g.store.Tombstone(ctx, kind, set.IDs(kind), uuid.New(), time.Now())
		require.NoError(t, err)
	}

	// Restore one payment out of band, then restore the lead
	g.store.get(KindPayment, g.payment1).Deleted = false

	restoreSet, err := r.Resolve(ctx, OpRestore, KindLead, g.lead)
	require.NoError(t, err)

	assert.Equal(t, 12, restoreSet.Total())
	assert.False(t, restoreSet.Contains(KindPayment, g.payment1))
}

func TestResolve_RestoreReachesThroughLiveIntermediate(t *testing.T) {
	g := buildGraph(t, true, true)
	ctx := context.Background()
	r := NewGraphResolver(g.store)

	// Tombstone the whole lead subtree, then bring the invoice back on
	// its own. Restoring the lead must still reach the tombstoned
	// payments below the now-live invoice.
	set, err := r.Resolve(ctx, OpDelete, KindLead, g.lead)
	require.NoError(t, err)
	for _, kind := range DeleteOrder {
		_, err := g.store.Tombstone(ctx, kind, set.IDs(kind), uuid.New(), time.Now())
		require.NoError(t, err)
	}
	g.store.get(KindInvoice, g.invoice).Deleted = false

	restoreSet, err := r.Resolve(ctx, OpRestore, KindLead, g.lead)
	require.NoError(t, err)

	assert.False(t, restoreSet.Contains(KindInvoice, g.invoice))
	assert.True(t, restoreSet.Contains(KindPayment, g.payment1))
	assert.True(t, restoreSet.Contains(KindPayment, g.payment2))
	assert.Equal(t, 12, restoreSet.Total())
}

func TestResolve_WholeSetInTargetStateIsEmptyNoop(t *testing.T) {
	g := buildGraph(t, true, true)
	r := NewGraphResolver(g.store)
	ctx := context.Background()

	// Restoring a fully live graph has nothing to collect
	set, err := r.Resolve(ctx, OpRestore, KindLead, g.lead)
	require.NoError(t, err)
	assert.Zero(t, set.Total())

	// And deleting a fully tombstoned one likewise
	for _, recs := range g.store.records {
		for _, rec := range recs {
			rec.Deleted = true
		}
	}
	set, err = r.Resolve(ctx, OpDelete, KindLead, g.lead)
	require.NoError(t, err)
	assert.Zero(t, set.Total())
}

func TestResolve_TombstonedRootWithLiveChildrenStillCollectsThem(t *testing.T) {
	g := buildGraph(t, true, true)
	r := NewGraphResolver(g.store)

	// Root already gone, subtree still live: a delete sweeps the subtree
	g.store.get(KindLead, g.lead).Deleted = true

	set, err := r.Resolve(context.Background(), OpDelete, KindLead, g.lead)
	require.NoError(t, err)
	assert.False(t, set.Contains(KindLead, g.lead))
	assert.Equal(t, 12, set.Total())
}

func TestResolve_RootNotFound(t *testing.T) {
	g := buildGraph(t, true, true)
	r := NewGraphResolver(g.store)

	_, err := r.Resolve(context.Background(), OpDelete, KindLead, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolve_UnknownKind(t *testing.T) {
	g := buildGraph(t, true, true)
	r := NewGraphResolver(g.store)

	_, err := r.Resolve(context.Background(), OpDelete, EntityKind("warehouse"), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestResolve_DanglingForwardLinkIgnored(t *testing.T) {
	s := newFakeStore()
	lead := s.add(KindLead, map[RefField]uuid.UUID{RefCompany: uuid.New()})

	r := NewGraphResolver(s)
	set, err := r.Resolve(context.Background(), OpDelete, KindLead, lead)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Total())
}
