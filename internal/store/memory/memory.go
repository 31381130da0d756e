// Package memory is a mutex-guarded in-process implementation of the
// store ports. It backs tests and CLI runs without a configured
// database; transactional atomicity is provided by snapshotting the
// dataset and restoring it when the batch callback fails.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store holds every keyspace behind one lock.
type Store struct {
	mu sync.RWMutex
	d  *dataset
}

type dataset struct {
	documents map[string]model.Document
	docOrder  []string
	lines     map[string][]model.LineItem
	taxes     map[string][]model.TaxLine
	issuers   map[string]model.Party
	customers map[string]model.Party
	errors    []model.IngestErrorRecord
}

func newDataset() *dataset {
	return &dataset{
		documents: map[string]model.Document{},
		lines:     map[string][]model.LineItem{},
		taxes:     map[string][]model.TaxLine{},
		issuers:   map[string]model.Party{},
		customers: map[string]model.Party{},
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.documents {
		c.documents[k] = v
	}
	c.docOrder = append([]string(nil), d.docOrder...)
	for k, v := range d.lines {
		c.lines[k] = append([]model.LineItem(nil), v...)
	}
	for k, v := range d.taxes {
		c.taxes[k] = append([]model.TaxLine(nil), v...)
	}
	for k, v := range d.issuers {
		c.issuers[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	c.errors = append([]model.IngestErrorRecord(nil), d.errors...)
	return c
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{d: newDataset()}
}

// Stores returns read/write access guarded by the store lock.
func (s *Store) Stores() store.Stores {
	return storesOver(s, true)
}

// Run executes fn against the live dataset under the write lock. On
// error the pre-callback snapshot is restored, so a failed batch leaves
// no partial writes behind.
func (s *Store) Run(ctx context.Context, fn func(st store.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.d.clone()
	if err := fn(storesOver(s, false)); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

func storesOver(s *Store, locked bool) store.Stores {
	h := &handle{s: s, locked: locked}
	return store.Stores{
		Documents: (*documents)(h),
		Lines:     (*lines)(h),
		Taxes:     (*taxes)(h),
		Issuers:   (*issuers)(h),
		Customers: (*customers)(h),
		Errors:    (*errlog)(h),
	}
}

// handle optionally takes the store lock; inside Run the lock is
// already held by the transaction.
type handle struct {
	s      *Store
	locked bool
}

func (h *handle) read(fn func(d *dataset)) {
	if h.locked {
		h.s.mu.RLock()
		defer h.s.mu.RUnlock()
	}
	fn(h.s.d)
}

func (h *handle) write(fn func(d *dataset)) {
	if h.locked {
		h.s.mu.Lock()
		defer h.s.mu.Unlock()
	}
	fn(h.s.d)
}

type documents handle

func (r *documents) Put(ctx context.Context, doc model.Document) error {
	(*handle)(r).write(func(d *dataset) {
		if _, exists := d.documents[doc.ID]; !exists {
			d.docOrder = append(d.docOrder, doc.ID)
		}
		d.documents[doc.ID] = doc
	})
	return nil
}

func (r *documents) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var out *model.Document
	(*handle)(r).read(func(d *dataset) {
		if doc, ok := d.documents[id]; ok {
			out = &doc
		}
	})
	return out, nil
}

func (r *documents) GetByHash(ctx context.Context, hash string) (*model.Document, error) {
	var out *model.Document
	(*handle)(r).read(func(d *dataset) {
		for _, id := range d.docOrder {
			if doc := d.documents[id]; doc.Hash == hash {
				out = &doc
				return
			}
		}
	})
	return out, nil
}

func (r *documents) FindByBusinessKey(ctx context.Context, tipo, serie, numero string) ([]model.Document, error) {
	var out []model.Document
	(*handle)(r).read(func(d *dataset) {
		for _, id := range d.docOrder {
			doc := d.documents[id]
			if doc.Tipo == tipo && doc.Serie == serie && doc.Numero == numero {
				out = append(out, doc)
			}
		}
	})
	return out, nil
}

func (r *documents) List(ctx context.Context, filter store.DocumentFilter) ([]model.Document, error) {
	var out []model.Document
	(*handle)(r).read(func(d *dataset) {
		for _, id := range d.docOrder {
			doc := d.documents[id]
			if filter.IssuerRUC != "" && doc.Issuer.RUC != filter.IssuerRUC {
				continue
			}
			if filter.CustomerDocNum != "" && doc.Customer.DocNumber != filter.CustomerDocNum {
				continue
			}
			if filter.DateFrom != "" && doc.IssueDate < filter.DateFrom {
				continue
			}
			if filter.DateTo != "" && doc.IssueDate > filter.DateTo {
				continue
			}
			out = append(out, doc)
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].IssueDate > out[j].IssueDate })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *documents) Count(ctx context.Context) (int, error) {
	var n int
	(*handle)(r).read(func(d *dataset) { n = len(d.docOrder) })
	return n, nil
}

type lines handle

func (r *lines) Put(ctx context.Context, line model.LineItem) error {
	(*handle)(r).write(func(d *dataset) {
		d.lines[line.DocumentID] = append(d.lines[line.DocumentID], line)
	})
	return nil
}

func (r *lines) ListByDocument(ctx context.Context, documentID string) ([]model.LineItem, error) {
	var out []model.LineItem
	(*handle)(r).read(func(d *dataset) {
		out = append(out, d.lines[documentID]...)
	})
	return out, nil
}

type taxes handle

func (r *taxes) Put(ctx context.Context, tax model.TaxLine) error {
	(*handle)(r).write(func(d *dataset) {
		d.taxes[tax.DocumentID] = append(d.taxes[tax.DocumentID], tax)
	})
	return nil
}

func (r *taxes) ListByDocument(ctx context.Context, documentID string) ([]model.TaxLine, error) {
	var out []model.TaxLine
	(*handle)(r).read(func(d *dataset) {
		out = append(out, d.taxes[documentID]...)
	})
	return out, nil
}

type issuers handle

func (r *issuers) Put(ctx context.Context, party model.Party) error {
	(*handle)(r).write(func(d *dataset) {
		d.issuers[party.ID] = party
	})
	return nil
}

func (r *issuers) GetByRUC(ctx context.Context, ruc string) (*model.Party, error) {
	if ruc == "" {
		return nil, nil
	}
	var out *model.Party
	(*handle)(r).read(func(d *dataset) {
		for _, p := range d.issuers {
			if p.RUC == ruc {
				out = &p
				return
			}
		}
	})
	return out, nil
}

type customers handle

func (r *customers) Put(ctx context.Context, party model.Party) error {
	(*handle)(r).write(func(d *dataset) {
		d.customers[party.ID] = party
	})
	return nil
}

func (r *customers) GetByDoc(ctx context.Context, docType, docNumber string) (*model.Party, error) {
	if docType == "" || docNumber == "" {
		return nil, nil
	}
	var out *model.Party
	(*handle)(r).read(func(d *dataset) {
		for _, p := range d.customers {
			if p.DocType == docType && p.DocNumber == docNumber {
				out = &p
				return
			}
		}
	})
	return out, nil
}

type errlog handle

func (r *errlog) Put(ctx context.Context, rec model.IngestErrorRecord) error {
	(*handle)(r).write(func(d *dataset) {
		d.errors = append(d.errors, rec)
	})
	return nil
}

func (r *errlog) List(ctx context.Context, limit int) ([]model.IngestErrorRecord, error) {
	var out []model.IngestErrorRecord
	(*handle)(r).read(func(d *dataset) {
		out = append(out, d.errors...)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
