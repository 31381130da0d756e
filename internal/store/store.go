// Package store defines the persistence ports used by the ingestion
// resolver and the API. Implementations live in the memory and postgres
// subpackages; callers receive an explicit Store handle, never ambient
// global state.
package store

import (
	"context"

	"github.com/rezonia/ubl-ingest/internal/model"
)

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	IssuerRUC      string
	CustomerDocNum string
	DateFrom       string
	DateTo         string
	Limit          int
}

// DocumentStore is the documents keyspace with its duplicate-detection
// index lookups.
type DocumentStore interface {
	Put(ctx context.Context, doc model.Document) error
	GetByID(ctx context.Context, id string) (*model.Document, error)
	// GetByHash resolves the content-fingerprint index; nil when absent.
	GetByHash(ctx context.Context, hash string) (*model.Document, error)
	// FindByBusinessKey resolves the {tipo, serie, numero} index.
	FindByBusinessKey(ctx context.Context, tipo, serie, numero string) ([]model.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]model.Document, error)
	Count(ctx context.Context) (int, error)
}

// LineStore is the lines keyspace, indexed by owning document.
type LineStore interface {
	Put(ctx context.Context, line model.LineItem) error
	ListByDocument(ctx context.Context, documentID string) ([]model.LineItem, error)
}

// TaxStore is the taxes keyspace, indexed by owning document.
type TaxStore interface {
	Put(ctx context.Context, tax model.TaxLine) error
	ListByDocument(ctx context.Context, documentID string) ([]model.TaxLine, error)
}

// IssuerStore is the issuer master keyspace, indexed by RUC.
type IssuerStore interface {
	Put(ctx context.Context, party model.Party) error
	GetByRUC(ctx context.Context, ruc string) (*model.Party, error)
}

// CustomerStore is the customer master keyspace, indexed by the
// {docType, docNumber} pair.
type CustomerStore interface {
	Put(ctx context.Context, party model.Party) error
	GetByDoc(ctx context.Context, docType, docNumber string) (*model.Party, error)
}

// ErrorStore is the errors keyspace capturing rejected and failed items.
type ErrorStore interface {
	Put(ctx context.Context, rec model.IngestErrorRecord) error
	List(ctx context.Context, limit int) ([]model.IngestErrorRecord, error)
}

// Stores bundles every keyspace visible inside one transaction scope.
type Stores struct {
	Documents DocumentStore
	Lines     LineStore
	Taxes     TaxStore
	Issuers   IssuerStore
	Customers CustomerStore
	Errors    ErrorStore
}

// TxRunner executes a callback within a single read-write transaction
// spanning all keyspaces: either everything the callback wrote commits
// together, or none of it does.
type TxRunner interface {
	Run(ctx context.Context, fn func(s Stores) error) error
}

// Store is the full storage handle: direct read access plus the
// transactional write scope.
type Store interface {
	Stores() Stores
	TxRunner
}
