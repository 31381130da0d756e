package server

import (
	"github.com/rezonia/ubl-ingest/internal/ingest"
	"github.com/rezonia/ubl-ingest/internal/model"
)

// IngestResponse reports one upload batch.
type IngestResponse struct {
	Summary    ingest.Summary        `json:"summary"`
	Errors     []ingest.FileError    `json:"errors,omitempty"`
	Recoveries []ingest.RecoveryNote `json:"recoveries,omitempty"`
}

// InspectResponse carries a mapped document that was not persisted.
type InspectResponse struct {
	Document   model.MappedDocument  `json:"document"`
	Recoveries []ingest.RecoveryNote `json:"recoveries,omitempty"`
}

// DocumentListResponse is a filtered header listing.
type DocumentListResponse struct {
	Documents []model.Document `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentResponse is one document with its lines and taxes.
type DocumentResponse struct {
	Document model.Document   `json:"document"`
	Lines    []model.LineItem `json:"lines"`
	Taxes    []model.TaxLine  `json:"taxes"`
}
