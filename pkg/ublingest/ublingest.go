// Package ublingest provides a public API for ingesting SUNAT UBL 2.1
// electronic documents (facturas, boletas, notas de crédito/débito).
//
// Example usage:
//
//	st := memory.New()
//	proc := ublingest.NewProcessor(st, log)
//	summary, _, err := proc.Ingest(ctx, []ublingest.FilePayload{{Name: "F001-123.xml", Data: raw}})
//	if err != nil {
//	    log.Fatal().Err(err).Send()
//	}
//	fmt.Println(summary.Inserted)
package ublingest

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rezonia/ubl-ingest/internal/ingest"
	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/store"
)

// Re-export core types for the public API
type (
	Document       = model.Document
	LineItem       = model.LineItem
	TaxLine        = model.TaxLine
	Party          = model.Party
	Legend         = model.Legend
	Payment        = model.Payment
	Detraction     = model.Detraction
	MappedDocument = model.MappedDocument

	FilePayload  = ingest.FilePayload
	FileError    = ingest.FileError
	RecoveryNote = ingest.RecoveryNote
	BatchResult  = ingest.BatchResult
	Summary      = ingest.Summary
)

// Re-export document type codes
const (
	DocTypeFactura     = model.DocTypeFactura
	DocTypeBoleta      = model.DocTypeBoleta
	DocTypeNotaCredito = model.DocTypeNotaCredito
	DocTypeNotaDebito  = model.DocTypeNotaDebito
)

// Re-export error types
type (
	UnsupportedDocumentError = model.UnsupportedDocumentError
	ParseError               = model.ParseError
	IngestError              = model.IngestError
)

// Processor combines the mapping worker and the ingestion resolver
// behind one handle.
type Processor struct {
	worker   *ingest.Worker
	resolver *ingest.Resolver
}

// NewProcessor creates a processor persisting through st.
func NewProcessor(st store.Store, log zerolog.Logger) *Processor {
	return &Processor{
		worker:   ingest.NewWorker(log),
		resolver: ingest.NewResolver(st, log),
	}
}

// ProcessFiles maps a batch without touching the store.
func (p *Processor) ProcessFiles(ctx context.Context, files []FilePayload) *BatchResult {
	return p.worker.Process(ctx, files)
}

// Ingest maps a batch and persists it in one transaction, returning the
// outcome counts alongside the worker response.
func (p *Processor) Ingest(ctx context.Context, files []FilePayload) (Summary, *BatchResult, error) {
	batch := p.worker.Process(ctx, files)
	summary, err := p.resolver.SaveBatch(ctx, batch)
	if err != nil {
		return Summary{}, batch, err
	}
	return summary, batch, nil
}
