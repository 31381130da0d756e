package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/store"
)

// Summary reports the outcome of one ingestion batch.
type Summary struct {
	Queued     int `json:"queued"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// Resolver decides acceptance of mapped documents and reconciles party
// master records. The store handle is explicit; the resolver holds no
// ambient state.
type Resolver struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewResolver creates a resolver writing through st.
func NewResolver(st store.Store, log zerolog.Logger) *Resolver {
	return &Resolver{store: st, log: log, now: time.Now}
}

// SaveBatch persists a worker response inside one transaction: every
// accepted document with its lines, taxes and merged parties commits
// together, or nothing does. Per-item failures become error records and
// processing continues with the next document.
func (r *Resolver) SaveBatch(ctx context.Context, batch *BatchResult) (Summary, error) {
	summary := Summary{Queued: len(batch.Documents) + len(batch.Errors)}

	err := r.store.Run(ctx, func(s store.Stores) error {
		for _, fe := range batch.Errors {
			summary.Errors++
			if err := r.recordError(ctx, s, fe.Filename, fe.Code, fe.Detail); err != nil {
				return err
			}
		}

		for _, item := range batch.Documents {
			outcome, err := r.saveOne(ctx, s, item)
			if err != nil {
				summary.Errors++
				detail := err.Error()
				if recErr := r.recordError(ctx, s, item.Document.StorageName, model.ErrCodeIngest, detail); recErr != nil {
					return recErr
				}
				continue
			}
			switch outcome {
			case outcomeInserted:
				summary.Inserted++
			case outcomeDuplicate:
				summary.Duplicates++
				if err := r.recordError(ctx, s, item.Document.StorageName, model.ErrCodeDuplicate,
					fmt.Sprintf("duplicate of %s %s-%s", item.Document.Tipo, item.Document.Serie, item.Document.Numero)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("save batch: %w", err)
	}

	r.log.Info().
		Int("queued", summary.Queued).
		Int("inserted", summary.Inserted).
		Int("duplicates", summary.Duplicates).
		Int("errors", summary.Errors).
		Msg("batch ingested")
	return summary, nil
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeDuplicate
)

// saveOne upserts both parties, then applies the duplicate test. The
// party upsert happens first on purpose: master data improves even when
// the document itself is rejected as a duplicate.
func (r *Resolver) saveOne(ctx context.Context, s store.Stores, item model.MappedDocument) (outcome, error) {
	issuer, err := r.upsertIssuer(ctx, s, item.Document.Issuer)
	if err != nil {
		return 0, err
	}
	customer, err := r.upsertCustomer(ctx, s, item.Document.Customer)
	if err != nil {
		return 0, err
	}

	doc := item.Document
	doc.Issuer = issuer
	doc.Customer = customer

	dup, err := r.isDuplicate(ctx, s, doc)
	if err != nil {
		return 0, err
	}
	if dup {
		return outcomeDuplicate, nil
	}

	if err := s.Documents.Put(ctx, doc); err != nil {
		return 0, err
	}
	for _, line := range item.Lines {
		if err := s.Lines.Put(ctx, line); err != nil {
			return 0, err
		}
	}
	for _, tax := range item.Taxes {
		if err := s.Taxes.Put(ctx, tax); err != nil {
			return 0, err
		}
	}
	return outcomeInserted, nil
}

// isDuplicate short-circuits on the content fingerprint, then checks
// the business key: same {tipo, serie, numero} and the same issuer RUC,
// both RUCs present. Absence on either side means no clash.
func (r *Resolver) isDuplicate(ctx context.Context, s store.Stores, doc model.Document) (bool, error) {
	byHash, err := s.Documents.GetByHash(ctx, doc.Hash)
	if err != nil {
		return false, err
	}
	if byHash != nil {
		return true, nil
	}

	sameKey, err := s.Documents.FindByBusinessKey(ctx, doc.Tipo, doc.Serie, doc.Numero)
	if err != nil {
		return false, err
	}
	for _, existing := range sameKey {
		if existing.Issuer.RUC != "" && doc.Issuer.RUC != "" && existing.Issuer.RUC == doc.Issuer.RUC {
			return true, nil
		}
	}
	return false, nil
}

// upsertIssuer merges the incoming issuer into the master record found
// by RUC, keeping the existing identity; without a match it inserts.
func (r *Resolver) upsertIssuer(ctx context.Context, s store.Stores, incoming model.Party) (model.Party, error) {
	existing, err := s.Issuers.GetByRUC(ctx, incoming.RUC)
	if err != nil {
		return model.Party{}, err
	}
	merged := incoming
	if existing != nil {
		merged = mergeParty(*existing, incoming)
	}
	if err := s.Issuers.Put(ctx, merged); err != nil {
		return model.Party{}, err
	}
	return merged, nil
}

// upsertCustomer is the same policy keyed on {docType, docNumber}.
func (r *Resolver) upsertCustomer(ctx context.Context, s store.Stores, incoming model.Party) (model.Party, error) {
	existing, err := s.Customers.GetByDoc(ctx, incoming.DocType, incoming.DocNumber)
	if err != nil {
		return model.Party{}, err
	}
	merged := incoming
	if existing != nil {
		merged = mergeParty(*existing, incoming)
	}
	if err := s.Customers.Put(ctx, merged); err != nil {
		return model.Party{}, err
	}
	return merged, nil
}

// mergeParty overwrites existing fields with incoming ones key by key;
// fields absent on the incoming side keep the existing value. Identity
// stays with the existing record.
func mergeParty(existing, incoming model.Party) model.Party {
	merged := existing
	if incoming.RUC != "" {
		merged.RUC = incoming.RUC
	}
	if incoming.DocType != "" {
		merged.DocType = incoming.DocType
	}
	if incoming.DocNumber != "" {
		merged.DocNumber = incoming.DocNumber
	}
	if incoming.Nombre != "" {
		merged.Nombre = incoming.Nombre
	}
	if incoming.Direccion != "" {
		merged.Direccion = incoming.Direccion
	}
	return merged
}

func (r *Resolver) recordError(ctx context.Context, s store.Stores, filename, code, detail string) error {
	return s.Errors.Put(ctx, model.IngestErrorRecord{
		ID:        uuid.NewString(),
		Filename:  filename,
		Code:      code,
		Detail:    detail,
		CreatedAt: r.now(),
	})
}
