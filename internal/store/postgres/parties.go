package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/store"
)

var (
	_ store.IssuerStore   = (*IssuerRepo)(nil)
	_ store.CustomerStore = (*CustomerRepo)(nil)
)

const partyUpsert = `
	INSERT INTO %s (id, ruc, doc_type, doc_number, nombre, direccion)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		ruc = EXCLUDED.ruc,
		doc_type = EXCLUDED.doc_type,
		doc_number = EXCLUDED.doc_number,
		nombre = EXCLUDED.nombre,
		direccion = EXCLUDED.direccion`

const partySelect = `SELECT id, ruc, doc_type, doc_number, nombre, direccion FROM %s WHERE %s LIMIT 1`

func putParty(ctx context.Context, q Querier, table string, p model.Party) error {
	_, err := q.Exec(ctx, fmt.Sprintf(partyUpsert, table),
		p.ID, p.RUC, p.DocType, p.DocNumber, p.Nombre, p.Direccion)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func getParty(ctx context.Context, q Querier, table, cond string, args ...any) (*model.Party, error) {
	var p model.Party
	err := q.QueryRow(ctx, fmt.Sprintf(partySelect, table, cond), args...).Scan(
		&p.ID, &p.RUC, &p.DocType, &p.DocNumber, &p.Nombre, &p.Direccion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	return &p, nil
}

// IssuerRepo is the issuer master keyspace.
type IssuerRepo struct {
	q Querier
}

func (r *IssuerRepo) Put(ctx context.Context, party model.Party) error {
	return putParty(ctx, r.q, "issuers", party)
}

func (r *IssuerRepo) GetByRUC(ctx context.Context, ruc string) (*model.Party, error) {
	if ruc == "" {
		return nil, nil
	}
	return getParty(ctx, r.q, "issuers", "ruc = $1", ruc)
}

// CustomerRepo is the customer master keyspace.
type CustomerRepo struct {
	q Querier
}

func (r *CustomerRepo) Put(ctx context.Context, party model.Party) error {
	return putParty(ctx, r.q, "customers", party)
}

func (r *CustomerRepo) GetByDoc(ctx context.Context, docType, docNumber string) (*model.Party, error) {
	if docType == "" || docNumber == "" {
		return nil, nil
	}
	return getParty(ctx, r.q, "customers", "doc_type = $1 AND doc_number = $2", docType, docNumber)
}
