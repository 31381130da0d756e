package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/store"
)

var _ store.DocumentStore = (*DocumentRepo)(nil)

// DocumentRepo is the documents keyspace.
type DocumentRepo struct {
	q Querier
}

const documentColumns = `id, tipo, serie, numero, moneda, issue_date, issue_time, due_date,
	issuer_id, issuer_ruc, issuer_doc_type, issuer_doc_number, issuer_nombre, issuer_direccion,
	customer_id, customer_ruc, customer_doc_type, customer_doc_number, customer_nombre, customer_direccion,
	subtotal, descuentos, total_igv, tax_inclusive, total, payment, legends, hash, storage_name`

func (r *DocumentRepo) Put(ctx context.Context, doc model.Document) error {
	payment, err := jsonOrNull(doc.Payment)
	if err != nil {
		return fmt.Errorf("encode payment: %w", err)
	}
	legends, err := jsonOrNull(doc.Legends)
	if err != nil {
		return fmt.Errorf("encode legends: %w", err)
	}

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
		        $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20,
		        $21, $22, $23, $24, $25, $26, $27, $28, $29)
		ON CONFLICT (id) DO UPDATE SET
			tipo = EXCLUDED.tipo, serie = EXCLUDED.serie, numero = EXCLUDED.numero`
	_, err = r.q.Exec(ctx, query,
		doc.ID, doc.Tipo, doc.Serie, doc.Numero, doc.Moneda, doc.IssueDate, doc.IssueTime, doc.DueDate,
		nilIfEmpty(doc.Issuer.ID), doc.Issuer.RUC, doc.Issuer.DocType, doc.Issuer.DocNumber, doc.Issuer.Nombre, doc.Issuer.Direccion,
		nilIfEmpty(doc.Customer.ID), doc.Customer.RUC, doc.Customer.DocType, doc.Customer.DocNumber, doc.Customer.Nombre, doc.Customer.Direccion,
		doc.Subtotal, doc.Descuentos, doc.TotalIGV, doc.TaxInclusive, doc.Total,
		payment, legends, doc.Hash, doc.StorageName,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document already exists: %w", err)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
}

func (r *DocumentRepo) GetByHash(ctx context.Context, hash string) (*model.Document, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE hash = $1 LIMIT 1`, hash)
}

func (r *DocumentRepo) FindByBusinessKey(ctx context.Context, tipo, serie, numero string) ([]model.Document, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE tipo = $1 AND serie = $2 AND numero = $3`,
		tipo, serie, numero)
	if err != nil {
		return nil, fmt.Errorf("find by business key: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *DocumentRepo) List(ctx context.Context, filter store.DocumentFilter) ([]model.Document, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.IssuerRUC != "" {
		add("issuer_ruc = $%d", filter.IssuerRUC)
	}
	if filter.CustomerDocNum != "" {
		add("customer_doc_number = $%d", filter.CustomerDocNum)
	}
	if filter.DateFrom != "" {
		add("issue_date >= $%d", filter.DateFrom)
	}
	if filter.DateTo != "" {
		add("issue_date <= $%d", filter.DateTo)
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY issue_date DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, args ...any) (*model.Document, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func scanDocuments(rows pgx.Rows) ([]model.Document, error) {
	var out []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	var doc model.Document
	var issuerID, customerID *string
	var payment, legends []byte
	err := row.Scan(
		&doc.ID, &doc.Tipo, &doc.Serie, &doc.Numero, &doc.Moneda, &doc.IssueDate, &doc.IssueTime, &doc.DueDate,
		&issuerID, &doc.Issuer.RUC, &doc.Issuer.DocType, &doc.Issuer.DocNumber, &doc.Issuer.Nombre, &doc.Issuer.Direccion,
		&customerID, &doc.Customer.RUC, &doc.Customer.DocType, &doc.Customer.DocNumber, &doc.Customer.Nombre, &doc.Customer.Direccion,
		&doc.Subtotal, &doc.Descuentos, &doc.TotalIGV, &doc.TaxInclusive, &doc.Total,
		&payment, &legends, &doc.Hash, &doc.StorageName,
	)
	if err != nil {
		return nil, err
	}
	if issuerID != nil {
		doc.Issuer.ID = *issuerID
	}
	if customerID != nil {
		doc.Customer.ID = *customerID
	}
	if len(payment) > 0 {
		if err := json.Unmarshal(payment, &doc.Payment); err != nil {
			return nil, fmt.Errorf("decode payment: %w", err)
		}
	}
	if len(legends) > 0 {
		if err := json.Unmarshal(legends, &doc.Legends); err != nil {
			return nil, fmt.Errorf("decode legends: %w", err)
		}
	}
	return &doc, nil
}

func jsonOrNull(v any) (any, error) {
	switch t := v.(type) {
	case *model.Payment:
		if t == nil {
			return nil, nil
		}
	case []model.Legend:
		if len(t) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
