package postgres

import (
	"context"
	"fmt"

	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/store"
)

var (
	_ store.LineStore = (*LineRepo)(nil)
	_ store.TaxStore  = (*TaxRepo)(nil)
)

// LineRepo is the lines keyspace, indexed by owning document.
type LineRepo struct {
	q Querier
}

func (r *LineRepo) Put(ctx context.Context, line model.LineItem) error {
	query := `
		INSERT INTO document_lines (id, document_id, line_number, descripcion, unidad, codigo,
			cantidad, precio_unitario, precio_referencial, valor_linea,
			igv_monto, igv_porcentaje, igv_afectacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		line.ID, line.DocumentID, line.LineNumber, line.Descripcion, line.Unidad, line.Codigo,
		line.Cantidad, line.PrecioUnitario, line.PrecioReferencial, line.ValorLinea,
		line.IGVMonto, line.IGVPorcentaje, line.IGVAfectacionCodigo,
	)
	if err != nil {
		return fmt.Errorf("insert line: %w", err)
	}
	return nil
}

func (r *LineRepo) ListByDocument(ctx context.Context, documentID string) ([]model.LineItem, error) {
	query := `
		SELECT id, document_id, line_number, descripcion, unidad, codigo,
			cantidad, precio_unitario, precio_referencial, valor_linea,
			igv_monto, igv_porcentaje, igv_afectacion
		FROM document_lines WHERE document_id = $1 ORDER BY line_number`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	defer rows.Close()

	var out []model.LineItem
	for rows.Next() {
		var l model.LineItem
		if err := rows.Scan(
			&l.ID, &l.DocumentID, &l.LineNumber, &l.Descripcion, &l.Unidad, &l.Codigo,
			&l.Cantidad, &l.PrecioUnitario, &l.PrecioReferencial, &l.ValorLinea,
			&l.IGVMonto, &l.IGVPorcentaje, &l.IGVAfectacionCodigo,
		); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// TaxRepo is the taxes keyspace, indexed by owning document.
type TaxRepo struct {
	q Querier
}

func (r *TaxRepo) Put(ctx context.Context, tax model.TaxLine) error {
	query := `
		INSERT INTO document_taxes (id, document_id, codigo_impuesto, base, porcentaje, monto, afectacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		tax.ID, tax.DocumentID, tax.CodigoImpuesto, tax.Base, tax.Porcentaje, tax.Monto, tax.Afectacion,
	)
	if err != nil {
		return fmt.Errorf("insert tax: %w", err)
	}
	return nil
}

func (r *TaxRepo) ListByDocument(ctx context.Context, documentID string) ([]model.TaxLine, error) {
	query := `
		SELECT id, document_id, codigo_impuesto, base, porcentaje, monto, afectacion
		FROM document_taxes WHERE document_id = $1`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list taxes: %w", err)
	}
	defer rows.Close()

	var out []model.TaxLine
	for rows.Next() {
		var t model.TaxLine
		if err := rows.Scan(
			&t.ID, &t.DocumentID, &t.CodigoImpuesto, &t.Base, &t.Porcentaje, &t.Monto, &t.Afectacion,
		); err != nil {
			return nil, fmt.Errorf("scan tax: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
