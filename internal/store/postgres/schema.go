package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the keyspaces and the index set the resolver and the
// API depend on: hash and {tipo, serie, numero} for duplicate detection,
// issuer/customer/date for listings.
func Migrate(ctx context.Context, q Querier) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id                  UUID PRIMARY KEY,
			tipo                TEXT NOT NULL,
			serie               TEXT NOT NULL,
			numero              TEXT NOT NULL,
			moneda              TEXT NOT NULL,
			issue_date          TEXT NOT NULL DEFAULT '',
			issue_time          TEXT NOT NULL DEFAULT '',
			due_date            TEXT NOT NULL DEFAULT '',
			issuer_id           UUID,
			issuer_ruc          TEXT NOT NULL DEFAULT '',
			issuer_doc_type     TEXT NOT NULL DEFAULT '',
			issuer_doc_number   TEXT NOT NULL DEFAULT '',
			issuer_nombre       TEXT NOT NULL DEFAULT '',
			issuer_direccion    TEXT NOT NULL DEFAULT '',
			customer_id         UUID,
			customer_ruc        TEXT NOT NULL DEFAULT '',
			customer_doc_type   TEXT NOT NULL DEFAULT '',
			customer_doc_number TEXT NOT NULL DEFAULT '',
			customer_nombre     TEXT NOT NULL DEFAULT '',
			customer_direccion  TEXT NOT NULL DEFAULT '',
			subtotal            NUMERIC(18,2) NOT NULL DEFAULT 0,
			descuentos          NUMERIC(18,2) NOT NULL DEFAULT 0,
			total_igv           NUMERIC(18,2) NOT NULL DEFAULT 0,
			tax_inclusive       NUMERIC(18,2) NOT NULL DEFAULT 0,
			total               NUMERIC(18,2) NOT NULL DEFAULT 0,
			payment             JSONB,
			legends             JSONB,
			hash                TEXT NOT NULL,
			storage_name        TEXT NOT NULL DEFAULT '',
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents (hash)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_business_key ON documents (tipo, serie, numero)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_issuer ON documents (issuer_ruc)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_customer ON documents (customer_doc_number)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_issue_date ON documents (issue_date)`,

		`CREATE TABLE IF NOT EXISTS document_lines (
			id                UUID PRIMARY KEY,
			document_id       UUID NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
			line_number       INT NOT NULL,
			descripcion       TEXT NOT NULL DEFAULT '',
			unidad            TEXT NOT NULL DEFAULT '',
			codigo            TEXT NOT NULL DEFAULT '',
			cantidad          NUMERIC(18,6) NOT NULL DEFAULT 0,
			precio_unitario   NUMERIC(18,6) NOT NULL DEFAULT 0,
			precio_referencial NUMERIC(18,6),
			valor_linea       NUMERIC(18,6) NOT NULL DEFAULT 0,
			igv_monto         NUMERIC(18,2) NOT NULL DEFAULT 0,
			igv_porcentaje    NUMERIC(9,2),
			igv_afectacion    TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_lines_document ON document_lines (document_id)`,

		`CREATE TABLE IF NOT EXISTS document_taxes (
			id              UUID PRIMARY KEY,
			document_id     UUID NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
			codigo_impuesto TEXT NOT NULL DEFAULT '',
			base            NUMERIC(18,2) NOT NULL DEFAULT 0,
			porcentaje      NUMERIC(9,2),
			monto           NUMERIC(18,2) NOT NULL DEFAULT 0,
			afectacion      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_taxes_document ON document_taxes (document_id)`,

		`CREATE TABLE IF NOT EXISTS issuers (
			id         UUID PRIMARY KEY,
			ruc        TEXT NOT NULL DEFAULT '',
			doc_type   TEXT NOT NULL DEFAULT '',
			doc_number TEXT NOT NULL DEFAULT '',
			nombre     TEXT NOT NULL DEFAULT '',
			direccion  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_issuers_ruc ON issuers (ruc)`,

		`CREATE TABLE IF NOT EXISTS customers (
			id         UUID PRIMARY KEY,
			ruc        TEXT NOT NULL DEFAULT '',
			doc_type   TEXT NOT NULL DEFAULT '',
			doc_number TEXT NOT NULL DEFAULT '',
			nombre     TEXT NOT NULL DEFAULT '',
			direccion  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_doc ON customers (doc_type, doc_number)`,

		`CREATE TABLE IF NOT EXISTS ingest_errors (
			id         UUID PRIMARY KEY,
			filename   TEXT NOT NULL DEFAULT '',
			code       TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ingest_errors_created ON ingest_errors (created_at)`,
	}

	for _, stmt := range statements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
