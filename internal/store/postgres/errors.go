package postgres

import (
	"context"
	"fmt"

	"github.com/rezonia/ubl-ingest/internal/model"
	"github.com/rezonia/ubl-ingest/internal/store"
)

var _ store.ErrorStore = (*ErrorRepo)(nil)

// ErrorRepo is the errors keyspace.
type ErrorRepo struct {
	q Querier
}

func (r *ErrorRepo) Put(ctx context.Context, rec model.IngestErrorRecord) error {
	query := `
		INSERT INTO ingest_errors (id, filename, code, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, rec.ID, rec.Filename, rec.Code, rec.Detail, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ingest error: %w", err)
	}
	return nil
}

func (r *ErrorRepo) List(ctx context.Context, limit int) ([]model.IngestErrorRecord, error) {
	query := `
		SELECT id, filename, code, detail, created_at
		FROM ingest_errors ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingest errors: %w", err)
	}
	defer rows.Close()

	var out []model.IngestErrorRecord
	for rows.Next() {
		var rec model.IngestErrorRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Code, &rec.Detail, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ingest error: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
