package postgres

import (
	"context"
	"database/sql"

	"wordapi/internal/model"
	"wordapi/internal/repository"
)

// IngestionPostgres is a PostgreSQL implementation of
// repository.IngestionRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type IngestionPostgres struct {
	db *sql.DB
}

// NewIngestionPostgres creates a new IngestionPostgres repository.
func NewIngestionPostgres(db *sql.DB) *IngestionPostgres {
	return &IngestionPostgres{db: db}
}

var _ repository.IngestionRepository = (*IngestionPostgres)(nil)

// Create inserts a new ingestion row and returns the stored record.
func (r *IngestionPostgres) Create(ctx context.Context, ing *model.Ingestion) (*model.Ingestion, error) {
	const q = `
		INSERT INTO ingestions (id, file_id, filename, source, size, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, file_id, filename, source, size, content_type, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		ing.ID,
		ing.FileID,
		ing.Filename,
		ing.Source,
		ing.Size,
		ing.ContentType,
		ing.CreatedAt,
	)
	var out model.Ingestion
	if err := row.Scan(
		&out.ID,
		&out.FileID,
		&out.Filename,
		&out.Source,
		&out.Size,
		&out.ContentType,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByFileID fetches a single ingestion record by its store identifier.
func (r *IngestionPostgres) FindByFileID(ctx context.Context, fileID string) (*model.Ingestion, error) {
	const q = `
		SELECT id, file_id, filename, source, size, content_type, created_at
		FROM ingestions
		WHERE file_id = $1
	`
	row := r.db.QueryRowContext(ctx, q, fileID)
	var ing model.Ingestion
	if err := row.Scan(
		&ing.ID,
		&ing.FileID,
		&ing.Filename,
		&ing.Source,
		&ing.Size,
		&ing.ContentType,
		&ing.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ing, nil
}

// List returns ingestion records using LIMIT/OFFSET pagination and a total count.
func (r *IngestionPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Ingestion], error) {
	const qCount = `SELECT COUNT(*) FROM ingestions`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, file_id, filename, source, size, content_type, created_at
		FROM ingestions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Ingestion, 0)
	for rows.Next() {
		var ing model.Ingestion
		if err := rows.Scan(
			&ing.ID,
			&ing.FileID,
			&ing.Filename,
			&ing.Source,
			&ing.Size,
			&ing.ContentType,
			&ing.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Ingestion]{
		Items: items,
		Total: total,
	}, nil
}
