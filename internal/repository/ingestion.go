package repository

import (
	"context"

	"wordapi/internal/model"
)

// IngestionRepository defines data access for the ingestion audit log using
// SQL queries only. No business logic here, strictly persistence operations.
type IngestionRepository interface {
	// Create inserts a new ingestion record. The caller provides required
	// fields (ID, CreatedAt); the stored row is returned.
	Create(ctx context.Context, ing *model.Ingestion) (*model.Ingestion, error)

	// FindByFileID returns the audit record for a store identifier.
	FindByFileID(ctx context.Context, fileID string) (*model.Ingestion, error)

	// List returns a paginated list of ingestion records and a total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Ingestion], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
