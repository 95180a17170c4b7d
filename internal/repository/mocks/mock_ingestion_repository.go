package mocks

import (
	"context"

	"wordapi/internal/model"
	"wordapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockIngestionRepository struct {
	mock.Mock
}

func (m *MockIngestionRepository) Create(ctx context.Context, ing *model.Ingestion) (*model.Ingestion, error) {
	args := m.Called(ctx, ing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ingestion), args.Error(1)
}

func (m *MockIngestionRepository) FindByFileID(ctx context.Context, fileID string) (*model.Ingestion, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ingestion), args.Error(1)
}

func (m *MockIngestionRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Ingestion], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Ingestion]), args.Error(1)
}
