package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"wordapi/internal/merge"
	"wordapi/internal/model"
	"wordapi/internal/service"
)

type MockWordService struct {
	mock.Mock
}

func (m *MockWordService) CreateDocument(ctx context.Context, filename, title, author string) (string, error) {
	args := m.Called(ctx, filename, title, author)
	return args.String(0), args.Error(1)
}

func (m *MockWordService) CreateDocumentTemp(ctx context.Context, filename, title, author string) (*model.DownloadInfo, error) {
	args := m.Called(ctx, filename, title, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadInfo), args.Error(1)
}

func (m *MockWordService) LoadFromURL(ctx context.Context, rawURL, filenameOverride string) (*model.DownloadInfo, error) {
	args := m.Called(ctx, rawURL, filenameOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DownloadInfo), args.Error(1)
}

func (m *MockWordService) GetInfo(ctx context.Context, filename string) (*model.DocumentInfo, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentInfo), args.Error(1)
}

func (m *MockWordService) GetText(ctx context.Context, filename string) (string, error) {
	args := m.Called(ctx, filename)
	return args.String(0), args.Error(1)
}

func (m *MockWordService) GetOutline(ctx context.Context, filename string) (*service.Outline, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Outline), args.Error(1)
}

func (m *MockWordService) GetXML(ctx context.Context, filename string) (string, error) {
	args := m.Called(ctx, filename)
	return args.String(0), args.Error(1)
}

func (m *MockWordService) ListDocuments(ctx context.Context) ([]service.FileEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.FileEntry), args.Error(1)
}

func (m *MockWordService) CopyDocument(ctx context.Context, source, destination string) (string, error) {
	args := m.Called(ctx, source, destination)
	return args.String(0), args.Error(1)
}

func (m *MockWordService) Merge(ctx context.Context, target string, sources []string, addPageBreaks bool) (*merge.Summary, error) {
	args := m.Called(ctx, target, sources, addPageBreaks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merge.Summary), args.Error(1)
}

func (m *MockWordService) ConvertToPDF(ctx context.Context, filename, outputPath string) (string, error) {
	args := m.Called(ctx, filename, outputPath)
	return args.String(0), args.Error(1)
}

func (m *MockWordService) PublishDocument(ctx context.Context, fileID string) (*service.PublishResult, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublishResult), args.Error(1)
}

func (m *MockWordService) Download(ctx context.Context, fileID string) (model.StoredDocument, error) {
	args := m.Called(ctx, fileID)
	return args.Get(0).(model.StoredDocument), args.Error(1)
}

func (m *MockWordService) ListIngestions(ctx context.Context, limit, offset int) (*service.IngestionListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestionListResult), args.Error(1)
}
