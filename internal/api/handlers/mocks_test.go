package handlers

import (
	"context"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/loader"
	"github.com/cloo-solutions/docsmith/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) IngestPDFs(ctx context.Context, uploads []domain.Upload) (*domain.BatchResult, error) {
	args := m.Called(ctx, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockIngestionService) IngestConfluence(ctx context.Context, pageIDs []string) (*domain.BatchResult, error) {
	args := m.Called(ctx, pageIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, cursor string, limit int) (*service.DocumentPage, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentPage), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, k int) (*domain.QueryResult, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueryResult), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req service.GenerateRequest) (*domain.GeneratedDocument, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneratedDocument), args.Error(1)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Save(ctx context.Context, doc *domain.GeneratedDocument) (*service.ExportResult, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportResult), args.Error(1)
}

type MockIndexStats struct {
	mock.Mock
}

func (m *MockIndexStats) Stats(ctx context.Context) (domain.IndexStats, *domain.IndexManifest, error) {
	args := m.Called(ctx)
	var manifest *domain.IndexManifest
	if args.Get(1) != nil {
		manifest = args.Get(1).(*domain.IndexManifest)
	}
	return args.Get(0).(domain.IndexStats), manifest, args.Error(2)
}

type MockConfluenceProber struct {
	mock.Mock
}

func (m *MockConfluenceProber) Status(ctx context.Context) loader.ConfluenceStatus {
	args := m.Called(ctx)
	return args.Get(0).(loader.ConfluenceStatus)
}
