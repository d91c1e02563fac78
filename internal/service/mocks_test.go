package service

import (
	"context"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/llm"
	"github.com/cloo-solutions/docsmith/internal/pagination"
	"github.com/stretchr/testify/mock"
)

// MockIndex is a mock implementation of Index
type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) ReplaceDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	args := m.Called(ctx, doc, chunks)
	return args.Error(0)
}

func (m *MockIndex) DeleteDocument(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIndex) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockIndex) ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) ([]domain.DocumentSummary, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentSummary), args.Error(1)
}

func (m *MockIndex) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, embedding, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredChunk), args.Error(1)
}

func (m *MockIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.IndexStats), args.Error(1)
}

func (m *MockIndex) Manifest(ctx context.Context) (*domain.IndexManifest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexManifest), args.Error(1)
}

func (m *MockIndex) SetManifest(ctx context.Context, manifest domain.IndexManifest) error {
	args := m.Called(ctx, manifest)
	return args.Error(0)
}

func (m *MockIndex) DeleteOrphanChunks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockIndex) BeginIngestion(ctx context.Context, record *domain.IngestionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockIndex) CompleteIngestion(ctx context.Context, id string, chunkCount int) error {
	args := m.Called(ctx, id, chunkCount)
	return args.Error(0)
}

func (m *MockIndex) FailIngestion(ctx context.Context, id string, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockIndex) PendingIngestions(ctx context.Context) ([]domain.IngestionRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IngestionRecord), args.Error(1)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingClient) ModelName() string {
	return "mock-embed"
}

func (m *MockEmbeddingClient) Dimensions() int {
	return 3
}

// MockPDFLoader is a mock implementation of PDFLoader
type MockPDFLoader struct {
	mock.Mock
}

func (m *MockPDFLoader) Load(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	args := m.Called(ctx, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

// MockPageFetcher is a mock implementation of PageFetcher
type MockPageFetcher struct {
	mock.Mock
}

func (m *MockPageFetcher) FetchPage(ctx context.Context, pageID string) (*domain.Document, error) {
	args := m.Called(ctx, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

func (m *MockObjectStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// MockRetriever is a mock implementation of Retriever
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

// MockLLM is a mock implementation of llm.Client
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) Name() string {
	return "mock-llm"
}

// MockUUIDGenerator returns the given IDs in order
type MockUUIDGenerator struct {
	uuids []string
	index int
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.index >= len(m.uuids) {
		return "uuid-overflow"
	}
	id := m.uuids[m.index]
	m.index++
	return id
}
