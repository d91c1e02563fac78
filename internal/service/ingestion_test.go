package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestIngestion(index *MockIndex, embedder *MockEmbeddingClient, loader *MockPDFLoader, ids ...string) *IngestionService {
	svc := NewIngestionService(index, embedder, loader, DefaultChunkConfig())
	svc.SetUUIDGenerator(NewMockUUIDGenerator(ids...))
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

func pdfDoc(name, text string) *domain.Document {
	return domain.NewDocument(domain.SourceTypePDF, name, name, []string{text}, fixedNow)
}

func TestIngestionService_IngestPDFs_Success(t *testing.T) {
	ctx := context.Background()
	index := new(MockIndex)
	embedder := new(MockEmbeddingClient)
	loader := new(MockPDFLoader)
	svc := newTestIngestion(index, embedder, loader, "rec-1")

	upload := domain.Upload{FileName: "requirements.pdf", Data: []byte("%PDF-1.4")}
	doc := pdfDoc("requirements.pdf", "Users must authenticate via OAuth2.")

	loader.On("Load", ctx, upload).Return(doc, nil)
	index.On("Manifest", mock.Anything).Return(nil, nil)
	embedder.On("GenerateEmbedding", mock.Anything, "Users must authenticate via OAuth2.").Return([]float32{1, 0, 0}, nil)
	index.On("SetManifest", mock.Anything, mock.MatchedBy(func(m domain.IndexManifest) bool {
		return m.EmbeddingModel == "mock-embed" && m.Dimensions == 3
	})).Return(nil)
	index.On("BeginIngestion", mock.Anything, mock.MatchedBy(func(r *domain.IngestionRecord) bool {
		return r.ID == "rec-1" && r.DocumentID == doc.ID && r.State == domain.IngestionStatePending && r.ContentHash == doc.ContentHash
	})).Return(nil)
	index.On("ReplaceDocument", mock.Anything, doc, mock.MatchedBy(func(chunks []domain.Chunk) bool {
		return len(chunks) == 1 && chunks[0].ID == "pdf:requirements.pdf#0" && len(chunks[0].Embedding) == 3 && chunks[0].Page == 1
	})).Return(nil)
	index.On("CompleteIngestion", mock.Anything, "rec-1", 1).Return(nil)

	result, err := svc.IngestPDFs(ctx, []domain.Upload{upload})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.True(t, result.Items[0].OK)
	assert.Equal(t, 1, result.Items[0].Chunks)
	assert.Equal(t, "pdf:requirements.pdf", result.Items[0].DocumentID)
	index.AssertExpectations(t)
	embedder.AssertExpectations(t)
	loader.AssertExpectations(t)
}

func TestIngestionService_IngestPDFs_FailuresAreIsolated(t *testing.T) {
	ctx := context.Background()
	index := new(MockIndex)
	embedder := new(MockEmbeddingClient)
	loader := new(MockPDFLoader)
	svc := newTestIngestion(index, embedder, loader, "rec-1")

	bad := domain.Upload{FileName: "broken.pdf"}
	good := domain.Upload{FileName: "good.pdf", Data: []byte("%PDF")}
	doc := pdfDoc("good.pdf", "Deployment uses blue green rollout.")

	loader.On("Load", ctx, bad).Return(nil, errors.New("file is empty"))
	loader.On("Load", ctx, good).Return(doc, nil)
	index.On("Manifest", mock.Anything).Return(&domain.IndexManifest{EmbeddingModel: "mock-embed", Dimensions: 3}, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0, 1, 0}, nil)
	index.On("BeginIngestion", mock.Anything, mock.Anything).Return(nil)
	index.On("ReplaceDocument", mock.Anything, doc, mock.Anything).Return(nil)
	index.On("CompleteIngestion", mock.Anything, "rec-1", 1).Return(nil)

	result, err := svc.IngestPDFs(ctx, []domain.Upload{bad, good})

	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.False(t, result.Items[0].OK)
	assert.Equal(t, "file is empty", result.Items[0].Error)
	assert.True(t, result.Items[1].OK)
	assert.Equal(t, 1, result.Succeeded())
	assert.Equal(t, 1, result.Failed())
	index.AssertNotCalled(t, "SetManifest", mock.Anything, mock.Anything)
}

func TestIngestionService_EmbeddingFailureLeavesNoJournalRecord(t *testing.T) {
	ctx := context.Background()
	index := new(MockIndex)
	embedder := new(MockEmbeddingClient)
	loader := new(MockPDFLoader)
	svc := newTestIngestion(index, embedder, loader, "rec-1")

	upload := domain.Upload{FileName: "a.pdf", Data: []byte("%PDF")}
	loader.On("Load", ctx, upload).Return(pdfDoc("a.pdf", "Some text about caching."), nil)
	index.On("Manifest", mock.Anything).Return(nil, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	result, err := svc.IngestPDFs(ctx, []domain.Upload{upload})

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.False(t, result.Items[0].OK)
	assert.Contains(t, result.Items[0].Error, "failed to generate embedding")
	assert.Contains(t, result.Items[0].Error, "rate limited")
	index.AssertNotCalled(t, "BeginIngestion", mock.Anything, mock.Anything)
	index.AssertNotCalled(t, "ReplaceDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestionService_ReplaceFailureFailsRecord(t *testing.T) {
	ctx := context.Background()
	index := new(MockIndex)
	embedder := new(MockEmbeddingClient)
	loader := new(MockPDFLoader)
	svc := newTestIngestion(index, embedder, loader, "rec-9")

	upload := domain.Upload{FileName: "a.pdf", Data: []byte("%PDF")}
	doc := pdfDoc("a.pdf", "Some text about caching.")
	loader.On("Load", ctx, upload).Return(doc, nil)
	index.On("Manifest", mock.Anything).Return(&domain.IndexManifest{EmbeddingModel: "mock-embed", Dimensions: 3}, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 1, 0}, nil)
	index.On("BeginIngestion", mock.Anything, mock.Anything).Return(nil)
	index.On("ReplaceDocument", mock.Anything, doc, mock.Anything).Return(errors.New("disk full"))
	index.On("FailIngestion", mock.Anything, "rec-9", "disk full").Return(nil)

	result, err := svc.IngestPDFs(ctx, []domain.Upload{upload})

	require.NoError(t, err)
	assert.False(t, result.Items[0].OK)
	assert.Contains(t, result.Items[0].Error, "disk full")
	index.AssertExpectations(t)
	index.AssertNotCalled(t, "CompleteIngestion", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestionService_EmbeddingSpaceMismatch(t *testing.T) {
	ctx := context.Background()
	index := new(MockIndex)
	embedder := new(MockEmbeddingClient)
	loader := new(MockPDFLoader)
	svc := newTestIngestion(index, embedder, loader)

	upload := domain.Upload{FileName: "a.pdf", Data: []byte("%PDF")}
	loader.On("Load", ctx, upload).Return(pdfDoc("a.pdf", "text"), nil)
	index.On("Manifest", mock.Anything).Return(&domain.IndexManifest{EmbeddingModel: "text-embedding-3-small", Dimensions: 1536}, nil)

	result, err := svc.IngestPDFs(ctx, []domain.Upload{upload})

	require.NoError(t, err)
	assert.False(t, result.Items[0].OK)
	assert.Equal(t, domain.ErrEmbeddingSpaceMismatch.Error(), result.Items[0].Error)
	embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
}

func TestIngestionService_IngestPDFs_NoInputs(t *testing.T) {
	svc := newTestIngestion(new(MockIndex), new(MockEmbeddingClient), new(MockPDFLoader))

	_, err := svc.IngestPDFs(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrNoInputs)
}

func TestIngestionService_ArchivesUploads(t *testing.T) {
	ctx := context.Background()
	index := new(MockIndex)
	embedder := new(MockEmbeddingClient)
	loader := new(MockPDFLoader)
	archive := new(MockObjectStore)
	svc := newTestIngestion(index, embedder, loader, "rec-1")
	svc.SetArchive(archive)

	upload := domain.Upload{FileName: "a.pdf", Data: []byte("%PDF")}
	doc := pdfDoc("a.pdf", "Some text.")
	loader.On("Load", ctx, upload).Return(doc, nil)
	index.On("Manifest", mock.Anything).Return(&domain.IndexManifest{EmbeddingModel: "mock-embed", Dimensions: 3}, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)
	index.On("BeginIngestion", mock.Anything, mock.Anything).Return(nil)
	index.On("ReplaceDocument", mock.Anything, doc, mock.Anything).Return(nil)
	index.On("CompleteIngestion", mock.Anything, "rec-1", 1).Return(nil)
	archive.On("PutObject", mock.Anything, "uploads/pdf_a.pdf/a.pdf", "application/pdf", upload.Data).Return(errors.New("bucket missing"))

	result, err := svc.IngestPDFs(ctx, []domain.Upload{upload})

	require.NoError(t, err)
	assert.True(t, result.Items[0].OK, "archive failures do not fail ingestion")
	archive.AssertExpectations(t)
}

func TestIngestionService_IngestConfluence(t *testing.T) {
	ctx := context.Background()
	index := new(MockIndex)
	embedder := new(MockEmbeddingClient)
	fetcher := new(MockPageFetcher)
	svc := newTestIngestion(index, embedder, new(MockPDFLoader), "rec-1")
	svc.SetConfluence(fetcher)

	page := domain.NewDocument(domain.SourceTypeConfluence, "12345", "Auth Design", []string{"Title: Auth Design\n\nTokens expire after one hour."}, fixedNow)
	fetcher.On("FetchPage", mock.Anything, "12345").Return(page, nil)
	fetcher.On("FetchPage", mock.Anything, "999").Return(nil, errors.New("confluence returned 404"))
	index.On("Manifest", mock.Anything).Return(&domain.IndexManifest{EmbeddingModel: "mock-embed", Dimensions: 3}, nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return([]float32{0, 0, 1}, nil)
	index.On("BeginIngestion", mock.Anything, mock.Anything).Return(nil)
	index.On("ReplaceDocument", mock.Anything, page, mock.MatchedBy(func(chunks []domain.Chunk) bool {
		return len(chunks) == 1 && chunks[0].Page == 0 && chunks[0].SourceType == domain.SourceTypeConfluence
	})).Return(nil)
	index.On("CompleteIngestion", mock.Anything, "rec-1", 1).Return(nil)

	result, err := svc.IngestConfluence(ctx, []string{" 12345 ", "999", "12345", ""})

	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.True(t, result.Items[0].OK)
	assert.Equal(t, "confluence:12345", result.Items[0].DocumentID)
	assert.False(t, result.Items[1].OK)
	assert.Equal(t, "confluence:999", result.Items[1].DocumentID)
	assert.Contains(t, result.Items[1].Error, "404")
	fetcher.AssertNumberOfCalls(t, "FetchPage", 2)
}

func TestIngestionService_IngestConfluence_NotConfigured(t *testing.T) {
	svc := newTestIngestion(new(MockIndex), new(MockEmbeddingClient), new(MockPDFLoader))

	_, err := svc.IngestConfluence(context.Background(), []string{"1"})

	assert.ErrorIs(t, err, domain.ErrConfluenceUnavailable)
}

func TestIngestionService_IngestConfluence_BlankIDs(t *testing.T) {
	svc := newTestIngestion(new(MockIndex), new(MockEmbeddingClient), new(MockPDFLoader))
	svc.SetConfluence(new(MockPageFetcher))

	_, err := svc.IngestConfluence(context.Background(), []string{" ", ""})

	assert.ErrorIs(t, err, domain.ErrNoInputs)
}
