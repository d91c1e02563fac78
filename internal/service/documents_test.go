package service

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_List_Paginates(t *testing.T) {
	index := new(MockIndex)
	svc := NewDocumentService(index)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []domain.DocumentSummary{
		{ID: "pdf:a.pdf", RetrievedAt: t1},
		{ID: "pdf:b.pdf", RetrievedAt: t1},
		{ID: "pdf:c.pdf", RetrievedAt: t1},
	}
	index.On("ListDocuments", mock.Anything, (*pagination.Cursor)(nil), 3).Return(items, nil)

	page, err := svc.List(context.Background(), "", 2)

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	cur, err := pagination.DecodeCursor(page.Cursor)
	require.NoError(t, err)
	assert.Equal(t, "pdf:b.pdf", cur.LastID)
}

func TestDocumentService_List_LastPage(t *testing.T) {
	index := new(MockIndex)
	svc := NewDocumentService(index)
	index.On("ListDocuments", mock.Anything, (*pagination.Cursor)(nil), DefaultPageSize+1).Return([]domain.DocumentSummary{{ID: "pdf:a.pdf"}}, nil)

	page, err := svc.List(context.Background(), "", 0)

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.Cursor)
}

func TestDocumentService_List_InvalidCursor(t *testing.T) {
	svc := NewDocumentService(new(MockIndex))

	_, err := svc.List(context.Background(), "%%%", 10)

	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeValidation, de.Code)
}

func TestDocumentService_GetAndDelete(t *testing.T) {
	index := new(MockIndex)
	svc := NewDocumentService(index)
	doc := &domain.Document{ID: "confluence:1"}
	index.On("GetDocument", mock.Anything, "confluence:1").Return(doc, nil)
	index.On("DeleteDocument", mock.Anything, "confluence:2").Return(domain.ErrDocumentNotFound)

	got, err := svc.Get(context.Background(), "confluence:1")
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	err = svc.Delete(context.Background(), "confluence:2")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, err = svc.Get(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
}

func TestDocumentService_Stats(t *testing.T) {
	index := new(MockIndex)
	svc := NewDocumentService(index)
	index.On("Stats", mock.Anything).Return(domain.IndexStats{Documents: 2, Chunks: 9}, nil)
	index.On("Manifest", mock.Anything).Return(&domain.IndexManifest{EmbeddingModel: "hashing-v1", Dimensions: 384}, nil)

	stats, manifest, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 9, stats.Chunks)
	assert.Equal(t, "hashing-v1", manifest.EmbeddingModel)
}
