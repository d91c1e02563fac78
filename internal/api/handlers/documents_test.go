package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func documentRouter(h *DocumentHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/documents/pdf", h.UploadPDFs)
	r.Post("/api/documents/confluence", h.IngestConfluence)
	r.Get("/api/documents", h.List)
	r.Get("/api/documents/{id}", h.Get)
	r.Delete("/api/documents/{id}", h.Delete)
	return r
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeData(t *testing.T, body []byte, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestDocumentHandler_UploadPDFs(t *testing.T) {
	ingestion := new(MockIngestionService)
	h := NewDocumentHandler(ingestion, new(MockDocumentService))

	body, contentType := multipartBody(t, map[string][]byte{"requirements.pdf": []byte("%PDF-1.4")})
	ingestion.On("IngestPDFs", mock.Anything, []domain.Upload{{FileName: "requirements.pdf", Data: []byte("%PDF-1.4")}}).
		Return(&domain.BatchResult{Items: []domain.ItemResult{{Source: "requirements.pdf", DocumentID: "pdf:requirements.pdf", OK: true, Chunks: 3}}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/pdf", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp BatchResultResponse
	decodeData(t, w.Body.Bytes(), &resp)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 3, resp.Items[0].Chunks)
	ingestion.AssertExpectations(t)
}

func TestDocumentHandler_UploadPDFs_NoFiles(t *testing.T) {
	h := NewDocumentHandler(new(MockIngestionService), new(MockDocumentService))

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/pdf", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_UploadPDFs_NotMultipart(t *testing.T) {
	h := NewDocumentHandler(new(MockIngestionService), new(MockDocumentService))

	req := httptest.NewRequest(http.MethodPost, "/api/documents/pdf", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid multipart form")
}

func TestDocumentHandler_IngestConfluence(t *testing.T) {
	ingestion := new(MockIngestionService)
	h := NewDocumentHandler(ingestion, new(MockDocumentService))

	ingestion.On("IngestConfluence", mock.Anything, []string{"123", "456"}).Return(&domain.BatchResult{Items: []domain.ItemResult{
		{Source: "123", OK: true, Chunks: 2},
		{Source: "456", Error: "confluence returned 404"},
	}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/confluence", bytes.NewBufferString(`{"page_ids":["123","456"]}`))
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp BatchResultResponse
	decodeData(t, w.Body.Bytes(), &resp)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
}

func TestDocumentHandler_IngestConfluence_NotConfigured(t *testing.T) {
	ingestion := new(MockIngestionService)
	h := NewDocumentHandler(ingestion, new(MockDocumentService))
	ingestion.On("IngestConfluence", mock.Anything, []string{"1"}).Return(nil, domain.ErrConfluenceUnavailable)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/confluence", bytes.NewBufferString(`{"page_ids":["1"]}`))
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "confluence is not configured")
}

func TestDocumentHandler_IngestConfluence_MissingIDs(t *testing.T) {
	h := NewDocumentHandler(new(MockIngestionService), new(MockDocumentService))

	req := httptest.NewRequest(http.MethodPost, "/api/documents/confluence", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_List(t *testing.T) {
	docs := new(MockDocumentService)
	h := NewDocumentHandler(new(MockIngestionService), docs)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	docs.On("List", mock.Anything, "abc", 10).Return(&service.DocumentPage{
		Items:   []domain.DocumentSummary{{ID: "pdf:a.pdf", SourceType: domain.SourceTypePDF, Title: "a", ChunkCount: 2, RetrievedAt: at}},
		Cursor:  "next",
		HasMore: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/documents?cursor=abc&limit=10", nil)
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp DocumentListResponse
	decodeData(t, w.Body.Bytes(), &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.Items[0].RetrievedAt)
	assert.Equal(t, "next", resp.Cursor)
	assert.True(t, resp.HasMore)
}

func TestDocumentHandler_List_InvalidLimit(t *testing.T) {
	h := NewDocumentHandler(new(MockIngestionService), new(MockDocumentService))

	req := httptest.NewRequest(http.MethodGet, "/api/documents?limit=abc", nil)
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_Get(t *testing.T) {
	docs := new(MockDocumentService)
	h := NewDocumentHandler(new(MockIngestionService), docs)

	doc := domain.NewDocument(domain.SourceTypePDF, "a.pdf", "a", []string{"page one", "page two"}, time.Now())
	docs.On("Get", mock.Anything, "pdf:a.pdf").Return(doc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/pdf:a.pdf", nil)
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp DocumentResponse
	decodeData(t, w.Body.Bytes(), &resp)
	assert.Equal(t, "pdf:a.pdf", resp.ID)
	assert.Equal(t, 2, resp.PageCount)
	assert.Equal(t, "page one\n\npage two", resp.Text)
}

func TestDocumentHandler_Get_NotFound(t *testing.T) {
	docs := new(MockDocumentService)
	h := NewDocumentHandler(new(MockIngestionService), docs)
	docs.On("Get", mock.Anything, "pdf:missing.pdf").Return(nil, domain.ErrDocumentNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/pdf%3Amissing.pdf", nil)
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_Delete(t *testing.T) {
	docs := new(MockDocumentService)
	h := NewDocumentHandler(new(MockIngestionService), docs)
	docs.On("Delete", mock.Anything, "confluence:123").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/confluence:123", nil)
	w := httptest.NewRecorder()
	documentRouter(h).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	docs.AssertExpectations(t)
}
