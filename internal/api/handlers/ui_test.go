package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestUI() (*UIHandler, *MockIngestionService, *MockRetriever, *MockGenerator) {
	ingestion := new(MockIngestionService)
	retriever := new(MockRetriever)
	gen := new(MockGenerator)
	stats := new(MockIndexStats)
	stats.On("Stats", mock.Anything).Return(domain.IndexStats{Documents: 1, Chunks: 3}, nil, nil)
	status := NewStatusHandler(stats, nil, StatusInfo{Backend: "memory", Embedder: "hashing", LLMProvider: "extractive"})
	return NewUIHandler(ingestion, retriever, gen, status), ingestion, retriever, gen
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestUIHandler_Index(t *testing.T) {
	h, _, _, _ := newTestUI()

	w := httptest.NewRecorder()
	h.Index(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `action="/ui/search"`)
	assert.Contains(t, w.Body.String(), "memory")
}

func TestUIHandler_Search(t *testing.T) {
	h, _, retriever, _ := newTestUI()
	retriever.On("Retrieve", mock.Anything, "oauth", 3).Return(&domain.QueryResult{
		Query: "oauth",
		K:     3,
		Results: []domain.ScoredChunk{{
			Chunk: domain.Chunk{ID: "pdf:a.pdf#0", DocumentID: "pdf:a.pdf", Title: "Auth Guide", SourceType: domain.SourceTypePDF, Text: "Tokens <expire> hourly."},
			Score: 0.5,
		}},
	}, nil)

	w := httptest.NewRecorder()
	h.Search(w, formRequest("/ui/search", url.Values{"query": {"oauth"}, "k": {"3"}}))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Auth Guide")
	assert.Contains(t, body, "Tokens &lt;expire&gt; hourly.")
}

func TestUIHandler_Search_EmptyQuery(t *testing.T) {
	h, _, retriever, _ := newTestUI()
	retriever.On("Retrieve", mock.Anything, "", 0).Return(nil, domain.ErrEmptyQuery)

	w := httptest.NewRecorder()
	h.Search(w, formRequest("/ui/search", url.Values{"query": {""}}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "query cannot be empty")
}

func TestUIHandler_Confluence(t *testing.T) {
	h, ingestion, _, _ := newTestUI()
	ingestion.On("IngestConfluence", mock.Anything, []string{"111", "222"}).
		Return(&domain.BatchResult{Items: []domain.ItemResult{{Source: "111", OK: true, Chunks: 1}, {Source: "222", OK: true, Chunks: 4}}}, nil)

	w := httptest.NewRecorder()
	h.Confluence(w, formRequest("/ui/confluence", url.Values{"page_ids": {"111, 222\n"}}))

	require.Equal(t, http.StatusOK, w.Code)
	ingestion.AssertExpectations(t)
}

func TestUIHandler_Confluence_NoIDs(t *testing.T) {
	h, ingestion, _, _ := newTestUI()

	w := httptest.NewRecorder()
	h.Confluence(w, formRequest("/ui/confluence", url.Values{"page_ids": {"  "}}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ingestion.AssertNotCalled(t, "IngestConfluence", mock.Anything, mock.Anything)
}

func TestUIHandler_Generate(t *testing.T) {
	h, _, _, gen := newTestUI()
	gen.On("Generate", mock.Anything, service.GenerateRequest{Title: "Payments API", Request: "Design a payments API"}).
		Return(sampleGenerated(), nil)

	w := httptest.NewRecorder()
	h.Generate(w, formRequest("/ui/generate", url.Values{"title": {"Payments API"}, "request": {"Design a payments API"}}))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Payments_API_20260301_120000.md")
	assert.Contains(t, body, "data:text/markdown;charset=utf-8,")
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, splitIDs("1, 2\n3"))
	assert.Empty(t, splitIDs(" ,\n "))
}
