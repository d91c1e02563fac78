package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleGenerated() *domain.GeneratedDocument {
	return &domain.GeneratedDocument{
		Title:       "Payments API",
		Request:     "Design a payments API",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Provider:    "extractive",
		Sections: []domain.Section{
			{Key: "overview", Heading: "Overview", Body: "Payments overview.", ChunkIDs: []string{"pdf:a.pdf#0"}},
			{Key: "security", Heading: "Security", Body: "_Section generation failed._", Error: "llm down"},
		},
		Sources: []domain.SourceRef{{DocumentID: "pdf:a.pdf", Title: "a", SourceType: domain.SourceTypePDF, Page: 1, Score: 0.8}},
	}
}

func TestGenerateHandler_Generate(t *testing.T) {
	gen := new(MockGenerator)
	h := NewGenerateHandler(gen, nil)

	gen.On("Generate", mock.Anything, service.GenerateRequest{Title: "Payments API", Request: "Design a payments API", K: 2}).
		Return(sampleGenerated(), nil)

	body := `{"title":"Payments API","request":"Design a payments API","k":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.Generate(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp GeneratedDocumentResponse
	decodeData(t, w.Body.Bytes(), &resp)
	assert.Equal(t, "Payments API", resp.Title)
	assert.Len(t, resp.Sections, 2)
	assert.Equal(t, []string{"security"}, resp.FailedSections)
	assert.Contains(t, resp.Markdown, "# Payments API")
	assert.Nil(t, resp.Export)
}

func TestGenerateHandler_Generate_Save(t *testing.T) {
	gen := new(MockGenerator)
	exporter := new(MockExporter)
	h := NewGenerateHandler(gen, exporter)

	doc := sampleGenerated()
	gen.On("Generate", mock.Anything, mock.Anything).Return(doc, nil)
	exporter.On("Save", mock.Anything, doc).Return(&service.ExportResult{
		FileName: "Payments_API_20260301_120000.md",
		Path:     "exports/Payments_API_20260301_120000.md",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"request":"Design a payments API","save":true}`))
	w := httptest.NewRecorder()
	h.Generate(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp GeneratedDocumentResponse
	decodeData(t, w.Body.Bytes(), &resp)
	require.NotNil(t, resp.Export)
	assert.Equal(t, "Payments_API_20260301_120000.md", resp.Export.FileName)
	exporter.AssertExpectations(t)
}

func TestGenerateHandler_Generate_SaveWithoutExporter(t *testing.T) {
	gen := new(MockGenerator)
	h := NewGenerateHandler(gen, nil)
	gen.On("Generate", mock.Anything, mock.Anything).Return(sampleGenerated(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"request":"x","save":true}`))
	w := httptest.NewRecorder()
	h.Generate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "export storage not configured")
}

func TestGenerateHandler_Generate_MissingRequest(t *testing.T) {
	gen := new(MockGenerator)
	h := NewGenerateHandler(gen, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(`{"title":"x"}`))
	w := httptest.NewRecorder()
	h.Generate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGenerateHandler_Markdown(t *testing.T) {
	gen := new(MockGenerator)
	h := NewGenerateHandler(gen, nil)
	gen.On("Generate", mock.Anything, mock.Anything).Return(sampleGenerated(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/markdown", bytes.NewBufferString(`{"request":"Design a payments API"}`))
	w := httptest.NewRecorder()
	h.Markdown(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Payments_API_20260301_120000.md")
	assert.Contains(t, w.Body.String(), "## 1. Overview")
}
