package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloo-solutions/docsmith/internal/api"
	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxMultipartMemory = 32 << 20

type IngestionService interface {
	IngestPDFs(ctx context.Context, uploads []domain.Upload) (*domain.BatchResult, error)
	IngestConfluence(ctx context.Context, pageIDs []string) (*domain.BatchResult, error)
}

type DocumentService interface {
	List(ctx context.Context, cursor string, limit int) (*service.DocumentPage, error)
	Get(ctx context.Context, id string) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
}

type DocumentHandler struct {
	ingestion IngestionService
	docs      DocumentService
}

func NewDocumentHandler(ingestion IngestionService, docs DocumentService) *DocumentHandler {
	return &DocumentHandler{ingestion: ingestion, docs: docs}
}

type ConfluenceIngestRequest struct {
	PageIDs []string `json:"page_ids"`
}

type ItemResultResponse struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id,omitempty"`
	OK         bool   `json:"ok"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
}

type BatchResultResponse struct {
	Items     []ItemResultResponse `json:"items"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

type DocumentSummaryResponse struct {
	ID          string `json:"id"`
	SourceType  string `json:"source_type"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	SpaceKey    string `json:"space_key,omitempty"`
	PageCount   int    `json:"page_count"`
	ChunkCount  int    `json:"chunk_count"`
	ContentHash string `json:"content_hash"`
	RetrievedAt string `json:"retrieved_at"`
}

type DocumentListResponse struct {
	Items   []DocumentSummaryResponse `json:"items"`
	Cursor  string                    `json:"cursor,omitempty"`
	HasMore bool                      `json:"has_more"`
}

type DocumentResponse struct {
	ID          string `json:"id"`
	SourceType  string `json:"source_type"`
	SourceRef   string `json:"source_ref"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	SpaceKey    string `json:"space_key,omitempty"`
	PageCount   int    `json:"page_count"`
	ContentHash string `json:"content_hash"`
	RetrievedAt string `json:"retrieved_at"`
	Text        string `json:"text"`
}

func batchToResponse(b *domain.BatchResult) *BatchResultResponse {
	resp := &BatchResultResponse{
		Items:     make([]ItemResultResponse, 0, len(b.Items)),
		Succeeded: b.Succeeded(),
		Failed:    b.Failed(),
	}
	for _, it := range b.Items {
		resp.Items = append(resp.Items, ItemResultResponse{
			Source:     it.Source,
			DocumentID: it.DocumentID,
			OK:         it.OK,
			Chunks:     it.Chunks,
			Error:      it.Error,
		})
	}
	return resp
}

func summaryToResponse(s domain.DocumentSummary) DocumentSummaryResponse {
	return DocumentSummaryResponse{
		ID:          s.ID,
		SourceType:  string(s.SourceType),
		Title:       s.Title,
		URL:         s.URL,
		SpaceKey:    s.SpaceKey,
		PageCount:   s.PageCount,
		ChunkCount:  s.ChunkCount,
		ContentHash: s.ContentHash,
		RetrievedAt: s.RetrievedAt.UTC().Format(time.RFC3339),
	}
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:          d.ID,
		SourceType:  string(d.SourceType),
		SourceRef:   d.SourceRef,
		Title:       d.Title,
		URL:         d.URL,
		SpaceKey:    d.SpaceKey,
		PageCount:   d.PageCount(),
		ContentHash: d.ContentHash,
		RetrievedAt: d.RetrievedAt.UTC().Format(time.RFC3339),
		Text:        d.Text(),
	}
}

// UploadPDFs ingests the multipart "files" field.
func (h *DocumentHandler) UploadPDFs(w http.ResponseWriter, r *http.Request) {
	uploads, err := readUploads(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(uploads) == 0 {
		api.Error(w, http.StatusBadRequest, "files are required")
		return
	}

	result, err := h.ingestion.IngestPDFs(r.Context(), uploads)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, batchToResponse(result))
}

func (h *DocumentHandler) IngestConfluence(w http.ResponseWriter, r *http.Request) {
	var req ConfluenceIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.PageIDs) == 0 {
		api.Error(w, http.StatusBadRequest, "page_ids is required")
		return
	}

	result, err := h.ingestion.IngestConfluence(r.Context(), req.PageIDs)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, batchToResponse(result))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	page, err := h.docs.List(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := DocumentListResponse{
		Items:   make([]DocumentSummaryResponse, 0, len(page.Items)),
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	}
	for _, s := range page.Items {
		resp.Items = append(resp.Items, summaryToResponse(s))
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}

	doc, err := h.docs.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}

	if err := h.docs.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func documentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	id, err := url.PathUnescape(raw)
	if err != nil || id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return "", false
	}
	return id, true
}

func readUploads(r *http.Request) ([]domain.Upload, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errors.New("invalid multipart form")
	}
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, domain.Upload{FileName: fh.Filename, Data: data})
	}
	return uploads, nil
}
