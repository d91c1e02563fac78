package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cloo-solutions/docsmith/internal/api"
	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/service"
)

type Generator interface {
	Generate(ctx context.Context, req service.GenerateRequest) (*domain.GeneratedDocument, error)
}

type Exporter interface {
	Save(ctx context.Context, doc *domain.GeneratedDocument) (*service.ExportResult, error)
}

type GenerateHandler struct {
	generator Generator
	exporter  Exporter
}

// NewGenerateHandler creates a GenerateHandler. exporter may be nil.
func NewGenerateHandler(generator Generator, exporter Exporter) *GenerateHandler {
	return &GenerateHandler{generator: generator, exporter: exporter}
}

type GenerateRequest struct {
	Title   string `json:"title"`
	Request string `json:"request"`
	K       int    `json:"k"`
	Save    bool   `json:"save"`
}

type SectionResponse struct {
	Key      string   `json:"key"`
	Heading  string   `json:"heading"`
	Body     string   `json:"body"`
	ChunkIDs []string `json:"chunk_ids,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type SourceResponse struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	SourceType string  `json:"source_type"`
	URL        string  `json:"url,omitempty"`
	Page       int     `json:"page,omitempty"`
	Score      float32 `json:"score"`
}

type GeneratedDocumentResponse struct {
	Title          string                `json:"title"`
	Request        string                `json:"request"`
	GeneratedAt    string                `json:"generated_at"`
	Provider       string                `json:"provider"`
	Sections       []SectionResponse     `json:"sections"`
	Sources        []SourceResponse      `json:"sources"`
	FailedSections []string              `json:"failed_sections,omitempty"`
	Markdown       string                `json:"markdown"`
	Export         *service.ExportResult `json:"export,omitempty"`
}

func generatedToResponse(doc *domain.GeneratedDocument) *GeneratedDocumentResponse {
	resp := &GeneratedDocumentResponse{
		Title:          doc.Title,
		Request:        doc.Request,
		GeneratedAt:    doc.GeneratedAt.UTC().Format(time.RFC3339),
		Provider:       doc.Provider,
		Sections:       make([]SectionResponse, 0, len(doc.Sections)),
		Sources:        make([]SourceResponse, 0, len(doc.Sources)),
		FailedSections: doc.FailedSections(),
		Markdown:       service.RenderMarkdown(doc),
	}
	for _, s := range doc.Sections {
		resp.Sections = append(resp.Sections, SectionResponse{
			Key:      s.Key,
			Heading:  s.Heading,
			Body:     s.Body,
			ChunkIDs: s.ChunkIDs,
			Error:    s.Error,
		})
	}
	for _, s := range doc.Sources {
		resp.Sources = append(resp.Sources, SourceResponse{
			DocumentID: s.DocumentID,
			Title:      s.Title,
			SourceType: string(s.SourceType),
			URL:        s.URL,
			Page:       s.Page,
			Score:      s.Score,
		})
	}
	return resp
}

func (h *GenerateHandler) decode(w http.ResponseWriter, r *http.Request) (*domain.GeneratedDocument, *GenerateRequest, bool) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return nil, nil, false
	}
	if req.Request == "" {
		api.Error(w, http.StatusBadRequest, "request is required")
		return nil, nil, false
	}

	doc, err := h.generator.Generate(r.Context(), service.GenerateRequest{
		Title:   req.Title,
		Request: req.Request,
		K:       req.K,
	})
	if err != nil {
		api.HandleError(w, err)
		return nil, nil, false
	}
	return doc, &req, true
}

// Generate returns the generated document as JSON, optionally saving an export.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	doc, req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp := generatedToResponse(doc)
	if req.Save {
		if h.exporter == nil {
			api.HandleError(w, domain.ErrExportNotConfigured)
			return
		}
		res, err := h.exporter.Save(r.Context(), doc)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		resp.Export = res
	}

	api.Success(w, http.StatusOK, resp)
}

// Markdown returns the generated document as a Markdown attachment.
func (h *GenerateHandler) Markdown(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.decode(w, r)
	if !ok {
		return
	}

	name := service.ExportFileName(doc.Title, doc.GeneratedAt)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(service.RenderMarkdown(doc))); err != nil {
		log.Printf("generate: write markdown: %v", err)
	}
}
