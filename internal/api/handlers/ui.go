package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cloo-solutions/docsmith/internal/service"
)

//go:embed templates/index.html
var uiFS embed.FS

var pageTemplate = template.Must(template.ParseFS(uiFS, "templates/index.html"))

// UIHandler serves the server-rendered web page and its form posts.
type UIHandler struct {
	ingestion IngestionService
	retriever Retriever
	generator Generator
	status    *StatusHandler
}

func NewUIHandler(ingestion IngestionService, retriever Retriever, generator Generator, status *StatusHandler) *UIHandler {
	return &UIHandler{
		ingestion: ingestion,
		retriever: retriever,
		generator: generator,
		status:    status,
	}
}

type pageData struct {
	Status       *StatusResponse
	Error        string
	Batch        *BatchResultResponse
	Query        string
	K            int
	Search       *SearchResponse
	Title        string
	Request      string
	Generated    *GeneratedDocumentResponse
	DownloadName string
	DownloadURL  template.URL
}

func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, &pageData{})
}

func (h *UIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	data := &pageData{}
	uploads, err := readUploads(r)
	switch {
	case err != nil:
		data.Error = err.Error()
	case len(uploads) == 0:
		data.Error = "Choose at least one PDF file."
	default:
		result, err := h.ingestion.IngestPDFs(r.Context(), uploads)
		if err != nil {
			data.Error = err.Error()
		} else {
			data.Batch = batchToResponse(result)
		}
	}
	h.render(w, r, data)
}

func (h *UIHandler) Confluence(w http.ResponseWriter, r *http.Request) {
	data := &pageData{}
	ids := splitIDs(r.FormValue("page_ids"))
	if len(ids) == 0 {
		data.Error = "Enter at least one Confluence page ID."
		h.render(w, r, data)
		return
	}

	result, err := h.ingestion.IngestConfluence(r.Context(), ids)
	if err != nil {
		data.Error = err.Error()
	} else {
		data.Batch = batchToResponse(result)
	}
	h.render(w, r, data)
}

func (h *UIHandler) Search(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Query: r.FormValue("query")}
	if k, err := strconv.Atoi(r.FormValue("k")); err == nil {
		data.K = k
	}

	res, err := h.retriever.Retrieve(r.Context(), data.Query, data.K)
	if err != nil {
		data.Error = err.Error()
	} else {
		data.Search = queryResultToResponse(res)
		data.K = res.K
	}
	h.render(w, r, data)
}

func (h *UIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	data := &pageData{
		Title:   r.FormValue("title"),
		Request: r.FormValue("request"),
	}

	doc, err := h.generator.Generate(r.Context(), service.GenerateRequest{Title: data.Title, Request: data.Request})
	if err != nil {
		data.Error = err.Error()
		h.render(w, r, data)
		return
	}

	data.Generated = generatedToResponse(doc)
	data.DownloadName = service.ExportFileName(doc.Title, doc.GeneratedAt)
	// The body is percent-encoded, so the data URL carries no markup.
	data.DownloadURL = template.URL("data:text/markdown;charset=utf-8," + url.PathEscape(data.Generated.Markdown))
	h.render(w, r, data)
}

func (h *UIHandler) render(w http.ResponseWriter, r *http.Request, data *pageData) {
	if data.K == 0 {
		data.K = service.DefaultTopK
	}
	if h.status != nil {
		st, err := h.status.collect(r.Context())
		if err != nil {
			log.Printf("ui: status: %v", err)
		} else {
			data.Status = st
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.Printf("ui: render: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if data.Error != "" {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		log.Printf("ui: write: %v", err)
	}
}

func splitIDs(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
