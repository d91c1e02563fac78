package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/docsmith/internal/api"
	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/loader"
)

type IndexStats interface {
	Stats(ctx context.Context) (domain.IndexStats, *domain.IndexManifest, error)
}

type ConfluenceProber interface {
	Status(ctx context.Context) loader.ConfluenceStatus
}

// StatusInfo names the configured backends.
type StatusInfo struct {
	Backend     string
	Embedder    string
	LLMProvider string
}

type StatusHandler struct {
	stats      IndexStats
	confluence ConfluenceProber
	info       StatusInfo
}

// NewStatusHandler creates a StatusHandler. confluence may be nil.
func NewStatusHandler(stats IndexStats, confluence ConfluenceProber, info StatusInfo) *StatusHandler {
	return &StatusHandler{stats: stats, confluence: confluence, info: info}
}

type ManifestResponse struct {
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
}

type StatusResponse struct {
	Documents   int                      `json:"documents"`
	Chunks      int                      `json:"chunks"`
	Pending     int                      `json:"pending_ingestions"`
	Backend     string                   `json:"backend"`
	Embedder    string                   `json:"embedder"`
	LLMProvider string                   `json:"llm_provider"`
	Index       *ManifestResponse        `json:"index,omitempty"`
	Confluence  *loader.ConfluenceStatus `json:"confluence"`
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp, err := h.collect(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *StatusHandler) collect(ctx context.Context) (*StatusResponse, error) {
	stats, manifest, err := h.stats.Stats(ctx)
	if err != nil {
		return nil, err
	}

	resp := &StatusResponse{
		Documents:   stats.Documents,
		Chunks:      stats.Chunks,
		Pending:     stats.Pending,
		Backend:     h.info.Backend,
		Embedder:    h.info.Embedder,
		LLMProvider: h.info.LLMProvider,
	}
	if manifest != nil {
		resp.Index = &ManifestResponse{EmbeddingModel: manifest.EmbeddingModel, Dimensions: manifest.Dimensions}
	}
	if h.confluence != nil {
		cs := h.confluence.Status(ctx)
		resp.Confluence = &cs
	} else {
		resp.Confluence = &loader.ConfluenceStatus{Error: loader.MissingCredentialsMessage, URL: "Not set", Username: "Not set"}
	}
	return resp, nil
}

func Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}
