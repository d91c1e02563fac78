package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/docsmith/internal/api"
	"github.com/cloo-solutions/docsmith/internal/domain"
)

type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (*domain.QueryResult, error)
}

type SearchHandler struct {
	retriever Retriever
}

func NewSearchHandler(retriever Retriever) *SearchHandler {
	return &SearchHandler{retriever: retriever}
}

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type SearchHit struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	SourceType string  `json:"source_type"`
	Page       int     `json:"page,omitempty"`
	URL        string  `json:"url,omitempty"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

type SearchResponse struct {
	Query   string      `json:"query"`
	K       int         `json:"k"`
	Results []SearchHit `json:"results"`
}

func queryResultToResponse(res *domain.QueryResult) *SearchResponse {
	resp := &SearchResponse{
		Query:   res.Query,
		K:       res.K,
		Results: make([]SearchHit, 0, len(res.Results)),
	}
	for _, r := range res.Results {
		resp.Results = append(resp.Results, SearchHit{
			ChunkID:    r.Chunk.ID,
			DocumentID: r.Chunk.DocumentID,
			Title:      r.Chunk.Title,
			SourceType: string(r.Chunk.SourceType),
			Page:       r.Chunk.Page,
			URL:        r.Chunk.URL,
			Text:       r.Chunk.Text,
			Score:      r.Score,
		})
	}
	return resp
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.retriever.Retrieve(r.Context(), req.Query, req.K)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, queryResultToResponse(res))
}
