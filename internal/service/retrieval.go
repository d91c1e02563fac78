package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/telemetry"
)

const (
	DefaultTopK = 5
	MaxTopK     = 50
)

// RetrievalService answers similarity queries over the index.
type RetrievalService struct {
	index    IndexStore
	embedder EmbeddingClient
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(index IndexStore, embedder EmbeddingClient) *RetrievalService {
	return &RetrievalService{
		index:    index,
		embedder: embedder,
	}
}

// ClampK applies the default to a non-positive k and caps it at MaxTopK.
func ClampK(k int) int {
	switch {
	case k <= 0:
		return DefaultTopK
	case k > MaxTopK:
		return MaxTopK
	default:
		return k
	}
}

// Retrieve embeds query and returns at most k chunks in non-increasing score
// order. Overlapping chunks of the same document are not merged.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) (*domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	k = ClampK(k)

	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		Operation: "retrieve",
	})
	defer span.End()

	result := &domain.QueryResult{Query: query, K: k, Results: []domain.ScoredChunk{}}

	manifest, err := s.index.Manifest(ctx)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to read index manifest: %w", err)
	}
	if manifest == nil {
		// Nothing has been indexed yet.
		return result, nil
	}
	if !manifest.Matches(s.embedder.ModelName(), s.embedder.Dimensions()) {
		return nil, domain.ErrEmbeddingSpaceMismatch
	}

	vec, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "failed to embed query", err)
	}

	hits, err := s.index.Search(ctx, vec, k)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	result.Results = hits
	return result, nil
}
