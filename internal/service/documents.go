package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/pagination"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// DocumentPage is one page of the document listing.
type DocumentPage = pagination.PageResult[domain.DocumentSummary]

// DocumentService exposes the documents held by the index.
type DocumentService struct {
	index IndexStore
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(index IndexStore) *DocumentService {
	return &DocumentService{index: index}
}

// List returns documents newest first. cursor is the opaque value returned by
// a previous page.
func (s *DocumentService) List(ctx context.Context, cursor string, limit int) (*DocumentPage, error) {
	cur, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	items, err := s.index.ListDocuments(ctx, cur, limit+1)
	if err != nil {
		return nil, err
	}

	page := &DocumentPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
		last := page.Items[limit-1]
		page.Cursor = pagination.EncodeCursor(last.ID, last.RetrievedAt)
	}
	return page, nil
}

// Get returns a stored document.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrMissingRequiredField
	}
	return s.index.GetDocument(ctx, id)
}

// Delete removes a document and all of its chunks.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrMissingRequiredField
	}
	return s.index.DeleteDocument(ctx, id)
}

// Stats returns index counts and the embedding space the index was built with.
func (s *DocumentService) Stats(ctx context.Context) (domain.IndexStats, *domain.IndexManifest, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, nil, err
	}
	manifest, err := s.index.Manifest(ctx)
	if err != nil {
		return domain.IndexStats{}, nil, err
	}
	return stats, manifest, nil
}
