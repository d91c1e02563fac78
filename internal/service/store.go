package service

import (
	"context"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/pagination"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Dimensions() int
}

// IndexStore is the vector index together with the documents it was built from.
// ReplaceDocument swaps a document and all of its chunks in one step.
type IndexStore interface {
	ReplaceDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error
	DeleteDocument(ctx context.Context, id string) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) ([]domain.DocumentSummary, error)
	Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error)
	Stats(ctx context.Context) (domain.IndexStats, error)
	Manifest(ctx context.Context) (*domain.IndexManifest, error)
	SetManifest(ctx context.Context, manifest domain.IndexManifest) error
	DeleteOrphanChunks(ctx context.Context) (int, error)
}

// IngestionJournal is the write-ahead record of index mutations.
type IngestionJournal interface {
	BeginIngestion(ctx context.Context, record *domain.IngestionRecord) error
	CompleteIngestion(ctx context.Context, id string, chunkCount int) error
	FailIngestion(ctx context.Context, id string, reason string) error
	PendingIngestions(ctx context.Context) ([]domain.IngestionRecord, error)
}

// Index is implemented by every vector index backend.
type Index interface {
	IndexStore
	IngestionJournal
}
