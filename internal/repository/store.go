package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/pagination"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VectorStore is the Postgres + pgvector index backend. Document and chunk
// replacement share one transaction, so a reader never sees a half-written
// document.
type VectorStore struct {
	tx        *TxRunner
	documents *DocumentRepository
	chunks    *ChunkRepository
	journal   *IngestionRepository
	manifest  *ManifestRepository
}

func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{
		tx:        NewTxRunner(pool),
		documents: NewDocumentRepository(pool),
		chunks:    NewChunkRepository(pool),
		journal:   NewIngestionRepository(pool),
		manifest:  NewManifestRepository(pool),
	}
}

func (s *VectorStore) ReplaceDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if err := domain.ValidateDocument(doc); err != nil {
		return err
	}
	for _, c := range chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("chunk %s does not belong to document %s", c.ID, doc.ID)
		}
	}

	return s.tx.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Upsert(ctx, doc); err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}
		if err := repos.Chunks().ReplaceChunks(ctx, doc.ID, chunks); err != nil {
			return fmt.Errorf("replace chunks: %w", err)
		}
		return nil
	})
}

func (s *VectorStore) DeleteDocument(ctx context.Context, id string) error {
	return s.documents.Delete(ctx, id)
}

func (s *VectorStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.documents.GetByID(ctx, id)
}

func (s *VectorStore) ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) ([]domain.DocumentSummary, error) {
	return s.documents.ListWithCursor(ctx, cursor, limit)
}

func (s *VectorStore) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	return s.chunks.Search(ctx, embedding, k)
}

func (s *VectorStore) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats
	var err error
	if stats.Documents, err = s.documents.Count(ctx); err != nil {
		return stats, err
	}
	if stats.Chunks, err = s.chunks.Count(ctx); err != nil {
		return stats, err
	}
	if stats.Pending, err = s.journal.CountPending(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *VectorStore) Manifest(ctx context.Context) (*domain.IndexManifest, error) {
	return s.manifest.Get(ctx)
}

func (s *VectorStore) SetManifest(ctx context.Context, manifest domain.IndexManifest) error {
	return s.manifest.Set(ctx, manifest)
}

func (s *VectorStore) DeleteOrphanChunks(ctx context.Context) (int, error) {
	return s.chunks.DeleteOrphans(ctx)
}

func (s *VectorStore) BeginIngestion(ctx context.Context, record *domain.IngestionRecord) error {
	if err := domain.ValidateIngestionRecord(record); err != nil {
		return err
	}
	return s.journal.Create(ctx, record)
}

func (s *VectorStore) CompleteIngestion(ctx context.Context, id string, chunkCount int) error {
	return s.journal.Finish(ctx, id, domain.IngestionStateCommitted, chunkCount, "")
}

func (s *VectorStore) FailIngestion(ctx context.Context, id string, reason string) error {
	return s.journal.Finish(ctx, id, domain.IngestionStateFailed, -1, reason)
}

func (s *VectorStore) PendingIngestions(ctx context.Context) ([]domain.IngestionRecord, error) {
	return s.journal.ListPending(ctx)
}
