package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/storage"
	"github.com/cloo-solutions/docsmith/internal/telemetry"
	"github.com/google/uuid"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

var _ UUIDGenerator = (*DefaultUUIDGenerator)(nil)

// PDFLoader turns an uploaded file into a document.
type PDFLoader interface {
	Load(ctx context.Context, upload domain.Upload) (*domain.Document, error)
}

// PageFetcher loads Confluence pages.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageID string) (*domain.Document, error)
}

// ObjectStore is the optional S3-compatible archive for uploads and exports.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// IngestionService loads sources, chunks and embeds them, and writes them to
// the index behind a write-ahead journal record.
type IngestionService struct {
	index      Index
	embedder   EmbeddingClient
	pdf        PDFLoader
	confluence PageFetcher
	archive    ObjectStore
	chunkCfg   ChunkConfig
	uuidGen    UUIDGenerator
	now        func() time.Time
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(index Index, embedder EmbeddingClient, pdf PDFLoader, chunkCfg ChunkConfig) *IngestionService {
	return &IngestionService{
		index:    index,
		embedder: embedder,
		pdf:      pdf,
		chunkCfg: chunkCfg,
		uuidGen:  &DefaultUUIDGenerator{},
		now:      time.Now,
	}
}

// SetConfluence enables Confluence ingestion.
func (s *IngestionService) SetConfluence(fetcher PageFetcher) {
	s.confluence = fetcher
}

// SetArchive enables archiving of uploaded PDFs.
func (s *IngestionService) SetArchive(archive ObjectStore) {
	s.archive = archive
}

// SetUUIDGenerator replaces the journal record ID generator (for testing).
func (s *IngestionService) SetUUIDGenerator(gen UUIDGenerator) {
	s.uuidGen = gen
}

// SetClock replaces the time source (for testing).
func (s *IngestionService) SetClock(now func() time.Time) {
	s.now = now
}

// IngestPDFs loads and indexes each upload. A failing file is reported in its
// item and never stops the others.
func (s *IngestionService) IngestPDFs(ctx context.Context, uploads []domain.Upload) (*domain.BatchResult, error) {
	if len(uploads) == 0 {
		return nil, domain.ErrNoInputs
	}

	result := &domain.BatchResult{Items: make([]domain.ItemResult, 0, len(uploads))}
	for _, upload := range uploads {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		item := domain.ItemResult{Source: upload.FileName}

		doc, err := s.pdf.Load(ctx, upload)
		if err != nil {
			item.Error = err.Error()
			result.Items = append(result.Items, item)
			continue
		}
		item.DocumentID = doc.ID

		n, err := s.ingest(ctx, doc)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.OK = true
			item.Chunks = n
			s.archiveUpload(ctx, doc.ID, upload)
		}
		result.Items = append(result.Items, item)
	}

	log.Printf("ingest: pdf batch done (ok=%d failed=%d)", result.Succeeded(), result.Failed())
	return result, nil
}

// IngestConfluence fetches and indexes each page. Blank and repeated IDs are
// skipped.
func (s *IngestionService) IngestConfluence(ctx context.Context, pageIDs []string) (*domain.BatchResult, error) {
	if s.confluence == nil {
		return nil, domain.ErrConfluenceUnavailable
	}

	ids := uniqueIDs(pageIDs)
	if len(ids) == 0 {
		return nil, domain.ErrNoInputs
	}

	result := &domain.BatchResult{Items: make([]domain.ItemResult, 0, len(ids))}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		item := domain.ItemResult{Source: id, DocumentID: domain.DocumentID(domain.SourceTypeConfluence, id)}

		doc, err := s.confluence.FetchPage(ctx, id)
		if err != nil {
			item.Error = err.Error()
			result.Items = append(result.Items, item)
			continue
		}

		n, err := s.ingest(ctx, doc)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.OK = true
			item.Chunks = n
		}
		result.Items = append(result.Items, item)
	}

	log.Printf("ingest: confluence batch done (ok=%d failed=%d)", result.Succeeded(), result.Failed())
	return result, nil
}

// IngestDocument indexes an already loaded document and returns its chunk count.
func (s *IngestionService) IngestDocument(ctx context.Context, doc *domain.Document) (int, error) {
	return s.ingest(ctx, doc)
}

func (s *IngestionService) ingest(ctx context.Context, doc *domain.Document) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.ingest", telemetry.SpanAttributes{
		DocumentID: doc.ID,
		SourceType: string(doc.SourceType),
		Operation:  "ingest",
	})
	defer span.End()

	n, err := s.ingestDocument(ctx, doc)
	if err != nil {
		span.SetError(err)
		return 0, err
	}
	return n, nil
}

func (s *IngestionService) ingestDocument(ctx context.Context, doc *domain.Document) (int, error) {
	if err := domain.ValidateDocument(doc); err != nil {
		return 0, err
	}

	manifest, err := s.index.Manifest(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read index manifest: %w", err)
	}
	if manifest != nil && !manifest.Matches(s.embedder.ModelName(), s.embedder.Dimensions()) {
		return 0, domain.ErrEmbeddingSpaceMismatch
	}

	now := s.now().UTC()
	chunks := ChunkDocument(doc, s.chunkCfg, now)
	if len(chunks) == 0 {
		return 0, domain.ErrEmptyDocument
	}

	// Embed before journaling so upstream failures never leave a pending record.
	for i := range chunks {
		vec, err := s.embedder.GenerateEmbedding(ctx, chunks[i].Text)
		if err != nil {
			return 0, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "failed to generate embedding", err)
		}
		chunks[i].Embedding = vec
	}

	if manifest == nil {
		if err := s.index.SetManifest(ctx, domain.IndexManifest{
			EmbeddingModel: s.embedder.ModelName(),
			Dimensions:     s.embedder.Dimensions(),
			UpdatedAt:      now,
		}); err != nil {
			return 0, fmt.Errorf("failed to write index manifest: %w", err)
		}
	}

	record := &domain.IngestionRecord{
		ID:          s.uuidGen.NewString(),
		DocumentID:  doc.ID,
		ContentHash: doc.ContentHash,
		State:       domain.IngestionStatePending,
		CreatedAt:   now,
	}
	if err := s.index.BeginIngestion(ctx, record); err != nil {
		return 0, fmt.Errorf("failed to journal ingestion: %w", err)
	}

	if err := s.index.ReplaceDocument(ctx, doc, chunks); err != nil {
		if ferr := s.index.FailIngestion(ctx, record.ID, err.Error()); ferr != nil {
			log.Printf("ingest: failed to mark record %s failed: %v", record.ID, ferr)
		}
		return 0, fmt.Errorf("failed to write document %s: %w", doc.ID, err)
	}

	if err := s.index.CompleteIngestion(ctx, record.ID, len(chunks)); err != nil {
		// The document is in place; reconcile rolls the record forward.
		log.Printf("ingest: failed to commit record %s: %v", record.ID, err)
	}

	log.Printf("ingest: indexed %s (%d chunks)", doc.ID, len(chunks))
	return len(chunks), nil
}

func (s *IngestionService) archiveUpload(ctx context.Context, documentID string, upload domain.Upload) {
	if s.archive == nil {
		return
	}
	key := storage.UploadKey(documentID, upload.FileName)
	if err := s.archive.PutObject(ctx, key, "application/pdf", upload.Data); err != nil {
		log.Printf("ingest: failed to archive %s: %v", upload.FileName, err)
		telemetry.CaptureError(ctx, err)
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
