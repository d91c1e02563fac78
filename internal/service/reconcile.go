package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/telemetry"
)

// ReconcileService repairs the index after an interrupted ingestion.
type ReconcileService struct {
	index  Index
	minAge time.Duration
	now    func() time.Time
}

// NewReconcileService creates a new ReconcileService instance
func NewReconcileService(index Index) *ReconcileService {
	return &ReconcileService{index: index, now: time.Now}
}

// SetMinAge leaves pending records younger than d alone, so a pass running
// next to live ingestion does not roll back writes still in flight.
func (s *ReconcileService) SetMinAge(d time.Duration) {
	s.minAge = d
}

// SetClock replaces the time source (for testing).
func (s *ReconcileService) SetClock(now func() time.Time) {
	s.now = now
}

// Reconcile resolves every pending journal record, then removes chunks whose
// document is gone. A pending record whose document is stored with the
// journalled hash is committed. When the document is missing it is failed.
// When a different version is stored the record is failed and that version
// kept, since replacement never leaves a mix of the two.
func (s *ReconcileService) Reconcile(ctx context.Context) (*domain.ReconcileReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReconcileService.Reconcile", telemetry.SpanAttributes{
		Operation: "reconcile",
	})
	defer span.End()

	report := &domain.ReconcileReport{}

	pending, err := s.index.PendingIngestions(ctx)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to list pending ingestions: %w", err)
	}

	cutoff := s.now().Add(-s.minAge)
	for _, rec := range pending {
		if s.minAge > 0 && rec.CreatedAt.After(cutoff) {
			continue
		}
		doc, err := s.index.GetDocument(ctx, rec.DocumentID)
		switch {
		case err == nil && doc.ContentHash == rec.ContentHash:
			n, cerr := s.chunkCount(ctx, rec.DocumentID)
			if cerr != nil {
				return nil, cerr
			}
			if err := s.index.CompleteIngestion(ctx, rec.ID, n); err != nil {
				return nil, fmt.Errorf("failed to commit ingestion %s: %w", rec.ID, err)
			}
			report.RolledForward++
		case err == nil:
			if err := s.index.FailIngestion(ctx, rec.ID, "superseded by a different stored version"); err != nil {
				return nil, fmt.Errorf("failed to fail ingestion %s: %w", rec.ID, err)
			}
			report.RolledBack++
		case errors.Is(err, domain.ErrDocumentNotFound):
			if derr := s.index.DeleteDocument(ctx, rec.DocumentID); derr != nil && !errors.Is(derr, domain.ErrDocumentNotFound) {
				return nil, fmt.Errorf("failed to remove partial document %s: %w", rec.DocumentID, derr)
			}
			if err := s.index.FailIngestion(ctx, rec.ID, "interrupted before the document was stored"); err != nil {
				return nil, fmt.Errorf("failed to fail ingestion %s: %w", rec.ID, err)
			}
			report.RolledBack++
		default:
			span.SetError(err)
			return nil, fmt.Errorf("failed to load document %s: %w", rec.DocumentID, err)
		}
	}

	orphans, err := s.index.DeleteOrphanChunks(ctx)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to delete orphan chunks: %w", err)
	}
	report.OrphanedChunks = orphans

	if report.RolledForward+report.RolledBack+report.OrphanedChunks > 0 {
		log.Printf("reconcile: rolled forward %d, rolled back %d, removed %d orphan chunks",
			report.RolledForward, report.RolledBack, report.OrphanedChunks)
	}
	return report, nil
}

func (s *ReconcileService) chunkCount(ctx context.Context, documentID string) (int, error) {
	docs, err := s.index.ListDocuments(ctx, nil, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	for _, d := range docs {
		if d.ID == documentID {
			return d.ChunkCount, nil
		}
	}
	return 0, nil
}
