// Package memory implements an in-process vector index persisted as a JSON
// snapshot. Search is brute-force cosine similarity.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/pagination"
)

// SnapshotFile is the file name of the snapshot inside the index directory.
const SnapshotFile = "index.json"

const snapshotVersion = 1

var (
	// ErrDimensionMismatch is returned when vectors of different sizes are mixed
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

type snapshot struct {
	Version   int                                `json:"version"`
	Manifest  *domain.IndexManifest              `json:"manifest,omitempty"`
	Documents map[string]*domain.Document        `json:"documents"`
	Chunks    map[string][]domain.Chunk          `json:"chunks"`
	Journal   map[string]*domain.IngestionRecord `json:"journal"`
}

// Store keeps documents, chunks and the ingestion journal in memory and writes
// the whole state to disk after every mutation. The mutex only guards memory
// safety; concurrent ingestion of the same document is last-writer-wins.
type Store struct {
	mu   sync.RWMutex
	path string
	data snapshot
	now  func() time.Time
}

// Open loads the snapshot in dir, creating an empty index when none exists.
// An empty dir keeps the index purely in memory.
func Open(dir string) (*Store, error) {
	s := &Store{data: emptySnapshot(), now: time.Now}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	s.path = filepath.Join(dir, SnapshotFile)

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Documents == nil {
		snap.Documents = map[string]*domain.Document{}
	}
	if snap.Chunks == nil {
		snap.Chunks = map[string][]domain.Chunk{}
	}
	if snap.Journal == nil {
		snap.Journal = map[string]*domain.IngestionRecord{}
	}
	s.data = snap
	return s, nil
}

func emptySnapshot() snapshot {
	return snapshot{
		Version:   snapshotVersion,
		Documents: map[string]*domain.Document{},
		Chunks:    map[string][]domain.Chunk{},
		Journal:   map[string]*domain.IngestionRecord{},
	}
}

// Path returns the snapshot location, empty for an in-memory index.
func (s *Store) Path() string {
	return s.path
}

// ReplaceDocument swaps doc and its chunks in a single snapshot write.
func (s *Store) ReplaceDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateDocument(doc); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := 0
	if s.data.Manifest != nil {
		dim = s.data.Manifest.Dimensions
	}
	for _, c := range chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("chunk %s does not belong to document %s", c.ID, doc.ID)
		}
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim {
			return ErrDimensionMismatch
		}
	}

	prevDoc, hadDoc := s.data.Documents[doc.ID]
	prevChunks, hadChunks := s.data.Chunks[doc.ID]

	docCopy := *doc
	s.data.Documents[doc.ID] = &docCopy
	s.data.Chunks[doc.ID] = append([]domain.Chunk(nil), chunks...)

	if err := s.persistLocked(); err != nil {
		if hadDoc {
			s.data.Documents[doc.ID] = prevDoc
		} else {
			delete(s.data.Documents, doc.ID)
		}
		if hadChunks {
			s.data.Chunks[doc.ID] = prevChunks
		} else {
			delete(s.data.Chunks, doc.ID)
		}
		return err
	}
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hasDoc := s.data.Documents[id]
	_, hasChunks := s.data.Chunks[id]
	if !hasDoc && !hasChunks {
		return domain.ErrDocumentNotFound
	}
	delete(s.data.Documents, id)
	delete(s.data.Chunks, id)
	return s.persistLocked()
}

// GetDocument returns a copy of the stored document.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data.Documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	out := *doc
	out.Pages = append([]string(nil), doc.Pages...)
	return &out, nil
}

// ListDocuments returns documents newest first, ties broken by ID.
func (s *Store) ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) ([]domain.DocumentSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]domain.DocumentSummary, 0, len(s.data.Documents))
	for id, doc := range s.data.Documents {
		all = append(all, doc.Summary(len(s.data.Chunks[id])))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].RetrievedAt.Equal(all[j].RetrievedAt) {
			return all[i].RetrievedAt.After(all[j].RetrievedAt)
		}
		return all[i].ID < all[j].ID
	})

	out := make([]domain.DocumentSummary, 0, len(all))
	for _, d := range all {
		if !cursor.Follows(d.ID, d.RetrievedAt) {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

// Search scores every chunk against embedding and returns the k best, highest
// first. Equal scores are ordered by chunk ID so results are stable.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	s.mu.RLock()
	scored := make([]domain.ScoredChunk, 0)
	for docID, chunks := range s.data.Chunks {
		if _, ok := s.data.Documents[docID]; !ok {
			continue
		}
		for _, c := range chunks {
			if len(c.Embedding) != len(embedding) {
				s.mu.RUnlock()
				return nil, ErrDimensionMismatch
			}
			scored = append(scored, domain.ScoredChunk{Chunk: c, Score: CosineSimilarity(embedding, c.Embedding)})
		}
	}
	s.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Stats counts documents, chunks and pending journal records.
func (s *Store) Stats(ctx context.Context) (domain.IndexStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.IndexStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.IndexStats{Documents: len(s.data.Documents)}
	for _, chunks := range s.data.Chunks {
		stats.Chunks += len(chunks)
	}
	for _, rec := range s.data.Journal {
		if rec.State == domain.IngestionStatePending {
			stats.Pending++
		}
	}
	return stats, nil
}

// Manifest returns the embedding space of the index, or nil for a fresh index.
func (s *Store) Manifest(ctx context.Context) (*domain.IndexManifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Manifest == nil {
		return nil, nil
	}
	m := *s.data.Manifest
	return &m, nil
}

// SetManifest records the embedding space of the index.
func (s *Store) SetManifest(ctx context.Context, manifest domain.IndexManifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.Manifest
	if manifest.UpdatedAt.IsZero() {
		manifest.UpdatedAt = s.now().UTC()
	}
	s.data.Manifest = &manifest
	if err := s.persistLocked(); err != nil {
		s.data.Manifest = prev
		return err
	}
	return nil
}

// DeleteOrphanChunks drops chunk sets whose document is missing.
func (s *Store) DeleteOrphanChunks(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for docID, chunks := range s.data.Chunks {
		if _, ok := s.data.Documents[docID]; ok {
			continue
		}
		removed += len(chunks)
		delete(s.data.Chunks, docID)
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistLocked()
}

// BeginIngestion writes a pending journal record.
func (s *Store) BeginIngestion(ctx context.Context, record *domain.IngestionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.ValidateIngestionRecord(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *record
	s.data.Journal[rec.ID] = &rec
	if err := s.persistLocked(); err != nil {
		delete(s.data.Journal, rec.ID)
		return err
	}
	return nil
}

// CompleteIngestion marks a journal record committed.
func (s *Store) CompleteIngestion(ctx context.Context, id string, chunkCount int) error {
	return s.finish(ctx, id, domain.IngestionStateCommitted, chunkCount, "")
}

// FailIngestion marks a journal record failed.
func (s *Store) FailIngestion(ctx context.Context, id string, reason string) error {
	return s.finish(ctx, id, domain.IngestionStateFailed, -1, reason)
}

func (s *Store) finish(ctx context.Context, id string, state domain.IngestionState, chunkCount int, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Journal[id]
	if !ok {
		return domain.ErrIngestionNotFound
	}
	prev := *rec
	now := s.now().UTC()
	rec.State = state
	rec.Error = reason
	rec.CompletedAt = &now
	if chunkCount >= 0 {
		rec.ChunkCount = chunkCount
	}
	if err := s.persistLocked(); err != nil {
		*rec = prev
		return err
	}
	return nil
}

// PendingIngestions lists records that were begun but never finished, oldest first.
func (s *Store) PendingIngestions(ctx context.Context) ([]domain.IngestionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.IngestionRecord, 0)
	for _, rec := range s.data.Journal {
		if rec.State == domain.IngestionStatePending {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// persistLocked writes the snapshot to a temp file and renames it over the
// previous one. Callers hold the write lock.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), SnapshotFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, 0 when
// either is a zero vector or the lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
