package domain

import (
	"fmt"
	"time"
)

// IngestionState represents the lifecycle of a write-ahead ingestion record
type IngestionState string

const (
	IngestionStatePending   IngestionState = "pending"
	IngestionStateCommitted IngestionState = "committed"
	IngestionStateFailed    IngestionState = "failed"
)

// IngestionRecord is written before a document's chunks touch the index and
// completed afterwards. A record left pending marks a possibly partial write.
type IngestionRecord struct {
	ID          string
	DocumentID  string
	ContentHash string
	State       IngestionState
	ChunkCount  int
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// ValidateIngestionRecord validates an IngestionRecord instance
func ValidateIngestionRecord(r *IngestionRecord) error {
	if r == nil {
		return fmt.Errorf("ingestion record cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("ingestion record ID is required")
	}

	if r.DocumentID == "" {
		return fmt.Errorf("ingestion record DocumentID is required")
	}

	switch r.State {
	case IngestionStatePending, IngestionStateCommitted, IngestionStateFailed:
	default:
		return fmt.Errorf("ingestion record State is invalid: %s", r.State)
	}

	if r.ChunkCount < 0 {
		return fmt.Errorf("ingestion record ChunkCount cannot be negative")
	}

	return nil
}

// ItemResult reports the outcome of ingesting a single source.
type ItemResult struct {
	Source     string
	DocumentID string
	OK         bool
	Chunks     int
	Error      string
}

// BatchResult reports per-item outcomes. One failed item never aborts the batch.
type BatchResult struct {
	Items []ItemResult
}

// Succeeded returns the number of successful items.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, it := range b.Items {
		if it.OK {
			n++
		}
	}
	return n
}

// Failed returns the number of failed items.
func (b *BatchResult) Failed() int {
	return len(b.Items) - b.Succeeded()
}

// ReconcileReport summarises a consistency pass over the index.
type ReconcileReport struct {
	RolledForward  int
	RolledBack     int
	OrphanedChunks int
}
