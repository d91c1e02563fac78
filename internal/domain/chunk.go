package domain

import (
	"fmt"
	"time"
)

// Chunk is a bounded span of document text, the unit of embedding and retrieval.
// Chunks are owned by the vector index and replaced wholesale on re-ingestion.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Page       int // 1-based PDF page, 0 when not applicable
	Title      string
	SourceType SourceType
	URL        string
	Text       string
	Embedding  []float32
	CreatedAt  time.Time
}

// ChunkID builds a chunk identifier from its parent document and position.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s#%d", documentID, index)
}

// ScoredChunk pairs a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// QueryResult is the ephemeral output of a similarity query.
type QueryResult struct {
	Query   string
	K       int
	Results []ScoredChunk
}

// IndexManifest records the embedding space an index was built with.
type IndexManifest struct {
	EmbeddingModel string
	Dimensions     int
	UpdatedAt      time.Time
}

// Matches reports whether the manifest describes the given embedding space.
func (m *IndexManifest) Matches(model string, dimensions int) bool {
	return m.EmbeddingModel == model && m.Dimensions == dimensions
}

// IndexStats summarises the contents of a vector index.
type IndexStats struct {
	Documents int
	Chunks    int
	Pending   int
}
