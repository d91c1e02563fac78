package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SourceType represents where a document was loaded from
type SourceType string

const (
	SourceTypePDF        SourceType = "pdf"
	SourceTypeConfluence SourceType = "confluence"
)

// Document is a plain-text record loaded from a PDF file or a Confluence page.
// It is immutable once ingested and superseded by re-ingestion under the same ID.
type Document struct {
	ID          string
	SourceType  SourceType
	SourceRef   string // file name or Confluence page ID
	Title       string
	Pages       []string
	URL         string
	SpaceKey    string
	ContentHash string
	RetrievedAt time.Time
}

// Upload is a PDF file received from a user.
type Upload struct {
	FileName string
	Data     []byte
}

// DocumentID builds the stable identifier for a source. Re-ingesting the same
// source yields the same ID.
func DocumentID(sourceType SourceType, ref string) string {
	return string(sourceType) + ":" + ref
}

// NewDocument creates a Document and computes its content hash.
func NewDocument(sourceType SourceType, ref, title string, pages []string, retrievedAt time.Time) *Document {
	d := &Document{
		ID:          DocumentID(sourceType, ref),
		SourceType:  sourceType,
		SourceRef:   ref,
		Title:       title,
		Pages:       pages,
		RetrievedAt: retrievedAt,
	}
	d.ContentHash = HashText(d.Text())
	return d
}

// Text returns the full document text.
func (d *Document) Text() string {
	return strings.Join(d.Pages, "\n\n")
}

// PageCount returns the number of pages (1 for Confluence).
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// HashText returns the hex-encoded sha256 of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if !IsValidSourceType(d.SourceType) {
		return fmt.Errorf("document SourceType is invalid: %s", d.SourceType)
	}

	if strings.TrimSpace(d.Text()) == "" {
		return ErrEmptyDocument
	}

	return nil
}

// IsValidSourceType checks if a SourceType is valid
func IsValidSourceType(t SourceType) bool {
	switch t {
	case SourceTypePDF, SourceTypeConfluence:
		return true
	}
	return false
}

// DocumentSummary is the listing view of an indexed document.
type DocumentSummary struct {
	ID          string
	SourceType  SourceType
	Title       string
	URL         string
	SpaceKey    string
	PageCount   int
	ChunkCount  int
	ContentHash string
	RetrievedAt time.Time
}

// Summary builds the listing view of d.
func (d *Document) Summary(chunkCount int) DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		SourceType:  d.SourceType,
		Title:       d.Title,
		URL:         d.URL,
		SpaceKey:    d.SpaceKey,
		PageCount:   d.PageCount(),
		ChunkCount:  chunkCount,
		ContentHash: d.ContentHash,
		RetrievedAt: d.RetrievedAt,
	}
}
