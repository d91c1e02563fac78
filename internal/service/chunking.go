package service

import (
	"strings"
	"time"
	"unicode"

	"github.com/cloo-solutions/docsmith/internal/domain"
)

// ChunkConfig controls how documents are split before embedding.
type ChunkConfig struct {
	MaxChars  int
	MinChars  int
	Overlap   int
	MaxChunks int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:  500,
		MinChars:  250,
		Overlap:   100,
		MaxChunks: 200,
	}
}

// NewChunkConfig builds a config from a window size and overlap, keeping the
// remaining defaults.
func NewChunkConfig(size, overlap int) ChunkConfig {
	cfg := DefaultChunkConfig()
	if size > 0 {
		cfg.MaxChars = size
		cfg.MinChars = size / 2
	}
	switch {
	case overlap >= 0 && overlap < cfg.MaxChars:
		cfg.Overlap = overlap
	case cfg.Overlap >= cfg.MaxChars:
		cfg.Overlap = cfg.MaxChars / 5
	}
	return cfg
}

// ChunkDocument splits each page of doc separately and numbers the chunks
// across the whole document. Page numbers are recorded for multi-page sources.
func ChunkDocument(doc *domain.Document, cfg ChunkConfig, now time.Time) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(doc.Pages))
	for p, page := range doc.Pages {
		remaining := 0
		if cfg.MaxChunks > 0 {
			remaining = cfg.MaxChunks - len(chunks)
			if remaining <= 0 {
				break
			}
		}
		pageCfg := cfg
		pageCfg.MaxChunks = remaining

		pageNum := 0
		if doc.SourceType == domain.SourceTypePDF {
			pageNum = p + 1
		}

		for _, text := range chunkText(page, pageCfg) {
			idx := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:         domain.ChunkID(doc.ID, idx),
				DocumentID: doc.ID,
				Index:      idx,
				Page:       pageNum,
				Title:      doc.Title,
				SourceType: doc.SourceType,
				URL:        doc.URL,
				Text:       text,
				CreatedAt:  now,
			})
		}
	}
	return chunks
}

func chunkText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			break
		}

		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 {
			if end-start > cfg.Overlap {
				nextStart = end - cfg.Overlap
			}
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}
