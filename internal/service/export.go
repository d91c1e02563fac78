package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/storage"
)

const maxSafeTitleRunes = 30

// ExportResult describes where an exported document was written.
type ExportResult struct {
	FileName    string `json:"file_name"`
	Path        string `json:"path,omitempty"`
	Key         string `json:"key,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// ExportService writes rendered design documents to disk and, when
// configured, to object storage.
type ExportService struct {
	dir     string
	objects ObjectStore
}

// NewExportService creates a new ExportService instance. An empty dir skips the
// local copy.
func NewExportService(dir string, objects ObjectStore) *ExportService {
	return &ExportService{dir: dir, objects: objects}
}

// ExportFileName builds <safe_title>_<YYYYmmdd_HHMMSS>.md. The title keeps
// letters, digits, spaces, dashes and underscores, with spaces turned into
// underscores, cut to 30 characters.
func ExportFileName(title string, at time.Time) string {
	var sb strings.Builder
	n := 0
	for _, r := range title {
		if n >= maxSafeTitleRunes {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		default:
			continue
		}
		n++
	}
	safe := sb.String()
	if safe == "" {
		safe = "design_doc"
	}
	return fmt.Sprintf("%s_%s.md", safe, at.Format("20060102_150405"))
}

// Save renders doc and stores it. At least one destination must be configured.
func (s *ExportService) Save(ctx context.Context, doc *domain.GeneratedDocument) (*ExportResult, error) {
	if s.dir == "" && s.objects == nil {
		return nil, domain.ErrExportNotConfigured
	}

	content := []byte(RenderMarkdown(doc))
	result := &ExportResult{FileName: ExportFileName(doc.Title, doc.GeneratedAt)}

	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export dir: %w", err)
		}
		path := filepath.Join(s.dir, result.FileName)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write export: %w", err)
		}
		result.Path = path
	}

	if s.objects != nil {
		key := storage.ExportKey(result.FileName)
		if err := s.objects.PutObject(ctx, key, "text/markdown; charset=utf-8", content); err != nil {
			return nil, fmt.Errorf("failed to upload export: %w", err)
		}
		result.Key = key

		url, err := s.objects.GenerateDownloadURL(ctx, key)
		if err != nil {
			log.Printf("export: failed to presign %s: %v", key, err)
		} else {
			result.DownloadURL = url
		}
	}

	return result, nil
}
