package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/ledongthuc/pdf"
)

// minPageChars is the shortest page text kept as-is. Shorter pages (scanned
// images, blank separators) get a placeholder so page numbering survives.
const minPageChars = 10

var (
	// ErrNotPDF is returned when an upload is not a PDF file
	ErrNotPDF = errors.New("file is not a PDF")
	// ErrEmptyFile is returned when an upload has no content
	ErrEmptyFile = errors.New("file is empty")
)

// TextExtractor returns the plain text of every page of a PDF.
type TextExtractor interface {
	ExtractPages(data []byte) ([]string, error)
}

// PDFExtractor extracts text with github.com/ledongthuc/pdf.
type PDFExtractor struct{}

// ExtractPages implements TextExtractor.
func (PDFExtractor) ExtractPages(data []byte) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// PDFLoader turns uploaded PDF files into documents.
type PDFLoader struct {
	extractor TextExtractor
	now       func() time.Time
}

// NewPDFLoader creates a PDFLoader using the default extractor.
func NewPDFLoader() *PDFLoader {
	return NewPDFLoaderWithExtractor(PDFExtractor{})
}

// NewPDFLoaderWithExtractor creates a PDFLoader with a custom extractor.
func NewPDFLoaderWithExtractor(extractor TextExtractor) *PDFLoader {
	return &PDFLoader{extractor: extractor, now: time.Now}
}

// Load extracts the upload's text. The document ID is derived from the base
// file name, so uploading the same file again replaces the earlier version.
func (l *PDFLoader) Load(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := filepath.Base(strings.TrimSpace(upload.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, domain.ErrMissingRequiredField
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, ErrNotPDF
	}
	if len(upload.Data) == 0 {
		return nil, ErrEmptyFile
	}

	raw, err := l.extractor.ExtractPages(upload.Data)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSuffix(name, filepath.Ext(name))
	pages := make([]string, len(raw))
	meaningful := 0
	for i, text := range raw {
		text = normalizeSpace(text)
		if utf8.RuneCountInString(text) < minPageChars {
			pages[i] = fmt.Sprintf("Content from %s - Page %d", title, i+1)
			continue
		}
		pages[i] = text
		meaningful++
	}
	if meaningful == 0 {
		return nil, domain.ErrEmptyDocument
	}

	return domain.NewDocument(domain.SourceTypePDF, name, title, pages, l.now().UTC()), nil
}

// normalizeSpace collapses runs of spaces and tabs and trims each line.
func normalizeSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
