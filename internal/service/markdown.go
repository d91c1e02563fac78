package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docsmith/internal/domain"
)

const markdownTimeLayout = "2006-01-02 15:04:05"

// RenderMarkdown renders a generated document with its header block, numbered
// sections and metadata footer.
func RenderMarkdown(doc *domain.GeneratedDocument) string {
	ts := doc.GeneratedAt.Format(markdownTimeLayout)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", doc.Title)
	sb.WriteString("**Document Type:** Technical Design Document\n")
	fmt.Fprintf(&sb, "**Generated:** %s\n", ts)
	sb.WriteString("**Version:** 1.0\n")
	sb.WriteString("**Status:** Draft\n\n")
	sb.WriteString("---\n\n")

	for i, s := range doc.Sections {
		fmt.Fprintf(&sb, "## %d. %s\n", i+1, s.Heading)
		body := strings.TrimSpace(s.Body)
		if body == "" {
			body = NoContextNote
		}
		sb.WriteString(body)
		sb.WriteString("\n\n")
	}

	contentTypes := strings.Join(doc.ContentTypes(), ", ")
	if contentTypes == "" {
		contentTypes = "none"
	}

	sb.WriteString("---\n")
	sb.WriteString("**Document Metadata:**\n")
	fmt.Fprintf(&sb, "- Sources analyzed: %d documents\n", len(doc.Sources))
	fmt.Fprintf(&sb, "- Content types: %s\n", contentTypes)
	fmt.Fprintf(&sb, "- Generated using RAG-enhanced analysis (%s)\n", doc.Provider)
	fmt.Fprintf(&sb, "- Last updated: %s\n", ts)
	return sb.String()
}
