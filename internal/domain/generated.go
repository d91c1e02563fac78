package domain

import "time"

// SectionSpec describes one named section of the design document template.
type SectionSpec struct {
	Key     string `yaml:"key"`
	Heading string `yaml:"heading"`
	Topic   string `yaml:"topic"`
	// Assembled sections are built from the sources of the other sections
	// instead of a model call.
	Assembled bool `yaml:"assembled"`
}

// Section is a generated section of a design document.
type Section struct {
	Key      string
	Heading  string
	Body     string
	ChunkIDs []string
	Error    string
}

// SourceRef attributes retrieved context to its origin.
type SourceRef struct {
	DocumentID string
	Title      string
	SourceType SourceType
	URL        string
	Page       int
	Score      float32
}

// GeneratedDocument is the ephemeral output of the document generator.
type GeneratedDocument struct {
	Title       string
	Request     string
	GeneratedAt time.Time
	Sections    []Section
	Sources     []SourceRef
	Provider    string
}

// ContentTypes returns the distinct source types referenced, in first-seen order.
func (g *GeneratedDocument) ContentTypes() []string {
	seen := make(map[SourceType]bool)
	var out []string
	for _, s := range g.Sources {
		if seen[s.SourceType] {
			continue
		}
		seen[s.SourceType] = true
		out = append(out, string(s.SourceType))
	}
	return out
}

// FailedSections returns the keys of sections whose generation failed.
func (g *GeneratedDocument) FailedSections() []string {
	var out []string
	for _, s := range g.Sections {
		if s.Error != "" {
			out = append(out, s.Key)
		}
	}
	return out
}
