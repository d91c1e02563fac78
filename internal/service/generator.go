package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/llm"
	"github.com/cloo-solutions/docsmith/internal/telemetry"
)

const (
	DefaultSectionTopK = 4
	defaultMaxTokens   = 800
	defaultTemperature = 0.3
	maxTitleRunes      = 80
)

// NoContextNote is the body of a section for which nothing was retrieved.
const NoContextNote = "_No supporting context was found in the knowledge base for this section._"

// Retriever answers similarity queries.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (*domain.QueryResult, error)
}

// GenerateRequest asks for a design document.
type GenerateRequest struct {
	Title   string
	Request string
	// K overrides the per-section retrieval depth when positive.
	K int
}

// GeneratorService drafts design documents section by section from retrieved
// context.
type GeneratorService struct {
	retriever   Retriever
	llm         llm.Client
	template    *DocumentTemplate
	topK        int
	maxTokens   int
	temperature float32
	now         func() time.Time
}

// NewGeneratorService creates a new GeneratorService instance
func NewGeneratorService(retriever Retriever, client llm.Client, tmpl *DocumentTemplate, topK int) *GeneratorService {
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}
	if topK <= 0 {
		topK = DefaultSectionTopK
	}
	return &GeneratorService{
		retriever:   retriever,
		llm:         client,
		template:    tmpl,
		topK:        topK,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		now:         time.Now,
	}
}

// SetGenerationParams overrides the token limit and sampling temperature.
func (s *GeneratorService) SetGenerationParams(maxTokens int, temperature float32) {
	if maxTokens > 0 {
		s.maxTokens = maxTokens
	}
	if temperature >= 0 {
		s.temperature = temperature
	}
}

// SetClock replaces the time source (for testing).
func (s *GeneratorService) SetClock(now func() time.Time) {
	s.now = now
}

// Provider returns the name of the LLM backend.
func (s *GeneratorService) Provider() string {
	return s.llm.Name()
}

// Template returns the section template in use.
func (s *GeneratorService) Template() *DocumentTemplate {
	return s.template
}

// Generate drafts every template section in order. A failing section records
// its error and the rest still generate.
func (s *GeneratorService) Generate(ctx context.Context, req GenerateRequest) (*domain.GeneratedDocument, error) {
	request := strings.TrimSpace(req.Request)
	if request == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "request cannot be empty")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = truncateRunes(request, maxTitleRunes)
	}
	k := s.topK
	if req.K > 0 {
		k = ClampK(req.K)
	}

	ctx, span := telemetry.StartSpan(ctx, "GeneratorService.Generate", telemetry.SpanAttributes{
		Provider:  s.llm.Name(),
		Operation: "generate",
	})
	defer span.End()

	doc := &domain.GeneratedDocument{
		Title:       title,
		Request:     request,
		GeneratedAt: s.now().UTC(),
		Sections:    make([]domain.Section, 0, len(s.template.Sections)),
		Provider:    s.llm.Name(),
	}
	sources := newSourceSet()

	for _, spec := range s.template.Sections {
		if err := ctx.Err(); err != nil {
			span.SetError(err)
			return nil, err
		}
		if spec.Assembled {
			continue
		}
		doc.Sections = append(doc.Sections, s.generateSection(ctx, title, request, spec, k, sources))
	}

	doc.Sources = sources.list()

	// Assembled sections go back into template order once all sources are known.
	out := make([]domain.Section, 0, len(s.template.Sections))
	next := 0
	for _, spec := range s.template.Sections {
		if spec.Assembled {
			out = append(out, domain.Section{
				Key:     spec.Key,
				Heading: spec.Heading,
				Body:    renderReferences(doc.Sources),
			})
			continue
		}
		out = append(out, doc.Sections[next])
		next++
	}
	doc.Sections = out

	if failed := doc.FailedSections(); len(failed) > 0 {
		log.Printf("generate: %q finished with %d failed sections: %s", title, len(failed), strings.Join(failed, ", "))
	}
	return doc, nil
}

func (s *GeneratorService) generateSection(ctx context.Context, title, request string, spec domain.SectionSpec, k int, sources *sourceSet) domain.Section {
	ctx, span := telemetry.StartSpan(ctx, "GeneratorService.section", telemetry.SpanAttributes{
		Section:   spec.Key,
		Provider:  s.llm.Name(),
		Operation: "generate_section",
	})
	defer span.End()

	section := domain.Section{Key: spec.Key, Heading: spec.Heading}

	res, err := s.retriever.Retrieve(ctx, request+" "+spec.Topic, k)
	if err != nil {
		span.SetError(err)
		return failSection(section, err)
	}
	if len(res.Results) == 0 {
		section.Body = NoContextNote
		return section
	}

	excerpts := make([]llm.Excerpt, 0, len(res.Results))
	for i, hit := range res.Results {
		excerpts = append(excerpts, llm.Excerpt{
			Label: fmt.Sprintf("[%d]", i+1),
			Text:  hit.Chunk.Text,
		})
		section.ChunkIDs = append(section.ChunkIDs, hit.Chunk.ID)
	}

	body, err := s.llm.Complete(ctx, llm.Request{
		System:      s.template.SystemPrompt,
		Prompt:      buildSectionPrompt(title, request, spec, res.Results),
		Heading:     spec.Heading,
		Excerpts:    excerpts,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		span.SetError(err)
		return failSection(section, err)
	}

	for _, hit := range res.Results {
		sources.add(hit)
	}
	section.Body = strings.TrimSpace(body)
	return section
}

func failSection(section domain.Section, err error) domain.Section {
	section.Error = err.Error()
	section.Body = fmt.Sprintf("_This section could not be generated: %s_", err.Error())
	return section
}

func buildSectionPrompt(title, request string, spec domain.SectionSpec, hits []domain.ScoredChunk) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Design document: %s\n", title)
	fmt.Fprintf(&sb, "Request: %s\n", request)
	fmt.Fprintf(&sb, "Section: %s\n\n", spec.Heading)
	sb.WriteString("Context excerpts:\n")
	for i, hit := range hits {
		fmt.Fprintf(&sb, "[%d] (%s", i+1, hit.Chunk.Title)
		if hit.Chunk.Page > 0 {
			fmt.Fprintf(&sb, ", page %d", hit.Chunk.Page)
		}
		fmt.Fprintf(&sb, ")\n%s\n\n", strings.TrimSpace(hit.Chunk.Text))
	}
	fmt.Fprintf(&sb, "Write the %q section.", spec.Heading)
	return sb.String()
}

func renderReferences(sources []domain.SourceRef) string {
	if len(sources) == 0 {
		return "_No sources were retrieved for this document._"
	}
	var sb strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&sb, "%d. %s (%s", i+1, src.Title, src.SourceType)
		if src.Page > 0 {
			fmt.Fprintf(&sb, ", page %d", src.Page)
		}
		fmt.Fprintf(&sb, ", relevance %.2f)", src.Score)
		if src.URL != "" {
			fmt.Fprintf(&sb, " - %s", src.URL)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// sourceSet keeps one reference per document, with its best-scoring chunk.
type sourceSet struct {
	byDoc map[string]*domain.SourceRef
}

func newSourceSet() *sourceSet {
	return &sourceSet{byDoc: make(map[string]*domain.SourceRef)}
}

func (s *sourceSet) add(hit domain.ScoredChunk) {
	c := hit.Chunk
	if cur, ok := s.byDoc[c.DocumentID]; ok {
		if hit.Score > cur.Score {
			cur.Score = hit.Score
			cur.Page = c.Page
		}
		return
	}
	s.byDoc[c.DocumentID] = &domain.SourceRef{
		DocumentID: c.DocumentID,
		Title:      c.Title,
		SourceType: c.SourceType,
		URL:        c.URL,
		Page:       c.Page,
		Score:      hit.Score,
	}
}

func (s *sourceSet) list() []domain.SourceRef {
	out := make([]domain.SourceRef, 0, len(s.byDoc))
	for _, ref := range s.byDoc {
		out = append(out, *ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
