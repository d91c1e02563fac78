package service

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed templates/design_doc.yaml
var defaultTemplateYAML []byte

// SectionCount is the number of sections every design document has.
const SectionCount = 13

// DocumentTemplate is the ordered list of sections a design document is built from.
type DocumentTemplate struct {
	Name         string               `yaml:"name"`
	SystemPrompt string               `yaml:"system_prompt"`
	Sections     []domain.SectionSpec `yaml:"sections"`
}

// DefaultTemplate returns the built-in 13-section template.
func DefaultTemplate() *DocumentTemplate {
	t, err := ParseTemplate(defaultTemplateYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in template is invalid: %v", err))
	}
	return t
}

// LoadTemplate reads a template from path, or returns the built-in one when
// path is empty.
func LoadTemplate(path string) (*DocumentTemplate, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes and validates a YAML template.
func ParseTemplate(data []byte) (*DocumentTemplate, error) {
	var t DocumentTemplate
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrInvalidTemplate.Code, domain.ErrInvalidTemplate.Message, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that the template has exactly SectionCount sections with
// unique keys and headings, that model-drafted sections have a topic, and
// that at most one section is assembled.
func (t *DocumentTemplate) Validate() error {
	if len(t.Sections) != SectionCount {
		return invalidTemplate(fmt.Sprintf("template has %d sections, want %d", len(t.Sections), SectionCount))
	}
	seen := make(map[string]bool, len(t.Sections))
	assembled := 0
	for i, s := range t.Sections {
		key := strings.TrimSpace(s.Key)
		if key == "" {
			return invalidTemplate(fmt.Sprintf("section %d has no key", i+1))
		}
		if seen[key] {
			return invalidTemplate(fmt.Sprintf("duplicate section key %q", key))
		}
		seen[key] = true
		if strings.TrimSpace(s.Heading) == "" {
			return invalidTemplate(fmt.Sprintf("section %q has no heading", key))
		}
		if s.Assembled {
			assembled++
			if assembled > 1 {
				return invalidTemplate(fmt.Sprintf("section %q is a second assembled section", key))
			}
			continue
		}
		if strings.TrimSpace(s.Topic) == "" {
			return invalidTemplate(fmt.Sprintf("section %q has no topic", key))
		}
	}
	return nil
}

func invalidTemplate(reason string) error {
	return domain.NewDomainErrorWithCause(domain.ErrInvalidTemplate.Code, domain.ErrInvalidTemplate.Message, errors.New(reason))
}
