package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxExcerptRunes = 600

// Extractive drafts a section offline by quoting the retrieved excerpts. It is
// the fallback when no hosted model is configured.
type Extractive struct{}

// NewExtractive creates an Extractive client.
func NewExtractive() *Extractive {
	return &Extractive{}
}

func (e *Extractive) Name() string {
	return "extractive"
}

func (e *Extractive) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.Excerpts) == 0 {
		if strings.TrimSpace(req.Prompt) == "" {
			return "", ErrEmptyPrompt
		}
		return "", fmt.Errorf("extractive drafting needs at least one excerpt")
	}

	var sb strings.Builder
	heading := req.Heading
	if heading == "" {
		heading = "this section"
	}
	fmt.Fprintf(&sb, "The following material from the knowledge base is relevant to %s:\n\n", strings.ToLower(heading))
	for _, ex := range req.Excerpts {
		text := collapse(ex.Text)
		if utf8.RuneCountInString(text) > maxExcerptRunes {
			text = string([]rune(text)[:maxExcerptRunes]) + "..."
		}
		fmt.Fprintf(&sb, "- %s %s\n", ex.Label, text)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
