// Package llm provides the text generation backends used to draft design
// document sections.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyPrompt is returned when a request carries no prompt.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// Excerpt is a numbered piece of retrieved context.
type Excerpt struct {
	Label string
	Text  string
}

// Request is a single section drafting call.
type Request struct {
	System      string
	Prompt      string
	Heading     string
	Excerpts    []Excerpt
	MaxTokens   int
	Temperature float32
}

// Client generates text for a request. Implementations make at most one
// upstream call per Complete and never retry.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}
