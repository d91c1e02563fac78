package llm

import (
	"context"
	"strings"
)

// ChatCompleter is the subset of the OpenAI client used for drafting.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, error)
	ChatModel() string
}

// OpenAI drafts sections with OpenAI chat completions.
type OpenAI struct {
	chat ChatCompleter
}

// NewOpenAI creates an OpenAI-backed Client.
func NewOpenAI(chat ChatCompleter) *OpenAI {
	return &OpenAI{chat: chat}
}

func (o *OpenAI) Name() string {
	return "openai:" + o.chat.ChatModel()
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}
	out, err := o.chat.ChatCompletion(ctx, req.System, req.Prompt, req.MaxTokens, req.Temperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
