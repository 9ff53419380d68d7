package indexer

import (
	"context"
	"strings"

	"library-backend/internal/llm"
)

// Answerer turns the best matching excerpt into an answer.
type Answerer interface {
	Answer(ctx context.Context, question, excerpt string) (string, error)
}

// PromptAnswerer asks a language model to rephrase the excerpt as an answer.
type PromptAnswerer struct {
	Model llm.Completer
}

func (p PromptAnswerer) Answer(ctx context.Context, question, excerpt string) (string, error) {
	return p.Model.Complete(ctx, llm.RewritePrompt(question, excerpt))
}

// ExcerptAnswerer returns the excerpt itself. Used when no model is configured.
type ExcerptAnswerer struct{}

func (ExcerptAnswerer) Answer(ctx context.Context, question, excerpt string) (string, error) {
	return strings.TrimSpace(excerpt), nil
}
