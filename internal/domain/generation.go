package domain

import "context"

// Generator is the text generation contract shared by hosted and local
// backends. Single attempt per call; retries are a caller concern.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
