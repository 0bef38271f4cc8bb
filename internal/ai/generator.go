package ai

import "context"

// GenerateOptions are the sampling constraints for one generation call.
type GenerateOptions struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
	Stop        []string
}

// Generator produces text from a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Embedder maps text to a fixed-length vector. The same model must be used
// for indexing and for queries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
