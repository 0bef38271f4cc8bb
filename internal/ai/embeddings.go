package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleEmbedder uses Google Generative AI embeddings (text-embedding-004
// by default).
type GoogleEmbedder struct {
	client *genai.Client
	model  string
}

func NewGoogleEmbedder(ctx context.Context, apiKey, model string) (*GoogleEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleEmbedder{client: client, model: model}, nil
}

func (g *GoogleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.EmbeddingModel(g.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

func (g *GoogleEmbedder) Close() error {
	return g.client.Close()
}

// TimeoutEmbedder bounds every call of the wrapped embedder.
type TimeoutEmbedder struct {
	Embedder
	Timeout time.Duration
}

func (t TimeoutEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if t.Timeout <= 0 {
		return t.Embedder.Embed(ctx, text)
	}
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()
	return t.Embedder.Embed(ctx, text)
}
