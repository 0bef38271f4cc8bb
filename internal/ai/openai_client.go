package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// openAIMaxStops is the completions API limit; Ollama accepts more.
const openAIMaxStops = 4

// OpenAIClient speaks the OpenAI wire protocol. Pointed at Ollama's /v1
// endpoint it serves local models such as phi3:mini.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
	maxStops       int
}

// NewOpenAIClient builds a client for api.openai.com, or for baseURL when set.
func NewOpenAIClient(apiKey, model, embeddingModel, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(config),
		model:          model,
		embeddingModel: embeddingModel,
		maxStops:       openAIMaxStops,
	}
}

// NewOllamaClient targets an Ollama server's OpenAI-compatible API.
func NewOllamaClient(baseURL, model, embeddingModel string) *OpenAIClient {
	c := NewOpenAIClient("ollama", model, embeddingModel, strings.TrimSuffix(baseURL, "/")+"/v1")
	c.maxStops = 0
	return c
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, span := otel.Tracer("openai-client").Start(ctx, "llm.completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.max_tokens", opts.MaxTokens),
	)

	stops := opts.Stop
	if c.maxStops > 0 && len(stops) > c.maxStops {
		stops = stops[:c.maxStops]
	}

	resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Stop:        stops,
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("llm.error", true))
		return "", fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Text, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data")
	}
	return resp.Data[0].Embedding, nil
}
