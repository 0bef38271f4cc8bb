package ai

import (
	"context"
	"fmt"
	"io"

	"erp-helpdesk-assistant/internal/config"
	"erp-helpdesk-assistant/internal/telemetry"
)

// Clients bundles the model-backed components selected by configuration.
// Closers holds whatever must be released on shutdown.
type Clients struct {
	Generator Generator
	Embedder  Embedder
	// Vision is set only when OCR_PROVIDER=gemini.
	Vision  *GeminiClient
	Closers []io.Closer
}

func (c *Clients) Close() error {
	var first error
	for _, cl := range c.Closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewClients builds the generator, embedder and optional vision model.
func NewClients(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*Clients, error) {
	out := &Clients{}
	var gemini *GeminiClient

	geminiClient := func() (*GeminiClient, error) {
		if gemini != nil {
			return gemini, nil
		}
		model := cfg.LLMModel
		if cfg.LLMProvider != "gemini" {
			model = "gemini-2.0-flash"
		}
		gc, err := NewGeminiClient(cfg.GeminiAPIKey, model, cfg.GeminiTier, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		gemini = gc
		out.Closers = append(out.Closers, gc)
		return gc, nil
	}

	switch cfg.LLMProvider {
	case "ollama":
		out.Generator = NewOllamaClient(cfg.OllamaBaseURL, cfg.LLMModel, cfg.EmbeddingsModel)
	case "openai":
		out.Generator = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.EmbeddingsModel, cfg.OpenAIBaseURL)
	case "gemini":
		gc, err := geminiClient()
		if err != nil {
			return nil, err
		}
		out.Generator = gc
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}

	var embedder Embedder
	switch cfg.EmbeddingsProvider {
	case "ollama":
		embedder = NewOllamaClient(cfg.OllamaBaseURL, cfg.LLMModel, cfg.EmbeddingsModel)
	case "openai":
		embedder = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.EmbeddingsModel, cfg.OpenAIBaseURL)
	case "google":
		ge, err := NewGoogleEmbedder(ctx, cfg.GeminiAPIKey, cfg.GoogleEmbeddingsModel)
		if err != nil {
			out.Close()
			return nil, err
		}
		out.Closers = append(out.Closers, ge)
		embedder = ge
	default:
		out.Close()
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
	out.Embedder = TimeoutEmbedder{Embedder: embedder, Timeout: cfg.EmbeddingTimeout}

	if cfg.OCREnabled && cfg.OCRProvider == "gemini" {
		gc, err := geminiClient()
		if err != nil {
			out.Close()
			return nil, err
		}
		out.Vision = gc
	}

	return out, nil
}
