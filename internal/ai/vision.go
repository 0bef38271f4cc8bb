package ai

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
)

const visionPrompt = "Transcribe all readable text in this software screenshot. " +
	"Return only the text, one line per visual line, with no commentary."

// Recognize transcribes the text in a PNG screenshot using the Gemini
// vision model. It shares the client's quota and circuit breaker.
func (gc *GeminiClient) Recognize(ctx context.Context, image []byte) (string, error) {
	if !gc.tokenCounter.CanConsume(estimateTokens(visionPrompt)+258, 1) {
		return "", ErrRateLimited
	}
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.model)
		model.SetTemperature(0)

		resp, err := model.GenerateContent(ctx, genai.ImageData("png", image), genai.Text(visionPrompt))
		if err != nil {
			return nil, err
		}
		gc.tokenCounter.RecordUsage(extractTokenUsage(resp), 1)
		return responseText(resp), nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	return strings.TrimSpace(result.(string)), nil
}
