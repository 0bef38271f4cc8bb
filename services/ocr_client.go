package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"erp-helpdesk-assistant/internal/config"
)

// OCRClient talks to a standalone OCR HTTP service (tesseract or similar)
// exposing /health and /ocr/extract.
type OCRClient struct {
	httpClient *http.Client
	baseURL    string
}

// OCRResponse represents the response from the OCR service
type OCRResponse struct {
	Success        bool    `json:"success"`
	Text           string  `json:"text"`
	ProcessingTime float64 `json:"processing_time"`
	Method         string  `json:"method"`
	Language       string  `json:"language"`
	Error          string  `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// NewOCRClient creates a new OCR client. Deadlines come from the caller's
// context, so the http.Client carries none of its own.
func NewOCRClient(cfg *config.Config) *OCRClient {
	baseURL := strings.TrimSuffix(cfg.OCRServiceURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}

	return &OCRClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

// IsHealthy checks if the OCR service is healthy
func (c *OCRClient) IsHealthy(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("OCR service unhealthy: status %d", resp.StatusCode)
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return false, fmt.Errorf("failed to decode health response: %w", err)
	}

	return healthResp.Status == "healthy", nil
}

// Recognize uploads one PNG image and returns the recognized text.
func (c *OCRClient) Recognize(ctx context.Context, image []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", "screenshot.png")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fileWriter.Write(image); err != nil {
		return "", fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr/extract", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create OCR request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("OCR request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ocrResp OCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}

	if !ocrResp.Success {
		return "", fmt.Errorf("OCR processing failed: %s", ocrResp.Error)
	}

	return strings.TrimSpace(ocrResp.Text), nil
}
