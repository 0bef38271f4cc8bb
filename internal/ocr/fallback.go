// Package ocr recovers text from documentation screenshots without ever
// stalling or failing an ingestion run.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/internal/telemetry"
	"erp-helpdesk-assistant/utils"
)

// DefaultTimeout bounds one fetch plus recognition.
const DefaultTimeout = 5 * time.Second

// maxImageBytes caps how much of a response body is read.
const maxImageBytes = 10 << 20

// Recognizer turns image bytes into text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// RecoveryError wraps any failure while recovering text from one image.
type RecoveryError struct {
	URL   string
	Stage string
	Err   error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("ocr %s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

// Fallback fetches an image URL and recognizes it under a hard timeout.
type Fallback struct {
	Recognizer Recognizer
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxWidth   int
	Metrics    *telemetry.Metrics
}

func NewFallback(r Recognizer, timeout time.Duration, maxWidth int, metrics *telemetry.Metrics) *Fallback {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fallback{
		Recognizer: r,
		HTTPClient: &http.Client{},
		Timeout:    timeout,
		MaxWidth:   maxWidth,
		Metrics:    metrics,
	}
}

// RecoverText returns the recognized text, or "" when recovery fails.
func (f *Fallback) RecoverText(ctx context.Context, imageURL string) string {
	text, err := f.Recover(ctx, imageURL)
	var rerr *RecoveryError
	if errors.As(err, &rerr) {
		logger.Debug("Image text recovery failed", "url", imageURL, "stage", rerr.Stage, "error", rerr.Err)
		f.Metrics.RecordOCRAttempt(ctx, false)
		return ""
	}
	f.Metrics.RecordOCRAttempt(ctx, text != "")
	return text
}

// Recover is RecoverText with the failure reported. Every error it returns
// is a *RecoveryError.
func (f *Fallback) Recover(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	data, err := f.fetch(ctx, imageURL)
	if err != nil {
		return "", &RecoveryError{URL: imageURL, Stage: "fetch", Err: err}
	}

	prepared, err := utils.PrepareForOCR(data, f.MaxWidth)
	if err != nil {
		return "", &RecoveryError{URL: imageURL, Stage: "decode", Err: err}
	}

	text, err := f.Recognizer.Recognize(ctx, prepared)
	if err != nil {
		return "", &RecoveryError{URL: imageURL, Stage: "recognize", Err: err}
	}
	return strings.TrimSpace(text), nil
}

func (f *Fallback) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !utils.IsValidImageType(ct) && !strings.HasPrefix(ct, "application/octet-stream") {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}
