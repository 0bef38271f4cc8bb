// Package helpdesk talks to the ERP help-desk documentation API.
package helpdesk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"erp-helpdesk-assistant/internal/config"

	"github.com/tidwall/gjson"
)

const (
	moduleListFlag = "GetPMInstituteModuleList"
	demoPointsFlag = "HelpDeskGetModuleWiseDemoPointList"
)

// Client calls the two help-desk endpoints: module listing and per-module
// demo point listing. Both are multipart POSTs with a base64 JSON data field.
type Client struct {
	apiURL       string
	httpClient   *http.Client
	listTimeout  time.Duration
	fetchTimeout time.Duration
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiURL:       cfg.HelpDeskAPIURL,
		httpClient:   &http.Client{},
		listTimeout:  cfg.ModuleListTimeout,
		fetchTimeout: cfg.ModuleFetchTimeout,
	}
}

// ListModules fetches and normalizes the module listing. The listing may sit
// under a top-level "data" member or be the whole body.
func (c *Client) ListModules(ctx context.Context) ([]SourceModule, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	resp, err := c.post(ctx, moduleListFlag, map[string]string{})
	if err != nil {
		return nil, fmt.Errorf("module listing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("module listing returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read module listing: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("module listing is not valid JSON")
	}

	res := gjson.ParseBytes(body)
	raw := res
	if res.IsObject() {
		if data := res.Get("data"); data.Exists() {
			raw = data
		}
	}

	return NormalizeModules(raw), nil
}

// FetchDemoPoints returns the raw demo point payload for one module. Every
// failure except cancellation of ctx itself is a *PartialModuleError.
func (c *Client) FetchDemoPoints(ctx context.Context, moduleID string) (gjson.Result, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	resp, err := c.post(fetchCtx, demoPointsFlag, map[string]string{"moduleId": moduleID})
	if err != nil {
		if ctx.Err() != nil {
			return gjson.Result{}, ctx.Err()
		}
		return gjson.Result{}, &PartialModuleError{ModuleID: moduleID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, &PartialModuleError{ModuleID: moduleID, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return gjson.Result{}, ctx.Err()
		}
		return gjson.Result{}, &PartialModuleError{ModuleID: moduleID, Err: err}
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &PartialModuleError{ModuleID: moduleID, Err: fmt.Errorf("invalid JSON body")}
	}

	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return gjson.Result{}, &PartialModuleError{ModuleID: moduleID, Err: fmt.Errorf("unexpected payload type %s", res.Type)}
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, flag string, payload any) (*http.Response, error) {
	data, err := encodeData(payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField(flag, "true"); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("data", data); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.httpClient.Do(req)
}

// encodeData renders the payload as base64-encoded JSON, the format the
// help-desk API expects in its "data" field.
func encodeData(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
