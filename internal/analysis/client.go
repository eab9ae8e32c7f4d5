// Package analysis wraps the external analyze-sop completion service. The
// service is optional: callers must treat any failure here as non-fatal and
// leave domain state untouched.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"opsdeck/internal/config"
)

var (
	ErrNotConfigured = errors.New("analysis service not configured")
	ErrRateLimited   = errors.New("analysis service rate limited")
	ErrQuotaExceeded = errors.New("analysis service quota exceeded")
)

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// New builds a client from config. Returns a client even when disabled;
// calls on a disabled client fail with ErrNotConfigured.
func New(cfg config.AnalysisConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(cfg.URL, "/"),
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type Request struct {
	FileName     string `json:"file_name"`
	FileContent  string `json:"file_content"`
	ExtractSteps bool   `json:"extract_steps,omitempty"`
}

// Step is one extracted instruction when extract_steps is requested.
type Step struct {
	Instruction         string `json:"instruction"`
	RequirePhoto        bool   `json:"require_photo"`
	RequireEvidenceFile bool   `json:"require_evidence_file"`
}

type Result struct {
	Analysis string `json:"analysis,omitempty"`
	Steps    []Step `json:"steps,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Analyze posts the document to the analyze-sop endpoint. 429 and 402 map
// to the typed sentinel errors; other failures surface generically.
func (c *Client) Analyze(ctx context.Context, req Request) (Result, error) {
	if c.BaseURL == "" {
		return Result{}, ErrNotConfigured
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/analyze-sop", bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	res, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("analysis request: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("analysis response: %w", err)
	}
	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return Result{}, wrapServiceError(ErrRateLimited, body)
	case http.StatusPaymentRequired:
		return Result{}, wrapServiceError(ErrQuotaExceeded, body)
	default:
		return Result{}, fmt.Errorf("analysis service returned %d", res.StatusCode)
	}
	var out Result
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("decode analysis result: %w", err)
	}
	if out.Analysis == "" && len(out.Steps) == 0 {
		return Result{}, fmt.Errorf("analysis service returned empty result")
	}
	return out, nil
}

func wrapServiceError(sentinel error, body []byte) error {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		return fmt.Errorf("%w: %s", sentinel, eb.Error)
	}
	return sentinel
}
