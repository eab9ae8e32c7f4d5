package opsdecksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Opsdeck HTTP API client.
type Client struct {
	BaseURL    string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// SOP represents the API SOP model (partial).
type SOP struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Format         string `json:"format"`
	Owner          string `json:"owner"`
	CurrentVersion string `json:"current_version"`
	Status         string `json:"status"`
	EffectiveDate  string `json:"effective_date,omitempty"`
}

// Module represents a work module plus its derived KPI numbers.
type Module struct {
	Module struct {
		ID           string `json:"id"`
		DepartmentID string `json:"department_id"`
		Name         string `json:"name"`
		Owner        string `json:"owner"`
		RiskLevel    string `json:"risk_level"`
	} `json:"module"`
	TaskCount int     `json:"task_count"`
	KpiScore  float64 `json:"kpi_score"`
	RagStatus string  `json:"rag_status"`
}

// Task represents a work task plus its derived control status.
type Task struct {
	ID            string   `json:"id"`
	ModuleID      string   `json:"module_id"`
	Name          string   `json:"name"`
	Status        string   `json:"status"`
	LinkedSopIDs  []string `json:"linked_sop_ids,omitempty"`
	ControlStatus string   `json:"control_status"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateSop creates a SOP in draft at v0.1.
func (c *Client) CreateSop(ctx context.Context, title, owner string) (SOP, error) {
	body := map[string]any{
		"title": title,
		"owner": owner,
	}
	var resp SOP
	err := c.do(ctx, http.MethodPost, "v0/sops", body, &resp)
	return resp, err
}

// TransitionSop moves a SOP to the given lifecycle status.
func (c *Client) TransitionSop(ctx context.Context, id, status string) (SOP, error) {
	body := map[string]any{"status": status}
	var resp SOP
	endpoint := fmt.Sprintf("v0/sops/%s/transition", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// CreateSopVersion cuts the next major version of a SOP.
func (c *Client) CreateSopVersion(ctx context.Context, id string) (SOP, error) {
	var resp SOP
	endpoint := fmt.Sprintf("v0/sops/%s/versions", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// ListSops lists SOPs, optionally filtered by status.
func (c *Client) ListSops(ctx context.Context, status string) ([]SOP, error) {
	endpoint := "v0/sops"
	if status != "" {
		endpoint = fmt.Sprintf("%s?status=%s", endpoint, url.QueryEscape(status))
	}
	var resp []SOP
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ListModules lists modules with their KPI scores.
func (c *Client) ListModules(ctx context.Context, departmentID string) ([]Module, error) {
	endpoint := "v0/modules"
	if departmentID != "" {
		endpoint = fmt.Sprintf("%s?department_id=%s", endpoint, url.QueryEscape(departmentID))
	}
	var resp []Module
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreateTask creates a work task in a module.
func (c *Client) CreateTask(ctx context.Context, moduleID, name string) (Task, error) {
	body := map[string]any{
		"module_id": moduleID,
		"name":      name,
	}
	var resp Task
	err := c.do(ctx, http.MethodPost, "v0/tasks", body, &resp)
	return resp, err
}

// LinkSops replaces a task's linked SOP set.
func (c *Client) LinkSops(ctx context.Context, taskID string, sopIDs []string) (Task, error) {
	body := map[string]any{"linked_sop_ids": sopIDs}
	var resp Task
	endpoint := fmt.Sprintf("v0/tasks/%s", url.PathEscape(taskID))
	err := c.do(ctx, http.MethodPatch, endpoint, body, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
