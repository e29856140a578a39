// Package api is the HTTP client for the ScreenSage analysis and execution
// backend. One-shot analysis uploads go through here; the low-latency stream
// lives in internal/stream.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/user20357/screensage-cloud/internal/model"
)

// Client talks to the ScreenSage backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Error is a failure reported by the backend with its human-readable detail.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// StartResponse is the acknowledgment of a start-execution call.
type StartResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id"`
}

// Health is the backend health check response.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AnalyzeScreenshot uploads image data as a multipart form and returns the
// structured analysis.
func (c *Client) AnalyzeScreenshot(ctx context.Context, filename string, image []byte) (*model.AnalysisResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-screenshot", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result model.AnalysisResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis payload: %w", err)
	}
	return &result, nil
}

// CreateTask registers a task with the execution backend.
func (c *Client) CreateTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	var created model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/create-task", task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListTasks returns all tasks known to the backend.
func (c *Client) ListTasks(ctx context.Context) ([]*model.Task, error) {
	var tasks []*model.Task
	if err := c.doJSON(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// StartExecution asks the backend to begin executing a task.
func (c *Client) StartExecution(ctx context.Context, taskID string) (*StartResponse, error) {
	var ack StartResponse
	if err := c.doJSON(ctx, http.MethodPut, "/tasks/"+taskID+"/execute", nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// ExecutionStatus fetches the full remote representation of a task, including
// nested steps and execution-detail fields.
func (c *Client) ExecutionStatus(ctx context.Context, taskID string) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodGet, "/tasks/"+taskID, nil, &task); err != nil {
		return nil, err
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task payload: %w", err)
	}
	return &task, nil
}

// CancelExecution asks the backend to cancel a running execution. This is a
// documented extension; local Delete never calls it.
func (c *Client) CancelExecution(ctx context.Context, taskID string) error {
	return c.doJSON(ctx, http.MethodPost, "/tasks/"+taskID+"/cancel", nil, nil)
}

// HealthCheck probes backend availability.
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	var payload struct {
		Detail string `json:"detail"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(data, &payload) == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}
