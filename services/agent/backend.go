package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Gateway is the remote workflow execution engine, reached over a fixed HTTP
// contract.
type Gateway interface {
	Health(ctx context.Context) (map[string]any, error)
	ExecuteWorkflow(ctx context.Context, wf *WorkflowDefinition) (string, error)
	ExecutionStatus(ctx context.Context, executionID string) (map[string]any, error)
	ExecutionLogs(ctx context.Context, executionID string) []string
	CancelExecution(ctx context.Context, executionID string) bool
	SupportedNodes(ctx context.Context) []NodeType
}

// ConnectionError indicates the execution engine could not be reached at all,
// as opposed to answering with a bad HTTP status.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to backend at %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StatusError carries a non-2xx response from the execution engine.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

// Client talks to the execution engine's REST API. The underlying HTTP client
// is constructed lazily and reused across sequential requests; Close releases
// its pooled connections.
type Client struct {
	baseURL string
	timeout time.Duration

	mu         sync.Mutex
	httpClient *http.Client
}

// NewClient creates a Client for the engine at baseURL. A non-positive
// timeout means the default of 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c.httpClient
}

// Close releases pooled connections. The client remains usable afterwards; a
// later request lazily constructs a fresh HTTP client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
}

// doJSON performs one round trip, decoding a JSON response into out when out
// is non-nil. Transport failures become ConnectionError, non-2xx responses
// become StatusError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return &ConnectionError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode backend response: %w", err)
		}
	}
	return nil
}

// Health checks whether the engine is up. Callers treat failures as non-fatal.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var payload map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

type executeRequest struct {
	Workflow *WorkflowDefinition `json:"workflow"`
	Context  map[string]any      `json:"context"`
}

// ExecuteWorkflow submits a workflow for execution and returns the execution id.
func (c *Client) ExecuteWorkflow(ctx context.Context, wf *WorkflowDefinition) (string, error) {
	slog.Info("executing workflow", "workflowId", wf.ID, "nodes", len(wf.Nodes), "edges", len(wf.Edges))

	var out struct {
		ExecutionID string `json:"executionId"`
	}
	body := executeRequest{Workflow: wf, Context: map[string]any{"environment": "test"}}
	if err := c.doJSON(ctx, http.MethodPost, "/api/workflows/execute", body, &out); err != nil {
		return "", err
	}
	if out.ExecutionID == "" {
		return "", fmt.Errorf("backend did not return an execution id")
	}

	slog.Info("workflow execution started", "executionId", out.ExecutionID)
	return out.ExecutionID, nil
}

// ExecutionStatus fetches the raw status payload for an execution. HTTP 404 is
// mapped to a not_found payload rather than an error.
func (c *Client) ExecutionStatus(ctx context.Context, executionID string) (map[string]any, error) {
	var payload map[string]any
	err := c.doJSON(ctx, http.MethodGet, "/api/executions/"+executionID, nil, &payload)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		slog.Warn("execution not found", "executionId", executionID)
		return map[string]any{
			"status": string(StatusNotFound),
			"error":  fmt.Sprintf("execution %s not found", executionID),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// ExecutionLogs fetches the log lines for an execution. On failure it returns
// a one-element slice describing the failure instead of an error.
func (c *Client) ExecutionLogs(ctx context.Context, executionID string) []string {
	var out struct {
		Logs []string `json:"logs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/executions/"+executionID+"/logs", nil, &out); err != nil {
		slog.Error("failed to get execution logs", "executionId", executionID, "error", err)
		return []string{fmt.Sprintf("failed to retrieve logs: %v", err)}
	}
	return out.Logs
}

// CancelExecution asks the engine to cancel a running execution.
func (c *Client) CancelExecution(ctx context.Context, executionID string) bool {
	slog.Info("cancelling execution", "executionId", executionID)

	var out struct {
		Success bool `json:"success"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/executions/"+executionID+"/cancel", nil, &out); err != nil {
		slog.Error("failed to cancel execution", "executionId", executionID, "error", err)
		return false
	}
	if !out.Success {
		slog.Warn("execution cancellation refused", "executionId", executionID)
	}
	return out.Success
}

// SupportedNodes fetches the engine's node-type catalog, falling back to the
// fixed closed set when the engine is unreachable.
func (c *Client) SupportedNodes(ctx context.Context) []NodeType {
	var out struct {
		NodeTypes []NodeType `json:"nodeTypes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/nodes", nil, &out); err != nil {
		slog.Error("failed to get supported nodes, using offline catalog", "error", err)
		return KnownNodeTypes()
	}
	return out.NodeTypes
}
