package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	payload, err := c.Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", payload["status"])
}

func TestClient_ExecuteWorkflow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/workflows/execute", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "workflow")
		execCtx, ok := body["context"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "test", execCtx["environment"])

		json.NewEncoder(w).Encode(map[string]string{"executionId": "exec-42"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	id, err := c.ExecuteWorkflow(context.Background(), Synthesize(swapRequirements()))

	require.NoError(t, err)
	assert.Equal(t, "exec-42", id)
}

func TestClient_ExecuteWorkflow_MissingExecutionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.ExecuteWorkflow(context.Background(), Synthesize(swapRequirements()))

	assert.Error(t, err)
}

func TestClient_ExecutionStatus_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	payload, err := c.ExecutionStatus(context.Background(), "missing-exec")

	require.NoError(t, err)
	assert.Equal(t, "not_found", payload["status"])
	assert.Equal(t, "execution missing-exec not found", payload["error"])
}

func TestClient_ExecutionStatus_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.ExecutionStatus(context.Background(), "exec-1")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestClient_ExecutionLogs_FailureYieldsMessage(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)

	logs := c.ExecutionLogs(context.Background(), "exec-1")

	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "failed to retrieve logs")
}

func TestClient_ExecutionLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/executions/exec-1/logs", r.URL.Path)
		json.NewEncoder(w).Encode(map[string][]string{"logs": {"step one done", "step two done"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	logs := c.ExecutionLogs(context.Background(), "exec-1")

	assert.Equal(t, []string{"step one done", "step two done"}, logs)
}

func TestClient_CancelExecution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/executions/exec-1/cancel", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	assert.True(t, c.CancelExecution(context.Background(), "exec-1"))
}

func TestClient_CancelExecution_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)
	assert.False(t, c.CancelExecution(context.Background(), "exec-1"))
}

func TestClient_SupportedNodes_Fallback(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)

	nodes := c.SupportedNodes(context.Background())

	assert.Equal(t, KnownNodeTypes(), nodes)
}

func TestClient_ConnectionError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0)

	_, err := c.Health(context.Background())

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "http://127.0.0.1:1", connErr.URL)
	assert.NotNil(t, errors.Unwrap(connErr))
}

func TestClient_CloseThenReuse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	_, err := c.Health(context.Background())
	require.NoError(t, err)

	c.Close()

	_, err = c.Health(context.Background())
	assert.NoError(t, err)
}

func TestNewClient_Timeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, NewClient("http://localhost:3001", 5*time.Second).timeout)
	assert.Equal(t, 30*time.Second, NewClient("http://localhost:3001", 0).timeout)
	assert.Equal(t, 5*time.Second, NewClient("http://localhost:3001", 5*time.Second).client().Timeout)
}
