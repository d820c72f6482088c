package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Sentinel errors surfaced by Approve and WatchExecution.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNoWorkflow           = errors.New("no workflow to approve")
	ErrNoExecution          = errors.New("no execution to watch")
)

// Service wires the classifier, synthesizer, validator, backend gateway and
// conversation store for the agent domain.
type Service struct {
	classifier *Classifier
	gateway    Gateway
	store      ContextStore
}

// NewService creates a Service. The analyzer may be nil to run with the
// deterministic classifier only.
func NewService(gateway Gateway, analyzer Analyzer, store ContextStore) *Service {
	return &Service{
		classifier: NewClassifier(analyzer),
		gateway:    gateway,
		store:      store,
	}
}

// CheckBackend pings the execution engine once. Failure only logs a warning;
// the service continues in a degraded, execution-less mode.
func (s *Service) CheckBackend(ctx context.Context) {
	if _, err := s.gateway.Health(ctx); err != nil {
		slog.Warn("backend health check failed, continuing without execution support", "error", err)
		return
	}
	slog.Info("backend health check succeeded")
}

// ProcessResult is the outcome of one conversational turn.
type ProcessResult struct {
	ConversationID string              `json:"conversationId"`
	Message        string              `json:"message"`
	Requirements   Requirements        `json:"requirements"`
	Workflow       *WorkflowDefinition `json:"workflow,omitempty"`
	Suggestions    []string            `json:"suggestions"`
	NeedsApproval  bool                `json:"needsApproval"`
}

// Process classifies one user request within its conversation context and,
// for workflow requests, synthesizes and validates a workflow definition.
// Partial results are never returned: any pipeline failure is an error.
func (s *Service) Process(ctx context.Context, text, conversationID string) (*ProcessResult, error) {
	if conversationID == "" {
		conversationID = uuid.New().String()
	}
	conv, ok := s.store.Get(conversationID)
	if !ok {
		conv = &Conversation{ID: conversationID}
	}
	conv.History = append(conv.History, Turn{Role: "user", Content: text, Timestamp: time.Now().UTC()})

	req := s.classifier.Classify(ctx, text, conv.History)
	conv.LastRequirements = &req

	slog.Debug("classified request", "conversationId", conversationID, "pattern", req.Pattern, "nodes", len(req.SuggestedNodes))

	if req.Conversational() {
		reply := conversationalReply(text)
		conv.History = append(conv.History, Turn{Role: "assistant", Content: reply, Timestamp: time.Now().UTC()})
		s.store.Put(conv)
		return &ProcessResult{
			ConversationID: conversationID,
			Message:        reply,
			Requirements:   req,
			Suggestions:    conversationalSuggestions,
		}, nil
	}

	wf := Synthesize(req)
	if result := Validate(wf); !result.Valid {
		return nil, fmt.Errorf("synthesized workflow failed validation: %s", strings.Join(result.Errors, "; "))
	}
	conv.LastWorkflow = wf

	msg := fmt.Sprintf("I've analyzed your request and created a %s workflow with %d nodes.", req.Pattern, len(wf.Nodes))
	conv.History = append(conv.History, Turn{Role: "assistant", Content: msg, Timestamp: time.Now().UTC()})
	s.store.Put(conv)

	return &ProcessResult{
		ConversationID: conversationID,
		Message:        msg,
		Requirements:   req,
		Workflow:       wf,
		Suggestions:    workflowSuggestions,
		NeedsApproval:  true,
	}, nil
}

// ApproveResult is the outcome of submitting a pending workflow.
type ApproveResult struct {
	Message      string              `json:"message"`
	ExecutionID  string              `json:"executionId,omitempty"`
	Workflow     *WorkflowDefinition `json:"workflow"`
	BackendError string              `json:"backendError,omitempty"`
}

// Approve submits the conversation's pending workflow to the execution engine.
// A backend failure still returns the workflow, with the failure detail.
func (s *Service) Approve(ctx context.Context, conversationID string) (*ApproveResult, error) {
	conv, ok := s.store.Get(conversationID)
	if !ok {
		return nil, ErrConversationNotFound
	}
	if conv.LastWorkflow == nil {
		return nil, ErrNoWorkflow
	}

	executionID, err := s.gateway.ExecuteWorkflow(ctx, conv.LastWorkflow)
	if err != nil {
		slog.Error("workflow execution failed", "conversationId", conversationID, "error", err)
		return &ApproveResult{
			Message:      "Workflow approved for canvas generation (backend execution failed)",
			Workflow:     conv.LastWorkflow,
			BackendError: err.Error(),
		}, nil
	}

	conv.ExecutionID = executionID
	s.store.Put(conv)

	return &ApproveResult{
		Message:     "Workflow approved and execution started",
		ExecutionID: executionID,
		Workflow:    conv.LastWorkflow,
	}, nil
}

// WatchExecution streams progress for the conversation's approved execution
// until it reaches a terminal state, emitting each Observation to observe.
// A non-positive timeout or unit means the monitor defaults. On timeout the
// remote execution is cancelled once and a TimeoutError is returned.
func (s *Service) WatchExecution(ctx context.Context, conversationID string, timeout, unit time.Duration, observe func(Observation)) (ExecutionStatus, error) {
	conv, ok := s.store.Get(conversationID)
	if !ok {
		return ExecutionStatus{}, ErrConversationNotFound
	}
	if conv.ExecutionID == "" {
		return ExecutionStatus{}, ErrNoExecution
	}

	m := NewMonitor(s.gateway, observe)
	if unit > 0 {
		m.unit = unit
	}

	watchCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		watchCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	status, err := m.Watch(watchCtx, conv.ExecutionID)
	if timeout > 0 && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		slog.Warn("execution watch timeout", "executionId", conv.ExecutionID, "timeout", timeout)
		s.gateway.CancelExecution(ctx, conv.ExecutionID)
		return status, &TimeoutError{ExecutionID: conv.ExecutionID, Elapsed: time.Since(start)}
	}
	return status, err
}

// jsonMiddleware sets the Content-Type header to application/json.
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// LoadRoutes registers agent HTTP handlers on the given router.
func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	router := parentRouter.PathPrefix("/agent").Subrouter()
	router.StrictSlash(false)
	router.Use(jsonMiddleware)

	router.HandleFunc("/process", s.HandleProcess).Methods("POST")
	router.HandleFunc("/approve", s.HandleApprove).Methods("POST")
	router.HandleFunc("/executions/{id}", s.HandleExecutionStatus).Methods("GET")
	router.HandleFunc("/executions/{id}/logs", s.HandleExecutionLogs).Methods("GET")
	router.HandleFunc("/nodes", s.HandleNodes).Methods("GET")
}
