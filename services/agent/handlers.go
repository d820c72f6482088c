package agent

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type processRequest struct {
	Request        string `json:"request"`
	ConversationID string `json:"conversationId"`
}

// HandleProcess classifies a natural-language request and returns either a
// conversational reply or a synthesized workflow awaiting approval.
func (s *Service) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		writeError(w, http.StatusBadRequest, "request is required")
		return
	}

	result, err := s.Process(r.Context(), req.Request, req.ConversationID)
	if err != nil {
		slog.Error("failed to process request", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process request: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

type approveRequest struct {
	ConversationID string `json:"conversationId"`
}

// HandleApprove submits the conversation's pending workflow for execution.
func (s *Service) HandleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.Approve(r.Context(), req.ConversationID)
	switch {
	case errors.Is(err, ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	case errors.Is(err, ErrNoWorkflow):
		writeError(w, http.StatusBadRequest, "no workflow to approve")
		return
	case err != nil:
		slog.Error("failed to approve workflow", "conversationId", req.ConversationID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// HandleExecutionStatus returns the normalized status of a remote execution.
func (s *Service) HandleExecutionStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	payload, err := s.gateway.ExecutionStatus(r.Context(), id)
	if err != nil {
		slog.Error("failed to get execution status", "executionId", id, "error", err)
		writeError(w, http.StatusBadGateway, "failed to get execution status")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(normalizeStatus(id, payload))
}

// HandleExecutionLogs returns the log lines of a remote execution.
func (s *Service) HandleExecutionLogs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string][]string{
		"logs": s.gateway.ExecutionLogs(r.Context(), id),
	})
}

// HandleNodes returns the node types the execution engine supports.
func (s *Service) HandleNodes(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string][]NodeType{
		"nodeTypes": s.gateway.SupportedNodes(r.Context()),
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
