package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Observation kinds emitted while polling.
const (
	ObservePending = "pending"
	ObserveStep    = "step"
	ObserveWarning = "warning"
	ObserveStatus  = "status"
)

// Observation is one progress report emitted during a polling session.
type Observation struct {
	ExecutionID string
	Kind        string
	StepID      string
	NodeType    string
	Status      ExecState
	Duration    time.Duration
	Message     string
}

// TimeoutError reports that an execution did not finish within the allowed
// time. The remote execution has already been cancelled (best effort) when
// this error is returned.
type TimeoutError struct {
	ExecutionID string
	Elapsed     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("execution %s did not complete within %s", e.ExecutionID, e.Elapsed.Round(time.Millisecond))
}

// Monitor polls the execution engine for the state of one submitted workflow,
// normalizing the engine's status payload shapes before any state-dependent
// logic runs. One Monitor serves one execution at a time.
type Monitor struct {
	gateway Gateway
	observe func(Observation)
	unit    time.Duration
}

// NewMonitor creates a Monitor. A nil observer logs observations via slog.
func NewMonitor(gateway Gateway, observe func(Observation)) *Monitor {
	if observe == nil {
		observe = logObservation
	}
	return &Monitor{gateway: gateway, observe: observe, unit: time.Second}
}

// pollDelay returns the number of wait units before the next poll for a
// non-terminal state.
func pollDelay(s ExecState) float64 {
	switch s {
	case StatusRunning, StatusPending:
		return 1
	case StatusUnknown:
		return 2
	default:
		return 0.5
	}
}

// Watch polls until the execution reaches a terminal state or ctx is done,
// emitting step-level progress along the way.
func (m *Monitor) Watch(ctx context.Context, executionID string) (ExecutionStatus, error) {
	for {
		payload, err := m.gateway.ExecutionStatus(ctx, executionID)
		if err != nil {
			return ExecutionStatus{ExecutionID: executionID, Status: StatusUnknown}, err
		}

		status := normalizeStatus(executionID, payload)
		switch {
		case status.Status.Terminal():
			return status, nil
		case status.Status == StatusRunning:
			m.emitStepProgress(status)
		case status.Status == StatusPending:
			m.observe(Observation{ExecutionID: executionID, Kind: ObservePending, Status: StatusPending, Message: "execution pending"})
		case status.Status == StatusUnknown:
			m.observe(Observation{ExecutionID: executionID, Kind: ObserveWarning, Status: StatusUnknown, Message: "unrecognized status payload"})
		default:
			// not_found and any other unexpected status string.
			m.observe(Observation{ExecutionID: executionID, Kind: ObserveStatus, Status: status.Status, Message: "status " + string(status.Status)})
		}

		if err := m.wait(ctx, time.Duration(pollDelay(status.Status)*float64(m.unit))); err != nil {
			return status, err
		}
	}
}

// WaitForCompletion polls at pollInterval until the execution reaches a
// terminal state. On timeout it cancels the remote execution exactly once
// before returning a TimeoutError, so timed-out work is never left orphaned
// on the engine.
func (m *Monitor) WaitForCompletion(ctx context.Context, executionID string, timeout, pollInterval time.Duration) (ExecutionStatus, error) {
	slog.Info("waiting for execution completion", "executionId", executionID, "timeout", timeout)
	start := time.Now()

	for {
		payload, err := m.gateway.ExecutionStatus(ctx, executionID)
		if err != nil {
			return ExecutionStatus{ExecutionID: executionID, Status: StatusUnknown}, err
		}

		status := normalizeStatus(executionID, payload)
		if status.Status.Terminal() {
			slog.Info("execution finished", "executionId", executionID, "status", status.Status)
			return status, nil
		}

		if elapsed := time.Since(start); elapsed > timeout {
			slog.Warn("execution wait timeout", "executionId", executionID, "elapsed", elapsed)
			m.gateway.CancelExecution(ctx, executionID)
			return status, &TimeoutError{ExecutionID: executionID, Elapsed: elapsed}
		}

		if err := m.wait(ctx, pollInterval); err != nil {
			return status, err
		}
	}
}

// emitStepProgress reports every step that is running, completed or failed.
// Step ids are sorted so observation order is stable.
func (m *Monitor) emitStepProgress(status ExecutionStatus) {
	ids := make([]string, 0, len(status.Steps))
	for id := range status.Steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		step := status.Steps[id]
		switch step.Status {
		case StatusRunning, StatusCompleted, StatusFailed:
			var d time.Duration
			if step.StartTime != 0 && step.EndTime != 0 {
				d = time.Duration(step.EndTime-step.StartTime) * time.Millisecond
				if d < 0 {
					d = 0
				}
			}
			m.observe(Observation{
				ExecutionID: status.ExecutionID,
				Kind:        ObserveStep,
				StepID:      id,
				NodeType:    step.NodeType,
				Status:      step.Status,
				Duration:    d,
			})
		}
	}
}

func (m *Monitor) wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// normalizeStatus flattens the engine's two status payload shapes into one
// record: either status/steps/startTime/endTime at top level, or an execution
// sub-record with a sibling steps field. A payload matching neither shape,
// or an empty payload, normalizes to StatusUnknown.
func normalizeStatus(executionID string, payload map[string]any) ExecutionStatus {
	status := ExecutionStatus{ExecutionID: executionID, Status: StatusUnknown}
	if len(payload) == 0 {
		return status
	}

	var rawStatus any
	if v, ok := payload["status"]; ok {
		rawStatus = v
		status.StartTime = toMillis(payload["startTime"])
		status.EndTime = toMillis(payload["endTime"])
	} else if exec, ok := payload["execution"].(map[string]any); ok {
		rawStatus = exec["status"]
		status.StartTime = toMillis(exec["startTime"])
		status.EndTime = toMillis(exec["endTime"])
	} else {
		return status
	}

	if s, ok := rawStatus.(string); ok && s != "" {
		status.Status = ExecState(s)
	}
	status.Steps = normalizeSteps(payload["steps"])
	if msg, ok := payload["error"].(string); ok {
		status.Error = msg
	}
	return status
}

func normalizeSteps(raw any) map[string]StepStatus {
	stepsMap, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	steps := make(map[string]StepStatus, len(stepsMap))
	for id, v := range stepsMap {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		nodeType, _ := m["nodeType"].(string)
		s, _ := m["status"].(string)
		steps[id] = StepStatus{
			NodeType:  nodeType,
			Status:    ExecState(s),
			StartTime: toMillis(m["startTime"]),
			EndTime:   toMillis(m["endTime"]),
		}
	}
	return steps
}

// toMillis converts a JSON-decoded timestamp to epoch milliseconds.
func toMillis(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func logObservation(o Observation) {
	switch o.Kind {
	case ObserveStep:
		slog.Info("step progress", "executionId", o.ExecutionID, "step", o.StepID, "nodeType", o.NodeType, "status", o.Status, "duration", o.Duration)
	case ObserveWarning:
		slog.Warn(o.Message, "executionId", o.ExecutionID)
	default:
		slog.Info(o.Message, "executionId", o.ExecutionID, "status", o.Status)
	}
}
