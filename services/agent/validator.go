package agent

import "fmt"

// ValidationResult reports the structural soundness of a workflow. It is a
// value, never an error, so callers can react to specific failed rules.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks that a workflow has at least one node, no duplicate node
// ids, and that every edge references existing nodes.
func Validate(wf *WorkflowDefinition) ValidationResult {
	var errs []string

	if len(wf.Nodes) == 0 {
		errs = append(errs, "workflow has no nodes")
	}

	ids := make(map[string]bool, len(wf.Nodes))
	for _, n := range wf.Nodes {
		if ids[n.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		ids[n.ID] = true
	}

	for i, e := range wf.Edges {
		if !ids[e.Source] {
			errs = append(errs, fmt.Sprintf("edge %d source %q references a missing node", i, e.Source))
		}
		if !ids[e.Target] {
			errs = append(errs, fmt.Sprintf("edge %d target %q references a missing node", i, e.Target))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
