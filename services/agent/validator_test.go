package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SynthesizedWorkflowIsValid(t *testing.T) {
	wf := Synthesize(swapRequirements())

	result := Validate(wf)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_NoNodes(t *testing.T) {
	result := Validate(&WorkflowDefinition{ID: "wf-1"})

	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, "workflow has no nodes")
}

func TestValidate_DuplicateNodeIDs(t *testing.T) {
	wf := &WorkflowDefinition{
		Nodes: []NodeSpec{
			{ID: "a", Type: NodeWalletConnector},
			{ID: "a", Type: NodeTokenSelector},
		},
	}

	result := Validate(wf)

	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, `duplicate node id "a"`)
}

func TestValidate_DanglingEdge(t *testing.T) {
	wf := &WorkflowDefinition{
		Nodes: []NodeSpec{{ID: "a", Type: NodeWalletConnector}},
		Edges: []Edge{{Source: "a", Target: "ghost"}},
	}

	result := Validate(wf)

	require.False(t, result.Valid)
	assert.Contains(t, result.Errors, `edge 0 target "ghost" references a missing node`)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	wf := &WorkflowDefinition{
		Edges: []Edge{{Source: "x", Target: "y"}},
	}

	result := Validate(wf)

	require.False(t, result.Valid)
	assert.Len(t, result.Errors, 3)
}
