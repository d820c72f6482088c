package agent

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Grid layout constants. Placement is purely cosmetic and never affects
// validation or execution.
const (
	layoutNodesPerRow = 3
	layoutXSpacing    = 250.0
	layoutYSpacing    = 150.0
	layoutOriginX     = 100.0
	layoutOriginY     = 100.0
)

// Synthesize converts a Requirements record into a workflow definition: one
// node per recognized suggested type, connected as a linear chain. Unknown
// node types are silently skipped.
func Synthesize(req Requirements) *WorkflowDefinition {
	wf := &WorkflowDefinition{
		ID:          uuid.New().String(),
		Name:        req.Pattern + " Workflow",
		Description: req.UserIntent,
		Metadata: map[string]any{
			"pattern":  req.Pattern,
			"tokens":   req.Tokens,
			"features": req.Features,
		},
	}

	for _, tag := range req.SuggestedNodes {
		t := NodeType(tag)
		if !t.Valid() {
			slog.Debug("skipping unknown node type", "type", tag)
			continue
		}
		entry := nodeCatalog[t]
		wf.Nodes = append(wf.Nodes, NodeSpec{
			ID:          fmt.Sprintf("%s-%d", t, len(wf.Nodes)+1),
			Type:        t,
			Label:       entry.Label,
			Description: entry.Description,
			Params:      nodeParams(t, req),
		})
	}

	for i := 1; i < len(wf.Nodes); i++ {
		wf.Edges = append(wf.Edges, Edge{
			Source:       wf.Nodes[i-1].ID,
			Target:       wf.Nodes[i].ID,
			SourceOutput: "output",
			TargetInput:  "input",
		})
	}

	applyGridLayout(wf.Nodes)
	return wf
}

// nodeParams derives type-specific parameters from the requirements. Each type
// can only ever produce the keys listed here.
func nodeParams(t NodeType, req Requirements) map[string]any {
	params := map[string]any{}
	switch t {
	case NodeTokenSelector:
		tokens := req.Tokens
		if len(tokens) == 0 {
			tokens = append([]string(nil), defaultTokens...)
		}
		params["tokens"] = tokens
	case NodeChainSelector:
		chains := req.Chains
		if len(chains) == 0 {
			chains = []string{"ethereum"}
		}
		params["chains"] = chains
	case NodeOneInchQuote, NodeOneInchSwap:
		if req.HasFeature("slippage protection") {
			params["slippageProtection"] = true
		}
	case NodePriceImpactCalculator:
		params["warningThreshold"] = 3.0
		params["detailedAnalysis"] = true
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// applyGridLayout places nodes on a deterministic grid, 3 per row.
func applyGridLayout(nodes []NodeSpec) {
	for i := range nodes {
		row := i / layoutNodesPerRow
		col := i % layoutNodesPerRow
		nodes[i].Position = Position{
			X: layoutOriginX + float64(col)*layoutXSpacing,
			Y: layoutOriginY + float64(row)*layoutYSpacing,
		}
	}
}
