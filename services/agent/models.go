package agent

// NodeType identifies one of the execution engine's node implementations.
type NodeType string

const (
	NodeWalletConnector       NodeType = "walletConnector"
	NodeTokenSelector         NodeType = "tokenSelector"
	NodeOneInchQuote          NodeType = "oneInchQuote"
	NodeOneInchSwap           NodeType = "oneInchSwap"
	NodeLimitOrder            NodeType = "limitOrder"
	NodePriceImpactCalculator NodeType = "priceImpactCalculator"
	NodeTransactionMonitor    NodeType = "transactionMonitor"
	NodeTransactionStatus     NodeType = "transactionStatus"
	NodeChainSelector         NodeType = "chainSelector"
	NodeFusionPlus            NodeType = "fusionPlus"
	NodeFusionSwap            NodeType = "fusionSwap"
	NodePortfolioAPI          NodeType = "portfolioAPI"
	NodeERC20Token            NodeType = "erc20Token"
	NodeDefiDashboard         NodeType = "defiDashboard"
)

// knownNodeTypes lists every node type the execution engine implements, in catalog order.
var knownNodeTypes = []NodeType{
	NodeWalletConnector,
	NodeTokenSelector,
	NodeOneInchQuote,
	NodeOneInchSwap,
	NodePriceImpactCalculator,
	NodeTransactionMonitor,
	NodeTransactionStatus,
	NodeChainSelector,
	NodeFusionPlus,
	NodePortfolioAPI,
	NodeLimitOrder,
	NodeFusionSwap,
	NodeERC20Token,
	NodeDefiDashboard,
}

// Valid reports whether t is part of the closed node-type set.
func (t NodeType) Valid() bool {
	_, ok := nodeCatalog[t]
	return ok
}

// KnownNodeTypes returns the closed set of node types, in catalog order.
func KnownNodeTypes() []NodeType {
	return append([]NodeType(nil), knownNodeTypes...)
}

// nodeCatalog holds the display label and description used when synthesizing
// a node of each type.
var nodeCatalog = map[NodeType]struct {
	Label       string
	Description string
}{
	NodeWalletConnector:       {"Wallet Connector", "Connect cryptocurrency wallets (MetaMask, WalletConnect)"},
	NodeTokenSelector:         {"Token Selector", "Select and configure tokens for operations"},
	NodeOneInchQuote:          {"1inch Quote", "Get optimal swap quotes using the 1inch aggregator"},
	NodeOneInchSwap:           {"1inch Swap", "Execute token swaps using the 1inch aggregator"},
	NodeLimitOrder:            {"Limit Order", "Create and manage limit orders using the 1inch Limit Order Protocol"},
	NodePriceImpactCalculator: {"Price Impact Calculator", "Calculate price impact with risk assessment"},
	NodeTransactionMonitor:    {"Transaction Monitor", "Monitor transaction status and confirmations"},
	NodeTransactionStatus:     {"Transaction Status", "Track transaction confirmations and results"},
	NodeChainSelector:         {"Chain Selector", "Select blockchain networks (Ethereum, Polygon, etc.)"},
	NodeFusionPlus:            {"Fusion+ Bridge", "Cross-chain swaps using the Fusion+ bridge"},
	NodeFusionSwap:            {"Fusion Swap", "Gasless MEV-protected swaps using Fusion"},
	NodePortfolioAPI:          {"Portfolio API", "Portfolio tracking and analytics"},
	NodeERC20Token:            {"ERC20 Token", "ERC20 token operations and management"},
	NodeDefiDashboard:         {"DeFi Dashboard", "DeFi dashboard with analytics and monitoring"},
}

// Application patterns a classified request can map to.
const (
	PatternConversational     = "conversational"
	PatternLimitOrder         = "Limit Order Application"
	PatternDEXAggregator      = "DEX Aggregator"
	PatternCrossChainBridge   = "Cross-Chain Bridge"
	PatternPortfolioDashboard = "Portfolio Dashboard"
	PatternCustomDeFi         = "Custom DeFi Application"
)

// Requirements is the normalized classification of one user request.
// Pattern == PatternConversational exactly when SuggestedNodes is empty.
type Requirements struct {
	Pattern        string   `json:"pattern"`
	Tokens         []string `json:"tokens"`
	Features       []string `json:"features"`
	Chains         []string `json:"chains"`
	UserIntent     string   `json:"user_intent"`
	SuggestedNodes []string `json:"suggested_nodes"`
}

// Conversational reports whether the request expressed no workflow-building intent.
func (r Requirements) Conversational() bool {
	return r.Pattern == PatternConversational
}

// HasFeature reports whether the named feature tag was extracted.
func (r Requirements) HasFeature(name string) bool {
	for _, f := range r.Features {
		if f == name {
			return true
		}
	}
	return false
}

// Position holds x/y coordinates for rendering the node on a canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeSpec represents a single typed node in a synthesized workflow.
type NodeSpec struct {
	ID          string         `json:"id"`
	Type        NodeType       `json:"type"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params,omitempty"`
	Position    Position       `json:"position"`
}

// Edge represents a directed connection between two nodes.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceOutput string `json:"sourceOutput,omitempty"`
	TargetInput  string `json:"targetInput,omitempty"`
}

// WorkflowDefinition is a complete workflow graph ready for submission to the
// execution engine. It is never mutated after submission.
type WorkflowDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Nodes       []NodeSpec     `json:"nodes"`
	Edges       []Edge         `json:"edges"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ExecState is the observed state of a remote execution or one of its steps.
type ExecState string

const (
	StatusPending   ExecState = "pending"
	StatusRunning   ExecState = "running"
	StatusCompleted ExecState = "completed"
	StatusFailed    ExecState = "failed"
	StatusCancelled ExecState = "cancelled"
	// StatusNotFound and StatusUnknown are observation artifacts, not true
	// execution states; neither is terminal.
	StatusNotFound ExecState = "not_found"
	StatusUnknown  ExecState = "unknown"
)

// Terminal reports whether the state ends a polling session.
func (s ExecState) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// StepStatus is the runtime record of one node's execution within an execution.
// Timestamps are epoch milliseconds as reported by the engine.
type StepStatus struct {
	NodeType  string    `json:"nodeType"`
	Status    ExecState `json:"status"`
	StartTime int64     `json:"startTime,omitempty"`
	EndTime   int64     `json:"endTime,omitempty"`
}

// ExecutionStatus is the normalized view of one status poll.
type ExecutionStatus struct {
	ExecutionID string                `json:"executionId"`
	Status      ExecState             `json:"status"`
	Steps       map[string]StepStatus `json:"steps,omitempty"`
	StartTime   int64                 `json:"startTime,omitempty"`
	EndTime     int64                 `json:"endTime,omitempty"`
	Error       string                `json:"error,omitempty"`
}
