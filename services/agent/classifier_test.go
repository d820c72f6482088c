package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAnalyzer returns a fixed Requirements record or error.
type stubAnalyzer struct {
	req Requirements
	err error
}

func (a *stubAnalyzer) Analyze(_ context.Context, _ string, _ []Turn) (Requirements, error) {
	return a.req, a.err
}

func TestClassify_Greeting(t *testing.T) {
	c := NewClassifier(nil)

	req := c.Classify(context.Background(), "hello", nil)

	assert.True(t, req.Conversational())
	assert.Equal(t, PatternConversational, req.Pattern)
	assert.Empty(t, req.SuggestedNodes)
	assert.Equal(t, "hello", req.UserIntent)
}

func TestClassify_LimitOrder(t *testing.T) {
	c := NewClassifier(nil)

	req := c.Classify(context.Background(), "Create a limit order application", nil)

	assert.Equal(t, PatternLimitOrder, req.Pattern)
	assert.Equal(t, []string{"walletConnector", "tokenSelector", "limitOrder", "transactionMonitor"}, req.SuggestedNodes)
	assert.Contains(t, req.Features, "limit orders")
	assert.Equal(t, []string{"ethereum"}, req.Chains)
}

func TestClassify_SwapWithTokensAndSlippage(t *testing.T) {
	c := NewClassifier(nil)

	req := c.Classify(context.Background(), "I want to create a swap application that can exchange ETH, USDC, WBTC with slippage protection", nil)

	assert.Equal(t, PatternDEXAggregator, req.Pattern)
	assert.Len(t, req.SuggestedNodes, 6)
	assert.Equal(t, []string{"ETH", "USDC", "WBTC"}, req.Tokens)
	assert.Contains(t, req.Features, "slippage protection")
	assert.False(t, req.Conversational())
}

func TestClassify_Bridge(t *testing.T) {
	c := NewClassifier(nil)

	req := c.Classify(context.Background(), "build a cross-chain bridge for USDC", nil)

	assert.Equal(t, PatternCrossChainBridge, req.Pattern)
	assert.Equal(t, []string{"walletConnector", "chainSelector", "tokenSelector", "fusionPlus", "transactionMonitor"}, req.SuggestedNodes)
	assert.Equal(t, []string{"USDC"}, req.Tokens)
}

func TestClassify_PortfolioDashboard(t *testing.T) {
	c := NewClassifier(nil)

	req := c.Classify(context.Background(), "make a portfolio dashboard", nil)

	assert.Equal(t, PatternPortfolioDashboard, req.Pattern)
	assert.Equal(t, []string{"walletConnector", "portfolioAPI"}, req.SuggestedNodes)
}

func TestClassify_CustomDefault(t *testing.T) {
	c := NewClassifier(nil)

	// Domain + action present, but no pattern keyword matches.
	req := c.Classify(context.Background(), "build me a staking application please", nil)

	assert.Equal(t, PatternCustomDeFi, req.Pattern)
	assert.Equal(t, []string{"walletConnector", "tokenSelector"}, req.SuggestedNodes)
}

func TestClassify_DefaultTokens(t *testing.T) {
	c := NewClassifier(nil)

	req := c.Classify(context.Background(), "create a swap application", nil)

	assert.Equal(t, []string{"ETH", "USDC"}, req.Tokens)
}

func TestClassify_ShortInputWithoutKeywords(t *testing.T) {
	c := NewClassifier(nil)

	req := c.Classify(context.Background(), "hmm maybe later", nil)

	assert.True(t, req.Conversational())
}

func TestClassify_ConjunctionOverridesPhraseMatch(t *testing.T) {
	c := NewClassifier(nil)

	// "hi" appears inside "this", but domain+action still wins.
	req := c.Classify(context.Background(), "can you build this token swap for me", nil)

	assert.False(t, req.Conversational())
	assert.Equal(t, PatternDEXAggregator, req.Pattern)
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(nil)
	input := "create a limit order system for ETH and DAI"

	first := c.Classify(context.Background(), input, nil)
	second := c.Classify(context.Background(), input, nil)

	assert.Equal(t, first, second)
}

func TestClassify_AnalyzerErrorFallsBack(t *testing.T) {
	c := NewClassifier(&stubAnalyzer{err: errors.New("connection refused")})

	req := c.Classify(context.Background(), "create a swap application", nil)

	assert.Equal(t, PatternDEXAggregator, req.Pattern)
	assert.Len(t, req.SuggestedNodes, 6)
}

func TestClassify_AnalyzerOutputValidated(t *testing.T) {
	// The analyzer hallucinates a workflow for small talk; the secondary pass
	// forces it back to conversational.
	c := NewClassifier(&stubAnalyzer{req: Requirements{
		Pattern:        PatternDEXAggregator,
		SuggestedNodes: []string{"walletConnector", "tokenSelector"},
	}})

	req := c.Classify(context.Background(), "how are you today", nil)

	assert.True(t, req.Conversational())
	assert.Empty(t, req.SuggestedNodes)
}

func TestClassify_AnalyzerOutputAccepted(t *testing.T) {
	c := NewClassifier(&stubAnalyzer{req: Requirements{
		Pattern:        PatternLimitOrder,
		Tokens:         []string{"ETH"},
		SuggestedNodes: []string{"walletConnector", "limitOrder"},
	}})

	req := c.Classify(context.Background(), "build a limit order system", nil)

	require.False(t, req.Conversational())
	assert.Equal(t, PatternLimitOrder, req.Pattern)
	assert.Equal(t, []string{"ethereum"}, req.Chains)
	assert.Equal(t, "build a limit order system", req.UserIntent)
}

func TestNormalizeRequirements_EmptyNodesBecomesConversational(t *testing.T) {
	req := normalizeRequirements("do something", Requirements{Pattern: PatternCustomDeFi})

	assert.Equal(t, PatternConversational, req.Pattern)
	assert.Empty(t, req.SuggestedNodes)
}

func TestNormalizeRequirements_ConversationalDropsNodes(t *testing.T) {
	req := normalizeRequirements("hello", Requirements{
		Pattern:        PatternConversational,
		SuggestedNodes: []string{"walletConnector"},
	})

	assert.Empty(t, req.SuggestedNodes)
}
