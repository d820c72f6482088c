package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Analyzer is the natural-language understanding collaborator: text in, either
// a structured Requirements record or an error. Implementations return an error
// when the collaborator is unreachable or its output cannot be parsed; the
// classifier treats every error as recoverable.
type Analyzer interface {
	Analyze(ctx context.Context, text string, history []Turn) (Requirements, error)
}

// ChatAnalyzer calls an OpenAI-compatible chat completions endpoint and
// extracts the first brace-delimited JSON object from the reply.
type ChatAnalyzer struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewChatAnalyzer returns an analyzer with a 30-second timeout.
func NewChatAnalyzer(baseURL, model, apiKey string) *ChatAnalyzer {
	return &ChatAnalyzer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

const analyzerSystemPrompt = `You are an expert DeFi architecture mapper. Given a user's natural-language request, analyze it and provide structured information.

CRITICAL RULE: distinguish between DeFi workflow requests and conversational messages. Greetings, social responses and anything not related to DeFi must get pattern "conversational" and an empty suggested_nodes array. DeFi workflow requests contain DeFi-specific terms (swap, trade, limit order, bridge, portfolio, token, wallet) and express intent to BUILD something. If in doubt, default to "conversational".

Available node types: walletConnector, tokenSelector, oneInchQuote, oneInchSwap, limitOrder, priceImpactCalculator, transactionMonitor, transactionStatus, fusionPlus, fusionSwap, portfolioAPI, chainSelector, erc20Token, defiDashboard.

Node selection guidelines: limit orders use limitOrder + tokenSelector + walletConnector; swaps use oneInchQuote + oneInchSwap + tokenSelector + walletConnector; portfolios use portfolioAPI + walletConnector; cross-chain uses fusionPlus + chainSelector + tokenSelector.

Respond ONLY with a JSON object (no markdown) of the shape:
{"pattern": "...", "tokens": [...], "features": [...], "chains": [...], "user_intent": "...", "suggested_nodes": [...]}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Analyze sends the user text (plus up to the 3 most recent history turns) to
// the collaborator and parses its JSON reply.
func (a *ChatAnalyzer) Analyze(ctx context.Context, text string, history []Turn) (Requirements, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: analyzerSystemPrompt},
			{Role: "user", Content: buildPrompt(text, history)},
		},
	})
	if err != nil {
		return Requirements{}, fmt.Errorf("marshal analyzer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Requirements{}, fmt.Errorf("create analyzer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Requirements{}, fmt.Errorf("analyzer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Requirements{}, fmt.Errorf("analyzer returned status %d", resp.StatusCode)
	}

	var reply chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Requirements{}, fmt.Errorf("decode analyzer response: %w", err)
	}
	if len(reply.Choices) == 0 {
		return Requirements{}, fmt.Errorf("analyzer returned no choices")
	}

	return extractRequirements(reply.Choices[0].Message.Content)
}

// buildPrompt appends the most recent history turns as "role: content" lines.
func buildPrompt(text string, history []Turn) string {
	if len(history) == 0 {
		return text
	}
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nConversation history:\n")
	for _, turn := range history[start:] {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return b.String()
}

// extractRequirements locates the first top-level brace-delimited JSON object
// in text and decodes it. Output missing both the pattern and suggested_nodes
// keys has no recoverable default and is rejected.
func extractRequirements(text string) (Requirements, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Requirements{}, fmt.Errorf("analyzer output contains no JSON object")
	}
	raw := []byte(text[start : end+1])

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return Requirements{}, fmt.Errorf("parse analyzer output: %w", err)
	}
	if _, hasPattern := keys["pattern"]; !hasPattern {
		if _, hasNodes := keys["suggested_nodes"]; !hasNodes {
			return Requirements{}, fmt.Errorf("analyzer output missing pattern and suggested_nodes")
		}
	}

	var req Requirements
	if err := json.Unmarshal(raw, &req); err != nil {
		return Requirements{}, fmt.Errorf("parse analyzer output: %w", err)
	}
	return req, nil
}
