package agent

import (
	"context"
	"log/slog"
	"strings"
)

// Classifier turns free-text user input into a normalized Requirements record.
// When an Analyzer is configured its output is preferred; any analyzer failure
// falls back to the deterministic rules, so Classify never fails.
type Classifier struct {
	analyzer Analyzer
}

// NewClassifier creates a Classifier. The analyzer may be nil, in which case
// only the deterministic rules run.
func NewClassifier(analyzer Analyzer) *Classifier {
	return &Classifier{analyzer: analyzer}
}

// Classify analyzes text (with optional conversation history) and always
// returns a Requirements record.
func (c *Classifier) Classify(ctx context.Context, text string, history []Turn) Requirements {
	if c.analyzer != nil {
		req, err := c.analyzer.Analyze(ctx, text, history)
		if err == nil {
			return validateIntent(text, normalizeRequirements(text, req))
		}
		slog.Debug("analyzer unavailable, using deterministic rules", "error", err)
	}
	return fallbackClassify(text)
}

// conversationalPhrases are inputs handled without workflow synthesis. Matching
// is by substring, so short phrases can match inside larger inputs; the
// domain+action conjunction below overrides such matches.
var conversationalPhrases = []string{
	// greetings
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"greetings", "salutations",
	// personal questions
	"how are you", "how was your day", "how's your day", "what's up", "whats up",
	"how's it going", "hows it going", "how have you been", "how you doing",
	"how are things", "what's new", "whats new",
	// general questions
	"what can you do", "help", "what is this", "who are you", "what are you",
	"tell me about yourself", "what do you do", "how do you work",
	// social responses
	"thanks", "thank you", "bye", "goodbye", "see you", "see ya",
	"ok", "okay", "yes", "no", "sure", "alright", "cool", "nice",
	"that's great", "awesome", "perfect", "sounds good",
	// small talk
	"tell me a joke", "how's the weather", "what time is it",
	"i'm bored", "i am bored", "random", "whatever", "nothing much",
}

// domainKeywords indicate actual DeFi workflow intent.
var domainKeywords = []string{
	"swap", "trade", "trading", "exchange", "defi", "token", "tokens",
	"limit", "order", "orders", "bridge", "bridges", "bridging",
	"chain", "chains", "cross-chain", "portfolio", "dashboard",
	"wallet", "wallets", "connect", "yield", "farming", "staking",
	"liquidity", "pool", "lend", "lending", "borrow", "borrowing",
	"eth", "ethereum", "usdc", "usdt", "bitcoin", "btc", "wbtc",
	"polygon", "arbitrum", "optimism", "avalanche",
}

var actionKeywords = []string{
	"create", "build", "make", "develop", "design", "implement",
	"generate", "construct", "setup", "configure",
}

// Shorter keyword lists used by the secondary intent validation pass.
var (
	intentDomainKeywords = []string{
		"swap", "trade", "token", "limit", "order", "bridge",
		"portfolio", "wallet", "defi", "chain",
	}
	intentActionKeywords = []string{
		"create", "build", "make", "develop", "generate", "implement",
	}
)

var tokenVocabulary = []string{"eth", "usdc", "usdt", "wbtc", "dai", "uni", "link"}

var defaultTokens = []string{"ETH", "USDC"}

// fallbackClassify is the deterministic, collaborator-independent classification
// path. It is a pure function of text plus the fixed vocabularies above.
func fallbackClassify(text string) Requirements {
	input := strings.ToLower(strings.TrimSpace(text))

	hasDomain := containsAny(input, domainKeywords)
	hasAction := containsAny(input, actionKeywords)

	// The domain+action conjunction forces non-conversational handling even
	// when a conversational phrase happens to appear as a substring.
	conversational := false
	if !(hasDomain && hasAction) {
		conversational = containsAny(input, conversationalPhrases) ||
			(len(strings.Fields(input)) <= 3 && !hasDomain && !hasAction)
	}

	if conversational {
		return Requirements{
			Pattern:    PatternConversational,
			UserIntent: text,
		}
	}

	pattern, nodes := matchPattern(input)
	return Requirements{
		Pattern:        pattern,
		Tokens:         extractTokens(input),
		Features:       extractFeatures(input),
		Chains:         []string{"ethereum"},
		UserIntent:     text,
		SuggestedNodes: nodes,
	}
}

// matchPattern applies the fixed pattern rules in order; first match wins.
func matchPattern(input string) (string, []string) {
	switch {
	case containsAny(input, []string{"limit order", "limit-order", "limitorder", "order"}):
		return PatternLimitOrder, []string{"walletConnector", "tokenSelector", "limitOrder", "transactionMonitor"}
	case containsAny(input, []string{"swap", "exchange", "trade"}):
		return PatternDEXAggregator, []string{"walletConnector", "tokenSelector", "oneInchQuote", "priceImpactCalculator", "oneInchSwap", "transactionMonitor"}
	case containsAny(input, []string{"bridge", "cross-chain", "cross chain"}):
		return PatternCrossChainBridge, []string{"walletConnector", "chainSelector", "tokenSelector", "fusionPlus", "transactionMonitor"}
	case containsAny(input, []string{"portfolio", "dashboard"}):
		return PatternPortfolioDashboard, []string{"walletConnector", "portfolioAPI"}
	default:
		return PatternCustomDeFi, []string{"walletConnector", "tokenSelector"}
	}
}

// extractTokens matches asset symbols against the fixed vocabulary; results are
// emitted in vocabulary order, not input order.
func extractTokens(input string) []string {
	var tokens []string
	for _, t := range tokenVocabulary {
		if strings.Contains(input, t) {
			tokens = append(tokens, strings.ToUpper(t))
		}
	}
	if len(tokens) == 0 {
		return append([]string(nil), defaultTokens...)
	}
	return tokens
}

// extractFeatures runs the independent feature checks in fixed order.
func extractFeatures(input string) []string {
	var features []string
	if strings.Contains(input, "slippage") {
		features = append(features, "slippage protection")
	}
	if strings.Contains(input, "mev") {
		features = append(features, "MEV protection")
	}
	if strings.Contains(input, "gas") {
		features = append(features, "gas optimization")
	}
	if strings.Contains(input, "limit") || strings.Contains(input, "order") {
		features = append(features, "limit orders")
	}
	if strings.Contains(input, "monitor") {
		features = append(features, "transaction monitoring")
	}
	return features
}

// normalizeRequirements fills defaults on analyzer output and enforces the
// invariant that a conversational pattern carries no suggested nodes (and
// vice versa).
func normalizeRequirements(text string, req Requirements) Requirements {
	if req.Pattern == "" {
		req.Pattern = PatternCustomDeFi
	}
	if len(req.Chains) == 0 && req.Pattern != PatternConversational {
		req.Chains = []string{"ethereum"}
	}
	if req.UserIntent == "" {
		req.UserIntent = text
	}
	if req.Pattern == PatternConversational {
		req.SuggestedNodes = nil
	} else if len(req.SuggestedNodes) == 0 {
		req.Pattern = PatternConversational
	}
	return req
}

// validateIntent re-applies the domain+action conjunction to analyzer output,
// forcing the record back to conversational when the conjunction fails. This
// guards against the collaborator producing a workflow pattern for small talk.
func validateIntent(text string, req Requirements) Requirements {
	if req.Conversational() {
		return req
	}
	input := strings.ToLower(strings.TrimSpace(text))
	if containsAny(input, intentDomainKeywords) && containsAny(input, intentActionKeywords) {
		return req
	}
	slog.Debug("forcing conversational classification", "pattern", req.Pattern)
	req.Pattern = PatternConversational
	req.SuggestedNodes = nil
	return req
}

func containsAny(input string, vocabulary []string) bool {
	for _, word := range vocabulary {
		if strings.Contains(input, word) {
			return true
		}
	}
	return false
}
