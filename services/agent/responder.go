package agent

import "strings"

// Canned follow-up suggestions returned alongside responses.
var (
	conversationalSuggestions = []string{
		"Try: 'Create a swap application'",
		"Try: 'Build a limit order system'",
		"Try: 'Make a portfolio dashboard'",
	}
	workflowSuggestions = []string{
		"Approve this workflow to generate the canvas",
		"Ask me to modify specific nodes or features",
		"Request different token combinations",
	}
)

const helpReply = `I can help you create DeFi applications. Here's what I can do:

- Swap applications: token swapping with 1inch integration
- Limit order systems: advanced trading with limit orders
- Portfolio dashboards: track and analyze your DeFi positions
- Cross-chain bridges: move assets between blockchains

Just describe what you want to build in natural language.`

const generalReply = `I'm here to help you build DeFi applications.

Try asking me something like:
- 'Create a swap application for ETH and USDC'
- 'Build a limit order system'
- 'Make a portfolio tracker'

What would you like to build?`

// conversationalReply returns a fixed-tone reply for inputs that expressed no
// workflow-building intent. Conversational inputs never receive an error.
func conversationalReply(text string) string {
	input := strings.ToLower(strings.TrimSpace(text))
	switch {
	case containsAny(input, []string{"hello", "hi", "hey"}):
		return "Hello! I'm your DeFi workflow assistant. I can help you build DeFi applications like swap interfaces, limit order systems, or portfolio dashboards. What would you like to create?"
	case containsAny(input, []string{"help", "what can you do", "what is this"}):
		return helpReply
	case strings.Contains(input, "thank"):
		return "You're welcome! Feel free to ask me to create any DeFi application you have in mind."
	case containsAny(input, []string{"bye", "goodbye", "see you"}):
		return "Goodbye! Come back anytime when you want to build something in DeFi."
	default:
		return generalReply
	}
}
