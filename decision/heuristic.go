package decision

import (
	"context"
	"regexp"
	"strings"

	"github.com/effective-security/miniagent/tools/calculator"
	"github.com/effective-security/miniagent/tools/retrieval"
	"github.com/effective-security/miniagent/tools/summarizer"
)

// StrategyHeuristic is the name of the offline strategy
const StrategyHeuristic = "heuristic"

// HelpText is the final answer when no tool matches the message
const HelpText = "Mock mode: I can calculate, summarize, or retrieve from the local corpus. Try: 'calculate 2*(3+4)' or 'explain agent sdk'."

var (
	calculateRe = regexp.MustCompile(`(?i)calculate`)

	calcTokens      = []string{"calculate", "calc", "+", "-", "*", "/", "**"}
	retrievalTokens = []string{"what is", "explain", "ollama", "fastapi", "agent sdk"}
)

// Heuristic is a deterministic keyword based Source.
// It answers with the observation as soon as one tool has run.
type Heuristic struct{}

// NewHeuristic returns the heuristic Source
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name returns the strategy name
func (h *Heuristic) Name() string {
	return StrategyHeuristic
}

// Decide returns the choice for the message and observation
func (h *Heuristic) Decide(_ context.Context, req *Request) (*Choice, error) {
	return Heuristics(req.Message, req.Observation), nil
}

// Heuristics picks a tool by keywords in the message
func Heuristics(message, observation string) *Choice {
	if observation != "" {
		return FinalChoice(observation)
	}

	text := strings.ToLower(strings.TrimSpace(message))

	if containsAny(text, calcTokens) {
		expr := message
		if loc := calculateRe.FindStringIndex(message); loc != nil {
			if rest := strings.TrimSpace(message[loc[1]:]); rest != "" {
				expr = rest
			}
		}
		return ToolChoice(calculator.ToolName, map[string]any{"expression": expr})
	}

	if strings.HasPrefix(text, "summarize") || strings.Contains(text, "summary") {
		payload := message
		if _, after, ok := strings.Cut(message, ":"); ok {
			payload = strings.TrimSpace(after)
		}
		return ToolChoice(summarizer.ToolName, map[string]any{
			"text":          payload,
			"max_sentences": 3,
		})
	}

	if containsAny(text, retrievalTokens) {
		return ToolChoice(retrieval.ToolName, map[string]any{
			"query": message,
			"k":     3,
		})
	}

	return FinalChoice(HelpText)
}

func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
