package decision_test

import (
	"context"
	"testing"

	"github.com/effective-security/miniagent/decision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristics(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name        string
		message     string
		observation string
		exp         *decision.Choice
	}{
		{
			name:        "observation finalizes",
			message:     "calculate 1+1",
			observation: "Result: 2.0",
			exp:         decision.FinalChoice("Result: 2.0"),
		},
		{
			name:    "calculate",
			message: "calculate 2*(3+4)",
			exp:     decision.ToolChoice("calculator", map[string]any{"expression": "2*(3+4)"}),
		},
		{
			name:    "calculate mixed case",
			message: "Please Calculate  10 / 4 ",
			exp:     decision.ToolChoice("calculator", map[string]any{"expression": "10 / 4"}),
		},
		{
			name:    "calculate nothing after",
			message: "calculate",
			exp:     decision.ToolChoice("calculator", map[string]any{"expression": "calculate"}),
		},
		{
			name:    "operator",
			message: "2**8",
			exp:     decision.ToolChoice("calculator", map[string]any{"expression": "2**8"}),
		},
		{
			name:    "summarize",
			message: "Summarize: One. Two. Three. Four.",
			exp: decision.ToolChoice("summarize_text", map[string]any{
				"text":          "One. Two. Three. Four.",
				"max_sentences": 3,
			}),
		},
		{
			name:    "summary without colon",
			message: "give me a summary of this",
			exp: decision.ToolChoice("summarize_text", map[string]any{
				"text":          "give me a summary of this",
				"max_sentences": 3,
			}),
		},
		{
			name:    "retrieval",
			message: "Explain agent sdk",
			exp: decision.ToolChoice("retrieve_corpus", map[string]any{
				"query": "Explain agent sdk",
				"k":     3,
			}),
		},
		{
			name:    "help",
			message: "hello there",
			exp:     decision.FinalChoice(decision.HelpText),
		},
	}

	h := decision.NewHeuristic()
	assert.Equal(t, decision.StrategyHeuristic, h.Name())

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			c, err := h.Decide(context.Background(), &decision.Request{
				Message:     tc.message,
				Observation: tc.observation,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.exp, c)
		})
	}
}

func TestFunc(t *testing.T) {
	t.Parallel()

	src := decision.NewFunc("static", func(_ context.Context, req *decision.Request) (*decision.Choice, error) {
		return decision.FinalChoice(req.Plan), nil
	})
	assert.Equal(t, "static", src.Name())
	c, err := src.Decide(context.Background(), &decision.Request{Plan: "p"})
	require.NoError(t, err)
	assert.Equal(t, "p", c.FinalText(""))
}
