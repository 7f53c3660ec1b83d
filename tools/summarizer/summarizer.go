// Package summarizer provides a deterministic extractive summarizer tool
package summarizer

import (
	"context"
	"strings"

	"github.com/effective-security/miniagent/tools"
)

// ToolName is the registered name of the summarizer tool
const ToolName = "summarize_text"

// DefaultMaxSentences is used when the input does not specify max_sentences
const DefaultMaxSentences = 3

// Input is the summarizer tool input
type Input struct {
	Text string `json:"text" yaml:"text" jsonschema:"title=Text,description=Text to summarize" validate:"required"`
	// MaxSentences is nil when the key is absent; an explicit 0 fails validation
	MaxSentences *int `json:"max_sentences,omitempty" yaml:"max_sentences,omitempty" jsonschema:"title=Max Sentences,minimum=1,maximum=10,default=3" validate:"omitempty,min=1,max=10"`
}

// SetDefaults sets MaxSentences if not provided
func (in *Input) SetDefaults() {
	if in.MaxSentences == nil {
		n := DefaultMaxSentences
		in.MaxSentences = &n
	}
}

// Output is the summarizer tool output
type Output struct {
	Summary string `json:"summary" yaml:"summary" jsonschema:"title=Summary"`
}

// New returns the summarizer tool
func New() (*tools.Typed[Input, Output], error) {
	return tools.New(ToolName,
		"Deterministic summarizer (mock): returns the first N sentences.",
		func(_ context.Context, in *Input) (*Output, error) {
			return &Output{Summary: Summarize(in.Text, *in.MaxSentences)}, nil
		},
	)
}

// Summarize returns the first n sentences of the text,
// split on periods, joined with ". " and terminated by a period.
func Summarize(text string, n int) string {
	var parts []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\n", " "), ".") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if n < len(parts) {
		parts = parts[:max(n, 0)]
	}
	summary := strings.Join(parts, ". ")
	if summary != "" && !strings.HasSuffix(summary, ".") {
		summary += "."
	}
	return summary
}
