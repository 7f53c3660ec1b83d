// Package calculator provides the calculator tool
package calculator

import (
	"context"

	"github.com/effective-security/miniagent/tools"
)

// ToolName is the registered name of the calculator tool
const ToolName = "calculator"

// Input is the calculator tool input
type Input struct {
	Expression string `json:"expression" yaml:"expression" jsonschema:"title=Expression,description=Math expression like 2*(3+4)" validate:"required"`
}

// Output is the calculator tool output
type Output struct {
	Result float64 `json:"result" yaml:"result" jsonschema:"title=Result,description=Numeric result"`
}

// New returns the calculator tool
func New() (*tools.Typed[Input, Output], error) {
	return tools.New(ToolName,
		"Safely evaluate a basic math expression (+ - * / ** % and parentheses).",
		run,
	)
}

func run(_ context.Context, in *Input) (*Output, error) {
	v, err := Evaluate(in.Expression)
	if err != nil {
		return nil, err
	}
	return &Output{Result: v}, nil
}
