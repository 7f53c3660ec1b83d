package tools

import (
	"context"

	"github.com/invopop/jsonschema"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools

// DefaultDenyReason is returned when a denied tool has no reason configured
const DefaultDenyReason = "Tool not permitted"

// ITool is a tool the agent can call.
type ITool interface {
	// Spec returns the immutable tool description.
	Spec() *Spec
	// Run executes the tool with the given arguments.
	// It never panics and never returns nil:
	// all failures are reported as Result with OK=false.
	Run(ctx context.Context, args map[string]any) *Result
}

// Permission controls whether the registry may invoke a tool
type Permission struct {
	Allow  bool   `json:"allow" yaml:"allow"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Allowed returns a permission that allows the tool
func Allowed() Permission {
	return Permission{Allow: true}
}

// Denied returns a permission that denies the tool with the reason
func Denied(reason string) Permission {
	return Permission{Allow: false, Reason: reason}
}

// Spec describes a tool
type Spec struct {
	Name         string             `json:"name" yaml:"name"`
	Description  string             `json:"description" yaml:"description"`
	InputSchema  *jsonschema.Schema `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`
	OutputSchema *jsonschema.Schema `json:"output_schema,omitempty" yaml:"output_schema,omitempty"`
	Permission   Permission         `json:"permission" yaml:"permission"`
}

// Call is a request to run a tool
type Call struct {
	ToolName  string         `json:"tool_name" yaml:"tool_name" toml:"tool_name" validate:"required"`
	Arguments map[string]any `json:"arguments" yaml:"arguments" toml:"arguments"`
}

// Result is the outcome of a tool call.
// Output is set iff OK, Error is set iff not OK.
type Result struct {
	ToolName string         `json:"tool_name" yaml:"tool_name"`
	OK       bool           `json:"ok" yaml:"ok"`
	Output   map[string]any `json:"output,omitempty" yaml:"output,omitempty"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded returns a successful result
func Succeeded(toolName string, output map[string]any) *Result {
	if output == nil {
		output = map[string]any{}
	}
	return &Result{
		ToolName: toolName,
		OK:       true,
		Output:   output,
	}
}

// Failed returns a failed result
func Failed(toolName string, errText string) *Result {
	return &Result{
		ToolName: toolName,
		OK:       false,
		Error:    errText,
	}
}
