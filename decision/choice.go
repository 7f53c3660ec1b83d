package decision

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/tools"
)

// Action is the kind of a Choice
type Action string

const (
	// ActionTool asks the loop to run a tool
	ActionTool Action = "tool"
	// ActionFinal ends the run with an answer
	ActionFinal Action = "final"
)

// FallbackPrefix starts the final text of a choice built from invalid model output
const FallbackPrefix = "(LLM returned invalid ToolChoice JSON) "

// ErrInvalidChoice is returned when model output is not a valid Choice
var ErrInvalidChoice = errors.New("invalid choice")

// Choice is the decision for one step.
// ToolCall is required for ActionTool, Final is used for ActionFinal.
type Choice struct {
	Action    Action      `json:"action" yaml:"action" toml:"action" jsonschema:"enum=tool,enum=final,description=Next action: call a tool or return the final answer" validate:"required,oneof=tool final"`
	ToolCall  *tools.Call `json:"tool_call,omitempty" yaml:"tool_call,omitempty" toml:"tool_call,omitempty" jsonschema:"description=Tool to call when action is tool" validate:"required_if=Action tool"`
	Final     *string     `json:"final,omitempty" yaml:"final,omitempty" toml:"final,omitempty" jsonschema:"description=Final answer when action is final"`
	Reasoning string      `json:"reasoning,omitempty" yaml:"reasoning,omitempty" toml:"reasoning,omitempty" jsonschema:"description=Short reasoning for the choice"`

	// Fallback is set when the choice replaced invalid model output
	Fallback bool `json:"-" yaml:"-" toml:"-"`
}

// FinalChoice returns a final answer
func FinalChoice(text string) *Choice {
	return &Choice{
		Action: ActionFinal,
		Final:  &text,
	}
}

// ToolChoice returns a tool call
func ToolChoice(name string, args map[string]any) *Choice {
	if args == nil {
		args = map[string]any{}
	}
	return &Choice{
		Action: ActionTool,
		ToolCall: &tools.Call{
			ToolName:  name,
			Arguments: args,
		},
	}
}

// IsTool returns true if the choice calls a tool
func (c *Choice) IsTool() bool {
	return c != nil && c.Action == ActionTool && c.ToolCall != nil
}

// FinalText returns the final answer, or def when none was given
func (c *Choice) FinalText(def string) string {
	if c == nil || c.Final == nil {
		return def
	}
	return *c.Final
}

// Fake returns the example shown in YAML and TOML format instructions
func (Choice) Fake() any {
	c := ToolChoice("calculator", map[string]any{"expression": "2*(3+4)"})
	c.Reasoning = "the message asks for arithmetic"
	return c
}

// FormatInstructions describes the expected Choice JSON to a model
func FormatInstructions() string {
	return defaultCodec.FormatInstructions()
}

// Parse decodes and validates a Choice JSON from model output.
// Errors are marked with ErrInvalidChoice.
func Parse(content string) (*Choice, error) {
	return defaultCodec.Parse(content)
}

// ParseOrFallback decodes a Choice JSON, or returns a final choice
// that echoes the invalid content.
func ParseOrFallback(content string) *Choice {
	return defaultCodec.ParseOrFallback(content)
}
