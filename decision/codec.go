package decision

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/encoding"
	"github.com/effective-security/miniagent/pkg/prompts"
	"github.com/effective-security/miniagent/tools"
)

// Codec renders the decision prompt and parses choices
// in one reply format: json, yaml or toml.
type Codec struct {
	mode   encoding.Mode
	parser *encoding.TypedOutputParser[Choice]
	system string
}

var defaultCodec = mustCodec(encoding.ModeJSON)

func mustCodec(mode encoding.Mode) *Codec {
	c, err := NewCodec(mode)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCodec returns the codec for the reply format,
// an empty mode selects JSON
func NewCodec(mode encoding.Mode) (*Codec, error) {
	if mode == "" {
		mode = encoding.ModeDefault
	}
	p, err := encoding.NewTypedOutputParser(Choice{}, mode)
	if err != nil {
		return nil, errors.WithMessage(err, "decision format")
	}
	return &Codec{
		mode:   mode,
		parser: p.WithValidation(true),
		system: strings.Replace(SystemPrompt, "JSON", strings.ToUpper(mode), 1),
	}, nil
}

// Mode returns the reply format
func (c *Codec) Mode() encoding.Mode {
	return c.mode
}

// FormatInstructions describes the expected Choice to a model
func (c *Codec) FormatInstructions() string {
	return c.parser.GetFormatInstructions()
}

// Parse decodes and validates a Choice from model output.
// Errors are marked with ErrInvalidChoice.
func (c *Codec) Parse(content string) (*Choice, error) {
	choice, err := c.parser.Parse(content)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidChoice)
	}
	if choice.Action == ActionTool && choice.ToolCall.Arguments == nil {
		choice.ToolCall.Arguments = map[string]any{}
	}
	return choice, nil
}

// ParseOrFallback decodes a Choice, or returns a final choice
// that echoes the invalid content.
func (c *Codec) ParseOrFallback(content string) *Choice {
	choice, err := c.Parse(content)
	if err != nil {
		choice = FinalChoice(FallbackPrefix + content)
		choice.Fallback = true
	}
	return choice
}

// Prompt returns the messages sent to a model for the request
func (c *Codec) Prompt(req *Request) (prompts.ChatPromptValue, error) {
	specs := req.Specs
	if specs == nil {
		specs = []*tools.Spec{}
	}
	return chatPrompt.FormatPrompt(map[string]any{
		"system":      c.system,
		"format":      c.FormatInstructions(),
		"message":     req.Message,
		"plan":        req.Plan,
		"observation": req.Observation,
		"specs":       specs,
	})
}
