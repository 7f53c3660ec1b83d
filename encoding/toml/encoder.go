// Package toml decodes model replies that carry a TOML document
package toml

import (
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/effective-security/miniagent/pkg/llmutils"
	"github.com/effective-security/miniagent/pkg/schema"
	"github.com/go-playground/validator/v10"
)

// Encoder describes the value with a TOML example
type Encoder struct {
	example  any
	validate *validator.Validate
}

// NewEncoder returns the encoder for the type of req
func NewEncoder(req any) *Encoder {
	return &Encoder{
		example:  schema.Example(reflect.TypeOf(req)),
		validate: validator.New(),
	}
}

// Marshal returns TOML, v must encode to a table
func (e *Encoder) Marshal(v any) ([]byte, error) {
	return toml.Marshal(v)
}

// Unmarshal decodes the first fenced document, or all of bs
func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	_, err := toml.Decode(string(llmutils.BytesTrimBackticks(bs)), ret)
	return err
}

// Validate checks the `validate` tags of v
func (e *Encoder) Validate(v any) error {
	return e.validate.Struct(v)
}

// GetFormatInstructions returns the example wrapped in reply instructions,
// or an empty string when the example can not be encoded
func (e *Encoder) GetFormatInstructions() string {
	bs, err := e.Marshal(e.example)
	if err != nil {
		return ""
	}
	return "\nReply with one TOML document shaped like this example:\n" +
		llmutils.Fence("toml", string(bs)) +
		"\nUse your own values, not the ones from the example.\n"
}
