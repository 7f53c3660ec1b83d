// Package yaml decodes model replies that carry a YAML document
package yaml

import (
	"reflect"

	"github.com/effective-security/miniagent/pkg/llmutils"
	"github.com/effective-security/miniagent/pkg/schema"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Encoder describes the value with a YAML example
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

// Marshal returns YAML
func (e *Encoder) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Unmarshal decodes the first fenced document, or all of bs
func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	return yaml.Unmarshal(llmutils.BytesTrimBackticks(bs), ret)
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
	return "\nReply with one YAML document shaped like this example, without comments:\n" +
		llmutils.Fence("yaml", string(bs)) +
		"\nUse your own values, not the ones from the example.\n"
}
