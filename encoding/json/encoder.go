// Package json decodes model replies that carry a JSON document
package json

import (
	"encoding/json"
	"reflect"

	"github.com/bububa/ljson"
	"github.com/effective-security/miniagent/pkg/llmutils"
	"github.com/effective-security/miniagent/pkg/schema"
	"github.com/go-playground/validator/v10"
)

// Encoder describes the value with its JSON schema.
// Unmarshal tolerates prose and code fences around the document.
type Encoder struct {
	validate     *validator.Validate
	instructions string
}

// NewEncoder returns the encoder for the type of req
func NewEncoder(req any) (*Encoder, error) {
	s, err := schema.New(reflect.TypeOf(req))
	if err != nil {
		return nil, err
	}
	return &Encoder{
		validate: validator.New(),
		instructions: "\nReply with one JSON object valid against this JSON schema:\n" +
			llmutils.Fence("json", s.String()) +
			"\nFill in the values instead of repeating the schema, keep the field names as defined.\n",
	}, nil
}

// Marshal returns tab indented JSON
func (e *Encoder) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "\t")
}

// Unmarshal decodes the outermost JSON document in bs
func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	return ljson.Unmarshal(llmutils.CleanJSON(bs), ret)
}

// Validate checks the `validate` tags of v
func (e *Encoder) Validate(v any) error {
	return e.validate.Struct(v)
}

// GetFormatInstructions returns the schema wrapped in reply instructions
func (e *Encoder) GetFormatInstructions() string {
	return e.instructions
}
