package encoding

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrFailedDecode is returned when the text can not be decoded
	ErrFailedDecode = errors.New("failed to decode")
	// ErrFailedValidation is returned when the decoded value is not valid
	ErrFailedValidation = errors.New("failed to validate")
)

// TypedOutputParser parses model output into Go structs.
type TypedOutputParser[T any] struct {
	enc      SchemaEncoder
	validate bool
}

// NewTypedOutputParser creates an output parser that structures data according to
// a given schema, as defined by struct field names and types. Tagging the
// field with "json" will explicitly use that value as the field name.
// The "jsonschema" tag adds a description to the format instructions.
func NewTypedOutputParser[T any](sourceType T, mode Mode) (*TypedOutputParser[T], error) {
	enc, err := PredefinedSchemaEncoder(mode, sourceType)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create encoder")
	}

	return &TypedOutputParser[T]{enc: enc}, nil
}

// WithValidation enables validation of parsed values
func (p *TypedOutputParser[T]) WithValidation(validate bool) *TypedOutputParser[T] {
	p.validate = validate
	return p
}

// Parse parses the output of a model call.
func (p *TypedOutputParser[T]) Parse(text string) (*T, error) {
	var target T
	if err := p.enc.Unmarshal([]byte(text), &target); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to decode"), ErrFailedDecode)
	}
	if validator, ok := p.enc.(Validator); ok && p.validate {
		if err := validator.Validate(&target); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to validate"), ErrFailedValidation)
		}
	}
	return &target, nil
}

// GetFormatInstructions returns a string describing the format of the output.
func (p *TypedOutputParser[T]) GetFormatInstructions() string {
	return p.enc.GetFormatInstructions()
}
