package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/schema"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "tools")

// ErrInvalidInput is returned when tool arguments do not match the input schema
var ErrInvalidInput = errors.New("invalid input")

// Defaulter is implemented by tool inputs that fill optional fields
// after decoding and before validation.
type Defaulter interface {
	SetDefaults()
}

// Func is a typed tool implementation
type Func[I any, O any] func(ctx context.Context, in *I) (*O, error)

// Tool is a typed tool
type Tool[I any, O any] interface {
	ITool
	// Invoke calls the tool with typed input
	Invoke(context.Context, *I) (*O, error)
}

// Typed adapts a typed function to ITool
type Typed[I any, O any] struct {
	spec     *Spec
	fn       Func[I, O]
	validate *validator.Validate
}

// ensure Typed implements the interfaces
var _ Tool[struct{}, struct{}] = (*Typed[struct{}, struct{}])(nil)

// Option configures a tool spec
type Option func(*Spec)

// WithPermission sets the tool permission
func WithPermission(p Permission) Option {
	return func(s *Spec) {
		s.Permission = p
	}
}

// NewSpec returns a spec with schemas generated from the input and output types.
// The tool is allowed unless WithPermission says otherwise.
func NewSpec[I any, O any](name, description string, opts ...Option) (*Spec, error) {
	in, err := schema.Of[I]()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create input schema for %s", name)
	}
	out, err := schema.Of[O]()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create output schema for %s", name)
	}
	spec := &Spec{
		Name:         name,
		Description:  description,
		InputSchema:  in.Parameters,
		OutputSchema: out.Parameters,
		Permission:   Allowed(),
	}
	for _, opt := range opts {
		opt(spec)
	}
	return spec, nil
}

// New returns a typed tool
func New[I any, O any](name, description string, fn Func[I, O], opts ...Option) (*Typed[I, O], error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}
	if fn == nil {
		return nil, errors.Newf("tool %s: function is required", name)
	}
	spec, err := NewSpec[I, O](name, description, opts...)
	if err != nil {
		return nil, err
	}
	return &Typed[I, O]{
		spec:     spec,
		fn:       fn,
		validate: validator.New(),
	}, nil
}

// Spec returns the tool spec
func (t *Typed[I, O]) Spec() *Spec {
	return t.spec
}

// Invoke validates the input and calls the tool function
func (t *Typed[I, O]) Invoke(ctx context.Context, in *I) (*O, error) {
	if in == nil {
		return nil, errors.Mark(errors.New("invalid input: missing arguments"), ErrInvalidInput)
	}
	if d, ok := any(in).(Defaulter); ok {
		d.SetDefaults()
	}
	if err := t.validate.Struct(in); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid input"), ErrInvalidInput)
	}
	return t.fn(ctx, in)
}

// Run decodes the arguments into the input type and invokes the tool.
// Decoding, validation and execution errors, as well as panics,
// are returned as a failed Result.
func (t *Typed[I, O]) Run(ctx context.Context, args map[string]any) (res *Result) {
	name := t.spec.Name
	defer func() {
		if r := recover(); r != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"tool", name,
				"panic", r,
			)
			res = Failed(name, fmt.Sprintf("panic: %v", r))
		}
	}()

	in, err := Bind[I](args)
	if err != nil {
		return Failed(name, err.Error())
	}

	out, err := t.Invoke(ctx, in)
	if err != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"tool", name,
			"err", err.Error(),
		)
		return Failed(name, err.Error())
	}

	output, err := ToMap(out)
	if err != nil {
		return Failed(name, err.Error())
	}
	return Succeeded(name, output)
}

// Bind decodes the argument map into a new value of type I
func Bind[I any](args map[string]any) (*I, error) {
	in := new(I)
	if len(args) == 0 {
		return in, nil
	}
	js, err := json.Marshal(args)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid input"), ErrInvalidInput)
	}
	if err = ljson.Unmarshal(js, in); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid input"), ErrInvalidInput)
	}
	return in, nil
}

// ToMap converts a structured value to a generic map
func ToMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal output")
	}
	m := map[string]any{}
	if err = json.Unmarshal(js, &m); err != nil {
		return nil, errors.Wrap(err, "failed to convert output")
	}
	return m, nil
}
