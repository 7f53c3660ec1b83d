package decision

import (
	"context"

	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "decision")

//go:generate mockgen -source=source.go -destination=../mocks/mockdecision/decision_mock.gen.go -package mockdecision

// Request is the input of a decision
type Request struct {
	// Message is the user message of the run
	Message string
	// Plan is the plan of the current step
	Plan string
	// Observation is the text derived from the last tool result, or empty
	Observation string
	// Specs are the tools available to the run
	Specs []*tools.Spec
}

// Source decides the next action of the agent loop.
// Implementations must be safe to call repeatedly and concurrently.
type Source interface {
	// Name returns the strategy name
	Name() string
	// Decide returns the choice for the step.
	// Invalid model output is reported as a fallback choice,
	// an error is returned only when the decision could not be obtained.
	Decide(ctx context.Context, req *Request) (*Choice, error)
}

// Func adapts a function to Source
type Func func(ctx context.Context, req *Request) (*Choice, error)

type funcSource struct {
	name string
	fn   Func
}

// NewFunc returns a named Source that calls fn
func NewFunc(name string, fn Func) Source {
	return &funcSource{name: name, fn: fn}
}

func (s *funcSource) Name() string {
	return s.name
}

func (s *funcSource) Decide(ctx context.Context, req *Request) (*Choice, error) {
	return s.fn(ctx, req)
}
