package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/decision"
	"github.com/effective-security/miniagent/pkg/metricskey"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/trace"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "agent")

const (
	// DefaultMaxSteps is the step budget when the request does not set one
	DefaultMaxSteps = 6
	// NoFinal is the answer of a final choice without text
	NoFinal = "(no final)"
	// ErrorPrefix starts the answer of a failed run
	ErrorPrefix = "Error: "
)

// ErrInvalidRequest is returned when the run request is not valid
var ErrInvalidRequest = errors.New("invalid request")

// Request starts a run
type Request struct {
	Message  string               `json:"message" yaml:"message"`
	History  []*trace.ChatMessage `json:"history,omitempty" yaml:"history,omitempty"`
	MaxSteps int                  `json:"max_steps" yaml:"max_steps" validate:"min=1"`
	RunName  string               `json:"run_name,omitempty" yaml:"run_name,omitempty"`
	// APIKey overrides the decision model credential for this run.
	// It is never recorded.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// NewRequest returns a request with the default step budget
func NewRequest(message string) *Request {
	return &Request{
		Message:  message,
		MaxSteps: DefaultMaxSteps,
	}
}

// Response is the outcome of a run
type Response struct {
	RunID  string       `json:"run_id" yaml:"run_id" toml:"run_id"`
	Final  string       `json:"final" yaml:"final" toml:"final"`
	Status trace.Status `json:"status" yaml:"status" toml:"status"`
}

// Selector returns the decision source for a run
type Selector interface {
	Source(apiKey string) (decision.Source, error)
}

type staticSelector struct {
	src decision.Source
}

func (s staticSelector) Source(string) (decision.Source, error) {
	return s.src, nil
}

// Static returns a Selector that always returns src
func Static(src decision.Source) Selector {
	return staticSelector{src: src}
}

// Option configures the agent
type Option func(*Agent)

// WithCallback sets the callback
func WithCallback(cb Callback) Option {
	return func(a *Agent) {
		a.callback = cb
	}
}

// Agent runs the decision loop over a tool registry.
// It is safe to run concurrently, each run owns its trace.
type Agent struct {
	registry *tools.Registry
	store    trace.Store
	selector Selector
	callback Callback
	validate *validator.Validate
}

// New returns an agent
func New(registry *tools.Registry, store trace.Store, selector Selector, opts ...Option) *Agent {
	a := &Agent{
		registry: registry,
		store:    store,
		selector: selector,
		callback: noopCallback{},
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Registry returns the tool registry
func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// Store returns the trace store
func (a *Agent) Store() trace.Store {
	return a.store
}

// Run executes the loop for the request.
// An error is returned only when the request is invalid or the run can not be created,
// failures during the run are reported with trace.StatusFailed.
func (a *Agent) Run(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.Mark(errors.New("missing request"), ErrInvalidRequest)
	}
	if err := a.validate.Struct(req); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "invalid request"), ErrInvalidRequest)
	}

	history := req.History
	if history == nil {
		history = []*trace.ChatMessage{}
	}
	run, err := a.store.NewRun(ctx, &trace.Input{
		Message:  req.Message,
		History:  history,
		MaxSteps: req.MaxSteps,
		RunName:  req.RunName,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create run")
	}

	started := time.Now()
	t0 := a.store.NowMS()
	a.notify(ctx, run, "run_start", func() { a.callback.OnRunStart(ctx, run) })

	strategy := "unknown"
	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Newf("panic: %v", r)
			}
		}()

		src, err := a.selector.Source(req.APIKey)
		if err != nil {
			return err
		}
		strategy = src.Name()
		return a.loop(ctx, run, src, req)
	}()

	final := run.Final
	if err != nil {
		final = a.fail(ctx, run, err)
	}
	a.finish(ctx, run, t0)

	metricskey.PerfAgentRun.MeasureSince(started, strategy)
	metricskey.StatsRunSteps.IncrCounter(float64(len(run.Steps)), strategy)
	switch run.Status {
	case trace.StatusFinalized:
		metricskey.StatsRunFinalized.IncrCounter(1, strategy)
	case trace.StatusExhausted:
		metricskey.StatsRunExhausted.IncrCounter(1, strategy)
	default:
		metricskey.StatsRunFailed.IncrCounter(1, strategy)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"run_id", run.RunID,
		"strategy", strategy,
		"status", run.Status,
		"steps", len(run.Steps),
		"duration_ms", run.DurationMS,
	)

	return &Response{
		RunID:  run.RunID,
		Final:  final,
		Status: run.Status,
	}, nil
}

func (a *Agent) loop(ctx context.Context, run *trace.Run, src decision.Source, req *Request) error {
	observation := ""
	for n := 1; n <= req.MaxSteps; n++ {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}

		step := &trace.Step{
			Step:        n,
			StartedAtMS: a.store.NowMS(),
		}
		step.Plan = Plan(observation)
		run.AddEvent(a.store.NowMS(), trace.EventPlan, map[string]any{
			"step": n,
			"plan": step.Plan,
		})

		choice, err := src.Decide(ctx, &decision.Request{
			Message:     req.Message,
			Plan:        step.Plan,
			Observation: observation,
			Specs:       a.registry.ListSpecs(),
		})
		if err != nil {
			return err
		}
		if choice == nil {
			return errors.Newf("%s returned no decision", src.Name())
		}
		if choice.Fallback {
			a.callback.OnDecisionFallback(ctx, run, choice)
		}

		if !choice.IsTool() {
			step.Observation = observation
			step.EndedAtMS = a.store.NowMS()
			run.Steps = append(run.Steps, step)
			a.callback.OnStep(ctx, run, step)

			run.Final = choice.FinalText(NoFinal)
			run.Status = trace.StatusFinalized
			run.AddEvent(a.store.NowMS(), trace.EventFinal, map[string]any{
				"step":     n,
				"final":    run.Final,
				"fallback": choice.Fallback,
			})
			return nil
		}

		call := choice.ToolCall
		run.AddEvent(a.store.NowMS(), trace.EventToolSelected, map[string]any{
			"step":      n,
			"tool_name": call.ToolName,
			"reasoning": choice.Reasoning,
		})
		run.AddEvent(a.store.NowMS(), trace.EventToolStarted, callData(call))
		a.callback.OnToolStart(ctx, run, call)

		result, err := a.registry.Run(ctx, call.ToolName, call.Arguments)
		if err != nil {
			return err
		}

		run.AddEvent(a.store.NowMS(), trace.EventToolFinished, resultData(result))
		a.callback.OnToolEnd(ctx, run, call, result)

		observation = Observe(call, result)
		run.AddEvent(a.store.NowMS(), trace.EventObservation, map[string]any{
			"step":        n,
			"observation": observation,
		})

		step.ToolCall = call
		step.ToolResult = result
		step.Observation = observation
		step.EndedAtMS = a.store.NowMS()
		run.Steps = append(run.Steps, step)
		a.callback.OnStep(ctx, run, step)
	}

	run.Final = strings.TrimSpace(fmt.Sprintf("Reached max_steps=%d. Last observation: %s", req.MaxSteps, observation))
	run.Status = trace.StatusExhausted
	return nil
}

// fail records the error and returns the answer of the failed run
func (a *Agent) fail(ctx context.Context, run *trace.Run, err error) string {
	msg := err.Error()
	run.Error = msg
	run.Status = trace.StatusFailed
	run.AddEvent(a.store.NowMS(), trace.EventError, map[string]any{
		"error": msg,
	})

	logger.ContextKV(ctx, xlog.ERROR,
		"run_id", run.RunID,
		"err", msg,
	)
	a.notify(ctx, run, "run_error", func() { a.callback.OnRunError(ctx, run, err) })
	return ErrorPrefix + msg
}

// finish saves the terminal run.
// The save is detached from the caller's cancellation.
func (a *Agent) finish(ctx context.Context, run *trace.Run, t0 int64) {
	run.DurationMS = a.store.NowMS() - t0
	if err := a.store.Save(context.WithoutCancel(ctx), run); err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "save",
			"run_id", run.RunID,
			"err", err.Error(),
		)
	}
	if run.Status != trace.StatusFailed {
		a.notify(ctx, run, "run_end", func() { a.callback.OnRunEnd(ctx, run) })
	}
}

// notify calls a run level callback, a panic is logged and dropped
func (a *Agent) notify(ctx context.Context, run *trace.Run, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"reason", "callback",
				"event", event,
				"run_id", run.RunID,
				"panic", r,
			)
		}
	}()
	fn()
}

func callData(call *tools.Call) map[string]any {
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return map[string]any{
		"tool_name": call.ToolName,
		"arguments": args,
	}
}

func resultData(res *tools.Result) map[string]any {
	data := map[string]any{
		"tool_name": res.ToolName,
		"ok":        res.OK,
	}
	if res.OK {
		data["output"] = res.Output
	} else {
		data["error"] = res.Error
	}
	return data
}
