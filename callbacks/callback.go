package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/miniagent/agent"
	"github.com/effective-security/miniagent/decision"
	"github.com/effective-security/miniagent/pkg/llmutils"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/trace"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ agent.Callback = (*Noop)(nil)
	_ agent.Callback = (*Printer)(nil)
	_ agent.Callback = (*PackageLogger)(nil)
	_ agent.Callback = (*Fanout)(nil)
	_ agent.Callback = (*Scratchpad)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []agent.Callback
}

func NewFanout(callbacks ...agent.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback agent.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnRunStart(ctx context.Context, run *trace.Run) {
	for _, callback := range l.callbacks {
		callback.OnRunStart(ctx, run)
	}
}

func (l *Fanout) OnStep(ctx context.Context, run *trace.Run, step *trace.Step) {
	for _, callback := range l.callbacks {
		callback.OnStep(ctx, run, step)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, run *trace.Run, call *tools.Call) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, run, call)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, run *trace.Run, call *tools.Call, result *tools.Result) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, run, call, result)
	}
}

func (l *Fanout) OnDecisionFallback(ctx context.Context, run *trace.Run, choice *decision.Choice) {
	for _, callback := range l.callbacks {
		callback.OnDecisionFallback(ctx, run, choice)
	}
}

func (l *Fanout) OnRunEnd(ctx context.Context, run *trace.Run) {
	for _, callback := range l.callbacks {
		callback.OnRunEnd(ctx, run)
	}
}

func (l *Fanout) OnRunError(ctx context.Context, run *trace.Run, err error) {
	for _, callback := range l.callbacks {
		callback.OnRunError(ctx, run, err)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnRunStart(ctx context.Context, run *trace.Run)                    {}
func (l *Noop) OnStep(ctx context.Context, run *trace.Run, step *trace.Step)      {}
func (l *Noop) OnToolStart(ctx context.Context, run *trace.Run, call *tools.Call) {}
func (l *Noop) OnToolEnd(ctx context.Context, run *trace.Run, call *tools.Call, result *tools.Result) {
}
func (l *Noop) OnDecisionFallback(ctx context.Context, run *trace.Run, choice *decision.Choice) {
}
func (l *Noop) OnRunEnd(ctx context.Context, run *trace.Run)              {}
func (l *Noop) OnRunError(ctx context.Context, run *trace.Run, err error) {}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnRunStart(ctx context.Context, run *trace.Run) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Run Start: %s\n", run.RunID)
	if run.Input != nil {
		fmt.Fprintf(l.Out, "Input: %s\n", run.Input.Message)
	}
}

func (l *Printer) OnStep(ctx context.Context, run *trace.Run, step *trace.Step) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Step %d: %s\n", step.Step, step.Plan)
	if l.Mode == ModeVerbose && step.Observation != "" {
		fmt.Fprintf(l.Out, "Observation: %s\n", step.Observation)
	}
}

func (l *Printer) OnToolStart(ctx context.Context, run *trace.Run, call *tools.Call) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s\n", call.ToolName)
	fmt.Fprintf(l.Out, "Input: %s\n", llmutils.ToCompactJSON(call.Arguments))
}

func (l *Printer) OnToolEnd(ctx context.Context, run *trace.Run, call *tools.Call, result *tools.Result) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !result.OK {
		fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", call.ToolName, result.Error)
		return
	}
	fmt.Fprintf(l.Out, "Tool End: %s\n", call.ToolName)
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", llmutils.ToCompactJSON(result.Output))
	}
}

func (l *Printer) OnDecisionFallback(ctx context.Context, run *trace.Run, choice *decision.Choice) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Decision Fallback: %s\n", choice.FinalText(""))
}

func (l *Printer) OnRunEnd(ctx context.Context, run *trace.Run) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Run End: %s: %s, %d steps, %dms\n", run.RunID, run.Status, len(run.Steps), run.DurationMS)
}

func (l *Printer) OnRunError(ctx context.Context, run *trace.Run, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Run Error: %s: %s\n", run.RunID, err.Error())
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnRunStart(ctx context.Context, run *trace.Run) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "run_start",
		"run_id", run.RunID,
	)
}

func (l *PackageLogger) OnStep(ctx context.Context, run *trace.Run, step *trace.Step) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "step",
		"run_id", run.RunID,
		"step", step.Step,
		"duration_ms", step.EndedAtMS-step.StartedAtMS,
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, run *trace.Run, call *tools.Call) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"run_id", run.RunID,
		"tool", call.ToolName,
		"input", llmutils.ToCompactJSON(call.Arguments),
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, run *trace.Run, call *tools.Call, result *tools.Result) {
	if !result.OK {
		l.logger.ContextKV(ctx, xlog.WARNING,
			"event", "tool_error",
			"run_id", run.RunID,
			"tool", call.ToolName,
			"err", result.Error,
		)
		return
	}
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"run_id", run.RunID,
		"tool", call.ToolName,
	)
}

func (l *PackageLogger) OnDecisionFallback(ctx context.Context, run *trace.Run, choice *decision.Choice) {
	l.logger.ContextKV(ctx, xlog.WARNING,
		"event", "decision_fallback",
		"run_id", run.RunID,
		"final", choice.FinalText(""),
	)
}

func (l *PackageLogger) OnRunEnd(ctx context.Context, run *trace.Run) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "run_end",
		"run_id", run.RunID,
		"status", run.Status,
		"steps", len(run.Steps),
	)
}

func (l *PackageLogger) OnRunError(ctx context.Context, run *trace.Run, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "run_error",
		"run_id", run.RunID,
		"err", err.Error(),
	)
}
