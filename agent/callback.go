package agent

import (
	"context"

	"github.com/effective-security/miniagent/decision"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/trace"
)

// Callback receives notifications of the loop transitions.
// Implementations must not modify the run.
type Callback interface {
	OnRunStart(ctx context.Context, run *trace.Run)
	OnStep(ctx context.Context, run *trace.Run, step *trace.Step)
	OnToolStart(ctx context.Context, run *trace.Run, call *tools.Call)
	OnToolEnd(ctx context.Context, run *trace.Run, call *tools.Call, result *tools.Result)
	OnDecisionFallback(ctx context.Context, run *trace.Run, choice *decision.Choice)
	OnRunEnd(ctx context.Context, run *trace.Run)
	OnRunError(ctx context.Context, run *trace.Run, err error)
}

type noopCallback struct{}

func (noopCallback) OnRunStart(context.Context, *trace.Run)                            {}
func (noopCallback) OnStep(context.Context, *trace.Run, *trace.Step)                   {}
func (noopCallback) OnToolStart(context.Context, *trace.Run, *tools.Call)              {}
func (noopCallback) OnToolEnd(context.Context, *trace.Run, *tools.Call, *tools.Result) {}
func (noopCallback) OnDecisionFallback(context.Context, *trace.Run, *decision.Choice)  {}
func (noopCallback) OnRunEnd(context.Context, *trace.Run)                              {}
func (noopCallback) OnRunError(context.Context, *trace.Run, error)                     {}
