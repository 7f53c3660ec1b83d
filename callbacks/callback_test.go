package callbacks_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/effective-security/miniagent/callbacks"
	"github.com/effective-security/miniagent/decision"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/trace"
	"github.com/effective-security/xlog"
	"github.com/stretchr/testify/assert"
)

func testRun() *trace.Run {
	return &trace.Run{
		RunID:  "run1",
		Input:  &trace.Input{Message: "calculate 1+1", MaxSteps: 6},
		Status: trace.StatusFinalized,
		Final:  "Result: 2.0",
		Steps:  []*trace.Step{{Step: 1}},
	}
}

func emit(cb interface {
	OnRunStart(context.Context, *trace.Run)
	OnStep(context.Context, *trace.Run, *trace.Step)
	OnToolStart(context.Context, *trace.Run, *tools.Call)
	OnToolEnd(context.Context, *trace.Run, *tools.Call, *tools.Result)
	OnDecisionFallback(context.Context, *trace.Run, *decision.Choice)
	OnRunEnd(context.Context, *trace.Run)
	OnRunError(context.Context, *trace.Run, error)
}) {
	ctx := context.Background()
	run := testRun()
	call := &tools.Call{ToolName: "calculator", Arguments: map[string]any{"expression": "1+1"}}

	cb.OnRunStart(ctx, run)
	cb.OnToolStart(ctx, run, call)
	cb.OnToolEnd(ctx, run, call, tools.Succeeded("calculator", map[string]any{"result": 2.0}))
	cb.OnToolEnd(ctx, run, call, tools.Failed("calculator", "division by zero"))
	cb.OnStep(ctx, run, &trace.Step{Step: 1, Plan: "plan", Observation: "Result: 2.0"})
	cb.OnDecisionFallback(ctx, run, decision.FinalChoice(decision.FallbackPrefix+"oops"))
	cb.OnRunEnd(ctx, run)
	cb.OnRunError(ctx, run, errors.New("test error"))
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	emit(callbacks.NewPrinter(&buf, callbacks.ModeVerbose))

	res := buf.String()
	assert.Contains(t, res, "Run Start: run1")
	assert.Contains(t, res, "Input: calculate 1+1")
	assert.Contains(t, res, "Tool Start: calculator")
	assert.Contains(t, res, `Input: {"expression":"1+1"}`)
	assert.Contains(t, res, "Tool End: calculator")
	assert.Contains(t, res, `Output: {"result":2}`)
	assert.Contains(t, res, "Tool Error: calculator: division by zero")
	assert.Contains(t, res, "Step 1: plan")
	assert.Contains(t, res, "Observation: Result: 2.0")
	assert.Contains(t, res, "Decision Fallback: (LLM returned invalid ToolChoice JSON) oops")
	assert.Contains(t, res, "Run End: run1: finalized, 1 steps")
	assert.Contains(t, res, "Run Error: run1: test error")

	buf.Reset()
	emit(callbacks.NewPrinter(&buf, callbacks.ModeDefault))
	res = buf.String()
	assert.NotContains(t, res, "Output:")
	assert.NotContains(t, res, "Observation:")
}

func TestFanout(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	f := callbacks.NewFanout(callbacks.NewPrinter(&buf1, callbacks.ModeDefault), callbacks.NewNoop())
	f.Add(callbacks.NewPrinter(&buf2, callbacks.ModeDefault))
	f.Add(callbacks.NewPackageLogger(xlog.NewPackageLogger("github.com/effective-security/miniagent", "callbacks_test")))
	emit(f)

	assert.NotEmpty(t, buf1.String())
	assert.Equal(t, buf1.String(), buf2.String())
}
