package trace_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/trace"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock() trace.Clock {
	var now atomic.Int64
	now.Store(1_700_000_000_000)
	return trace.ClockFunc(func() int64 {
		return now.Add(1)
	})
}

func sampleRun(run *trace.Run) *trace.Run {
	run.Steps = append(run.Steps, &trace.Step{
		Step: 1,
		Plan: "plan",
		ToolCall: &tools.Call{
			ToolName:  "calculator",
			Arguments: map[string]any{"expression": "2+3"},
		},
		ToolResult: &tools.Result{
			ToolName: "calculator",
			OK:       true,
			Output:   map[string]any{"result": float64(5)},
		},
		Observation: "Result: 5.0",
		StartedAtMS: 10,
		EndedAtMS:   12,
	})
	run.AddEvent(11, trace.EventToolStarted, map[string]any{
		"tool_name": "calculator",
		"arguments": map[string]any{"expression": "2+3"},
	})
	run.AddEvent(12, trace.EventFinal, nil)
	run.Final = "Result: 5.0"
	run.Status = trace.StatusFinalized
	run.DurationMS = 3
	return run
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := trace.NewMemoryStore(trace.WithClock(fakeClock()))

	run, err := st.NewRun(ctx, &trace.Input{Message: "calculate 2+3", MaxSteps: 6})
	require.NoError(t, err)
	assert.Len(t, run.RunID, 36)
	assert.Equal(t, trace.StatusRunning, run.Status)
	assert.Greater(t, run.CreatedAtMS, int64(0))
	assert.NotNil(t, run.Steps)
	assert.NotNil(t, run.Events)

	got, err := st.Get(ctx, run.RunID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(run, got))

	sampleRun(run)
	require.NoError(t, st.Save(ctx, run))

	got, err = st.Get(ctx, run.RunID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(run, got))

	// the stored copy is isolated from the caller
	run.Steps[0].ToolCall.Arguments["expression"] = "1+1"
	run.Events[0].Data["tool_name"] = "other"
	got.Final = "changed"
	got2, err := st.Get(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "2+3", got2.Steps[0].ToolCall.Arguments["expression"])
	assert.Equal(t, "calculator", got2.Events[0].Data["tool_name"])
	assert.Equal(t, "Result: 5.0", got2.Final)
	assert.Equal(t, map[string]any{}, got2.Events[1].Data)
}

func TestMemoryStore_NotFound(t *testing.T) {
	st := trace.NewMemoryStore()
	_, err := st.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, trace.ErrNotFound))
	assert.EqualError(t, err, "run_id not found")

	assert.EqualError(t, st.Save(context.Background(), &trace.Run{}), "invalid run: missing run_id")
	assert.Error(t, st.Save(context.Background(), nil))
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	st := trace.NewMemoryStore()

	list, err := st.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	var ids []string
	for i := range 5 {
		run, err := st.NewRun(ctx, &trace.Input{Message: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
		ids = append(ids, run.RunID)
	}

	list, err = st.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[4], list[0].RunID)
	assert.Equal(t, ids[3], list[1].RunID)
	assert.Equal(t, ids[2], list[2].RunID)

	// save does not change the order
	first, err := st.Get(ctx, ids[0])
	require.NoError(t, err)
	first.Final = "done"
	require.NoError(t, st.Save(ctx, first))

	list, err = st.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, ids[4], list[0].RunID)
	assert.Equal(t, ids[0], list[4].RunID)
	assert.Equal(t, "done", list[4].Final)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	st := trace.NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			run, err := st.NewRun(ctx, &trace.Input{Message: fmt.Sprintf("m%d", i)})
			if !assert.NoError(t, err) {
				return
			}
			run.Final = "ok"
			assert.NoError(t, st.Save(ctx, run))
			_, err = st.List(ctx, 5)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := st.List(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestRun_Clone(t *testing.T) {
	var r *trace.Run
	assert.Nil(t, r.Clone())

	run := sampleRun(&trace.Run{
		RunID: "1",
		Input: &trace.Input{
			Message: "hi",
			History: []*trace.ChatMessage{{Role: "user", Content: "hello"}},
		},
	})
	run.Events[0].Data["list"] = []any{map[string]any{"a": 1}}
	c := run.Clone()
	assert.Empty(t, cmp.Diff(run, c))

	c.Input.History[0].Content = "changed"
	c.Events[0].Data["list"].([]any)[0].(map[string]any)["a"] = 2
	c.Steps[0].ToolResult.Output["result"] = 1
	assert.Equal(t, "hello", run.Input.History[0].Content)
	assert.Equal(t, 1, run.Events[0].Data["list"].([]any)[0].(map[string]any)["a"])
	assert.Equal(t, float64(5), run.Steps[0].ToolResult.Output["result"])
}
