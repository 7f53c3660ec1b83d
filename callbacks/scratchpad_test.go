package callbacks_test

import (
	"context"
	"testing"
	"time"

	"github.com/effective-security/miniagent/callbacks"
	"github.com/effective-security/miniagent/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchpad(t *testing.T) {
	callbacks.TimeNowFn = func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	t.Cleanup(func() {
		callbacks.TimeNowFn = time.Now
	})

	sp := callbacks.NewScratchpad(callbacks.ModeVerbose)
	emit(sp)

	stats, buf := sp.EndRun("run1")
	require.NotNil(t, stats)
	assert.Equal(t, "run1", stats.RunID)
	assert.Equal(t, trace.StatusFailed, stats.Status)
	assert.Equal(t, uint32(1), stats.Steps)
	assert.Equal(t, uint32(1), stats.ToolsCalls)
	assert.Equal(t, uint32(1), stats.ToolsCallsSucceeded)
	assert.Equal(t, uint32(1), stats.ToolsCallsFailed)
	assert.Equal(t, uint32(1), stats.DecisionFallbacks)

	res := string(buf)
	assert.Contains(t, res, "2024-01-02 03:04:05 run1 *** Run Started ***\n")
	assert.Contains(t, res, "run1 Input: calculate 1+1\n")
	assert.Contains(t, res, "run1 calculator *** Tool Start ***\n")
	assert.Contains(t, res, "run1 calculator Output: {\"result\":2}\n")
	assert.Contains(t, res, "run1 calculator *** Tool Error *** division by zero\n")
	assert.Contains(t, res, "run1 *** Step 1 *** plan\n")
	assert.Contains(t, res, "run1 Final: Result: 2.0\n")
	assert.Contains(t, res, "run1 *** Error *** test error\n")
	assert.Contains(t, res, "Tool calls: 1, Failed: 1")
	assert.Contains(t, res, "*** Run Ended. Status: failed")

	// released
	s2, b2 := sp.EndRun("run1")
	assert.Nil(t, s2)
	assert.Nil(t, b2)
}

func TestScratchpad_UnknownRun(t *testing.T) {
	t.Parallel()

	sp := callbacks.NewScratchpad(callbacks.ModeDefault)
	run := &trace.Run{RunID: "unknown"}
	// no panic without OnRunStart
	sp.OnStep(context.Background(), run, &trace.Step{Step: 1})
	sp.OnRunEnd(context.Background(), run)
	stats, _ := sp.EndRun("unknown")
	assert.Nil(t, stats)
}
