package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/effective-security/miniagent/decision"
	"github.com/effective-security/miniagent/pkg/llmutils"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/trace"
)

// TimeNowFn returns the time of transcript entries
var TimeNowFn = time.Now

// RunStats are the counters of a run collected by Scratchpad
type RunStats struct {
	RunID  string
	Status trace.Status

	Duration            time.Duration
	Steps               uint32
	ToolsCalls          uint32
	ToolsCallsSucceeded uint32
	ToolsCallsFailed    uint32
	DecisionFallbacks   uint32
}

// Scratchpad collects a transcript and stats per run.
// Call EndRun to release the run.
type Scratchpad struct {
	runs map[string]*run
	mode Mode
	lock sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	return &Scratchpad{
		runs: make(map[string]*run),
		mode: mode,
	}
}

// EndRun returns the stats and the transcript of the run,
// or nil if the run is unknown.
func (l *Scratchpad) EndRun(runID string) (*RunStats, []byte) {
	l.lock.Lock()
	r := l.runs[runID]
	delete(l.runs, runID)
	l.lock.Unlock()

	if r == nil {
		return nil, nil
	}

	r.lock.Lock()
	stats := r.stats
	r.lock.Unlock()
	stats.Duration = TimeNowFn().Sub(r.started)

	r.print(fmt.Sprintf("Tool calls: %d, Failed: %d",
		stats.ToolsCalls,
		stats.ToolsCallsFailed,
	))
	r.print(fmt.Sprintf("Steps: %d, Decision fallbacks: %d",
		stats.Steps,
		stats.DecisionFallbacks,
	))
	r.print(fmt.Sprintf("*** Run Ended. Status: %s, Duration: %s ***", stats.Status, stats.Duration))

	return &stats, r.w.Bytes()
}

func (l *Scratchpad) getRun(runID string) *run {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.runs[runID]
}

func (l *Scratchpad) OnRunStart(ctx context.Context, tr *trace.Run) {
	r := &run{
		stats: RunStats{
			RunID:  tr.RunID,
			Status: trace.StatusRunning,
		},
		started: TimeNowFn(),
	}

	l.lock.Lock()
	l.runs[tr.RunID] = r
	l.lock.Unlock()

	r.print("*** Run Started ***")
	if tr.Input != nil {
		r.print("Input:", tr.Input.Message)
	}
}

func (l *Scratchpad) OnStep(ctx context.Context, tr *trace.Run, step *trace.Step) {
	r := l.getRun(tr.RunID)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) { s.Steps++ })
	r.print(fmt.Sprintf("*** Step %d ***", step.Step), step.Plan)
	if l.mode == ModeVerbose && step.Observation != "" {
		r.print("Observation:", step.Observation)
	}
}

func (l *Scratchpad) OnToolStart(ctx context.Context, tr *trace.Run, call *tools.Call) {
	r := l.getRun(tr.RunID)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) { s.ToolsCalls++ })
	r.print(call.ToolName, "*** Tool Start ***")
	r.print(call.ToolName, "Input:", llmutils.ToCompactJSON(call.Arguments))
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, tr *trace.Run, call *tools.Call, result *tools.Result) {
	r := l.getRun(tr.RunID)
	if r == nil {
		return
	}
	if !result.OK {
		r.update(func(s *RunStats) { s.ToolsCallsFailed++ })
		r.print(call.ToolName, "*** Tool Error ***", result.Error)
		return
	}

	r.update(func(s *RunStats) { s.ToolsCallsSucceeded++ })
	if l.mode == ModeVerbose {
		r.print(call.ToolName, "Output:", llmutils.ToCompactJSON(result.Output))
	}
	r.print(call.ToolName, "*** Tool End ***")
}

func (l *Scratchpad) OnDecisionFallback(ctx context.Context, tr *trace.Run, choice *decision.Choice) {
	r := l.getRun(tr.RunID)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) { s.DecisionFallbacks++ })
	r.print("*** Decision Fallback ***", choice.FinalText(""))
}

func (l *Scratchpad) OnRunEnd(ctx context.Context, tr *trace.Run) {
	r := l.getRun(tr.RunID)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) { s.Status = tr.Status })
	r.print("Final:", tr.Final)
}

func (l *Scratchpad) OnRunError(ctx context.Context, tr *trace.Run, err error) {
	r := l.getRun(tr.RunID)
	if r == nil {
		return
	}
	r.update(func(s *RunStats) { s.Status = trace.StatusFailed })
	r.print("*** Error ***", err.Error())
}

type run struct {
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   RunStats
}

func (r *run) update(fn func(*RunStats)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	fn(&r.stats)
}

// print writes the entries to the run's output.
// The entries are written in the following format:
// [timestamp runID] entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := TimeNowFn()
	ts := now.Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.stats.RunID)
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}
