package trace

import (
	"github.com/effective-security/miniagent/tools"
)

// Status is the terminal state of a run
type Status string

const (
	StatusRunning   Status = "running"
	StatusFinalized Status = "finalized"
	StatusExhausted Status = "exhausted"
	StatusFailed    Status = "failed"
)

// EventType is the type of a trace event
type EventType string

const (
	EventPlan         EventType = "plan"
	EventToolSelected EventType = "tool_selected"
	EventToolStarted  EventType = "tool_started"
	EventToolFinished EventType = "tool_finished"
	EventObservation  EventType = "observation"
	EventFinal        EventType = "final"
	EventError        EventType = "error"
)

// ChatMessage is a prior conversation turn supplied with the run
type ChatMessage struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Input is the recorded run request.
// Credentials are never part of it.
type Input struct {
	Message  string         `json:"message" yaml:"message"`
	History  []*ChatMessage `json:"history" yaml:"history"`
	MaxSteps int            `json:"max_steps" yaml:"max_steps"`
	RunName  string         `json:"run_name,omitempty" yaml:"run_name,omitempty"`
}

// Event is a timestamped record of a loop transition
type Event struct {
	TimeMS int64          `json:"t_ms" yaml:"t_ms"`
	Type   EventType      `json:"type" yaml:"type"`
	Data   map[string]any `json:"data" yaml:"data"`
}

// Step is one iteration of the agent loop
type Step struct {
	Step        int           `json:"step" yaml:"step"`
	Plan        string        `json:"plan" yaml:"plan"`
	ToolCall    *tools.Call   `json:"tool_call,omitempty" yaml:"tool_call,omitempty"`
	ToolResult  *tools.Result `json:"tool_result,omitempty" yaml:"tool_result,omitempty"`
	Observation string        `json:"observation" yaml:"observation"`
	StartedAtMS int64         `json:"started_at_ms" yaml:"started_at_ms"`
	EndedAtMS   int64         `json:"ended_at_ms" yaml:"ended_at_ms"`
}

// Run is the complete record of one agent execution
type Run struct {
	RunID       string   `json:"run_id" yaml:"run_id"`
	CreatedAtMS int64    `json:"created_at_ms" yaml:"created_at_ms"`
	Input       *Input   `json:"input" yaml:"input"`
	Steps       []*Step  `json:"steps" yaml:"steps"`
	Events      []*Event `json:"events" yaml:"events"`
	Final       string   `json:"final,omitempty" yaml:"final,omitempty"`
	Error       string   `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS  int64    `json:"duration_ms" yaml:"duration_ms"`
	Status      Status   `json:"status" yaml:"status"`
}

// AddEvent appends an event to the run
func (r *Run) AddEvent(tms int64, typ EventType, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	r.Events = append(r.Events, &Event{TimeMS: tms, Type: typ, Data: data})
}

// Clone returns a deep copy of the run
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	c := *r
	if r.Input != nil {
		in := *r.Input
		in.History = make([]*ChatMessage, len(r.Input.History))
		for i, m := range r.Input.History {
			cm := *m
			in.History[i] = &cm
		}
		c.Input = &in
	}

	c.Steps = make([]*Step, len(r.Steps))
	for i, s := range r.Steps {
		cs := *s
		if s.ToolCall != nil {
			cs.ToolCall = &tools.Call{
				ToolName:  s.ToolCall.ToolName,
				Arguments: copyMap(s.ToolCall.Arguments),
			}
		}
		if s.ToolResult != nil {
			res := *s.ToolResult
			res.Output = copyMap(s.ToolResult.Output)
			cs.ToolResult = &res
		}
		c.Steps[i] = &cs
	}

	c.Events = make([]*Event, len(r.Events))
	for i, e := range r.Events {
		c.Events[i] = &Event{
			TimeMS: e.TimeMS,
			Type:   e.Type,
			Data:   copyMap(e.Data),
		}
	}
	return &c
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = copyValue(v)
	}
	return c
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		c := make([]any, len(t))
		for i, item := range t {
			c[i] = copyValue(item)
		}
		return c
	case []map[string]any:
		c := make([]map[string]any, len(t))
		for i, item := range t {
			c[i] = copyMap(item)
		}
		return c
	default:
		return v
	}
}
