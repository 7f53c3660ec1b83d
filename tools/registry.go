package tools

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/metricskey"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// ErrToolNotFound is returned when a tool name is not registered
var ErrToolNotFound = errors.New("tool not found")

// Registry holds tools by name and dispatches calls.
// It is safe for concurrent use.
type Registry struct {
	lock  sync.RWMutex
	tools map[string]ITool
	// registration order
	names []string
}

// NewRegistry returns a registry with the tools registered in order
func NewRegistry(tools ...ITool) *Registry {
	r := &Registry{
		tools: make(map[string]ITool),
	}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register inserts the tool, or replaces a tool with the same name.
// A replaced tool keeps its original position.
func (r *Registry) Register(tool ITool) {
	name := tool.Spec().Name

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.tools[name]; !ok {
		r.names = append(r.names, name)
	}
	r.tools[name] = tool
}

// ListSpecs returns the specs in registration order
func (r *Registry) ListSpecs() []*Spec {
	r.lock.RLock()
	defer r.lock.RUnlock()

	specs := make([]*Spec, 0, len(r.names))
	for _, name := range r.names {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.names)
}

// Get returns the tool by name, or ErrToolNotFound
func (r *Registry) Get(name string) (ITool, error) {
	r.lock.RLock()
	tool, ok := r.tools[name]
	r.lock.RUnlock()

	if !ok {
		return nil, errors.Mark(errors.Newf("Unknown tool: %s", name), ErrToolNotFound)
	}
	return tool, nil
}

// Run calls the named tool.
// An error is returned only when the tool is not registered.
// A denied tool is not invoked, the result carries the permission reason.
func (r *Registry) Run(ctx context.Context, name string, args map[string]any) (*Result, error) {
	tool, err := r.Get(name)
	if err != nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING, "reason", "not_found", "tool", name)
		return nil, err
	}

	spec := tool.Spec()
	if !spec.Permission.Allow {
		metricskey.StatsToolCallsDenied.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.DEBUG,
			"reason", "denied",
			"tool", name,
			"permission", spec.Permission.Reason,
		)
		return Failed(name, values.StringsCoalesce(spec.Permission.Reason, DefaultDenyReason)), nil
	}

	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, name)

	res := tool.Run(ctx, args)
	if res == nil {
		res = Failed(name, "tool returned no result")
	}
	if res.OK {
		metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	} else {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
	}
	return res, nil
}
