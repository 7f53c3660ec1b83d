package trace

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "trace")

// ErrNotFound is returned when the run does not exist
var ErrNotFound = errors.New("run_id not found")

// DefaultListLimit is the number of runs returned by List when limit is not positive
const DefaultListLimit = 50

// Store persists run traces.
// Stores keep their own copies, a run returned by Get or List
// can be modified by the caller without affecting the store.
type Store interface {
	// NewRun allocates a run with a unique id and the creation time
	NewRun(ctx context.Context, input *Input) (*Run, error)
	// Get returns the run by id, or ErrNotFound
	Get(ctx context.Context, runID string) (*Run, error)
	// List returns at most limit of the most recent runs, newest first
	List(ctx context.Context, limit int) ([]*Run, error)
	// Save stores a snapshot of the run
	Save(ctx context.Context, run *Run) error
	// NowMS returns the store clock
	NowMS() int64
}

// Option configures a store
type Option func(*options)

type options struct {
	clock Clock
	audit *AuditLog
}

// WithClock sets the store clock
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithAuditLog enables the JSONL audit log
func WithAuditLog(a *AuditLog) Option {
	return func(o *options) {
		o.audit = a
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = NewSystemClock()
	}
	return o
}

func (o *options) newRun(ctx context.Context, input *Input) *Run {
	if input == nil {
		input = &Input{}
	}
	run := &Run{
		RunID:       uuid.NewString(),
		CreatedAtMS: o.clock.NowMS(),
		Input:       input,
		Steps:       []*Step{},
		Events:      []*Event{},
		Status:      StatusRunning,
	}
	o.audit.Append(ctx, run.RunID, &AuditRecord{
		Type:   RecordRunCreated,
		TimeMS: o.clock.NowMS(),
		Input:  input,
	})
	return run
}

func (o *options) saved(ctx context.Context, run *Run) {
	d := run.DurationMS
	o.audit.Append(ctx, run.RunID, &AuditRecord{
		Type:       RecordRunSaved,
		TimeMS:     o.clock.NowMS(),
		DurationMS: &d,
	})
}

func validateRun(run *Run) error {
	if run == nil || run.RunID == "" {
		return errors.New("invalid run: missing run_id")
	}
	return nil
}
