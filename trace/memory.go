package trace

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

type memoryStore struct {
	options

	lock sync.RWMutex
	runs map[string]*Run
	// ids in creation order
	ids []string
}

// NewMemoryStore returns an in-process store
func NewMemoryStore(opts ...Option) Store {
	return &memoryStore{
		options: newOptions(opts),
		runs:    make(map[string]*Run),
	}
}

func (m *memoryStore) NowMS() int64 {
	return m.clock.NowMS()
}

func (m *memoryStore) NewRun(ctx context.Context, input *Input) (*Run, error) {
	run := m.newRun(ctx, input)

	m.lock.Lock()
	m.runs[run.RunID] = run.Clone()
	m.ids = append(m.ids, run.RunID)
	m.lock.Unlock()

	logger.ContextKV(ctx, xlog.DEBUG, "status", "created", "run_id", run.RunID)
	return run, nil
}

func (m *memoryStore) Get(_ context.Context, runID string) (*Run, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, errors.WithStack(ErrNotFound)
	}
	return run.Clone(), nil
}

func (m *memoryStore) List(_ context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	list := make([]*Run, 0, min(limit, len(m.ids)))
	for i := len(m.ids) - 1; i >= 0 && len(list) < limit; i-- {
		list = append(list, m.runs[m.ids[i]].Clone())
	}
	return list, nil
}

func (m *memoryStore) Save(ctx context.Context, run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}

	m.lock.Lock()
	if _, ok := m.runs[run.RunID]; !ok {
		m.ids = append(m.ids, run.RunID)
	}
	m.runs[run.RunID] = run.Clone()
	m.lock.Unlock()

	m.saved(ctx, run)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "saved",
		"run_id", run.RunID,
		"run_status", run.Status,
		"duration_ms", run.DurationMS)
	return nil
}
