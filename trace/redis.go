package trace

import (
	"context"
	"encoding/json"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// The redis store keeps runs in Redis, so traces survive restarts
// and can be shared by several server instances.
// The keys namespace is organized as follows:
// - `/<prefix>/runs/<runID>` for the run JSON
// - `/<prefix>/runs/index` for a sorted set of run IDs scored by creation sequence
// - `/<prefix>/runs/seq` for the creation sequence counter

type redisStore struct {
	options

	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store backed by Redis
func NewRedisStore(client redis.UniversalClient, prefix string, opts ...Option) Store {
	return &redisStore{
		options: newOptions(opts),
		client:  client,
		prefix:  prefix,
	}
}

func (m *redisStore) getRunKey(runID string) string {
	return path.Join("/", m.prefix, "runs", runID)
}

func (m *redisStore) getIndexKey() string {
	return path.Join("/", m.prefix, "runs", "index")
}

func (m *redisStore) getSeqKey() string {
	return path.Join("/", m.prefix, "runs", "seq")
}

func (m *redisStore) NowMS() int64 {
	return m.clock.NowMS()
}

func (m *redisStore) NewRun(ctx context.Context, input *Input) (*Run, error) {
	run := m.newRun(ctx, input)
	data, err := json.Marshal(run)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal run")
	}
	seq, err := m.client.Incr(ctx, m.getSeqKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate run sequence")
	}

	pipe := m.client.Pipeline()
	pipe.Set(ctx, m.getRunKey(run.RunID), data, 0)
	pipe.ZAdd(ctx, m.getIndexKey(), redis.Z{
		Score:  float64(seq),
		Member: run.RunID,
	})
	if _, err = pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to store run in Redis")
	}
	logger.ContextKV(ctx, xlog.DEBUG, "status", "created", "run_id", run.RunID)
	return run, nil
}

func (m *redisStore) Save(ctx context.Context, run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}
	if err := m.put(ctx, run); err != nil {
		return err
	}
	m.saved(ctx, run)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "saved",
		"run_id", run.RunID,
		"run_status", run.Status,
		"duration_ms", run.DurationMS)
	return nil
}

// put stores the run and keeps its index position,
// a run missing from the index is appended as the most recent
func (m *redisStore) put(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return errors.Wrap(err, "failed to marshal run")
	}

	pipe := m.client.Pipeline()
	pipe.Set(ctx, m.getRunKey(run.RunID), data, 0)
	score := pipe.ZScore(ctx, m.getIndexKey(), run.RunID)
	if _, err = pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return errors.Wrap(err, "failed to store run in Redis")
	}
	if !errors.Is(score.Err(), redis.Nil) {
		return nil
	}

	seq, err := m.client.Incr(ctx, m.getSeqKey()).Result()
	if err != nil {
		return errors.Wrap(err, "failed to allocate run sequence")
	}
	err = m.client.ZAddNX(ctx, m.getIndexKey(), redis.Z{
		Score:  float64(seq),
		Member: run.RunID,
	}).Err()
	if err != nil {
		return errors.Wrap(err, "failed to index run in Redis")
	}
	return nil
}

func (m *redisStore) Get(ctx context.Context, runID string) (*Run, error) {
	data, err := m.client.Get(ctx, m.getRunKey(runID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.WithStack(ErrNotFound)
		}
		return nil, errors.Wrap(err, "failed to get run from Redis")
	}

	run := new(Run)
	if err = json.Unmarshal([]byte(data), run); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal run")
	}
	return run, nil
}

func (m *redisStore) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	ids, err := m.client.ZRevRange(ctx, m.getIndexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Run{}, nil
		}
		return nil, errors.Wrap(err, "failed to list runs from Redis")
	}
	if len(ids) == 0 {
		return []*Run{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = m.getRunKey(id)
	}
	values, err := m.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get runs from Redis")
	}

	list := make([]*Run, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// the index may outlive the run key
			logger.ContextKV(ctx, xlog.WARNING, "reason", "missing_run", "run_id", ids[i])
			continue
		}
		run := new(Run)
		if err := json.Unmarshal([]byte(s), run); err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "reason", "unmarshal_run", "run_id", ids[i], "err", err.Error())
			continue
		}
		list = append(list, run)
	}
	return list, nil
}
