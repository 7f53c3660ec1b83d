// Package app builds the agent and its dependencies from the configuration.
package app

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/agent"
	"github.com/effective-security/miniagent/callbacks"
	"github.com/effective-security/miniagent/config"
	"github.com/effective-security/miniagent/decision"
	"github.com/effective-security/miniagent/pkg/llmfactory"
	"github.com/effective-security/miniagent/pkg/retriever"
	"github.com/effective-security/miniagent/server"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/tools/calculator"
	"github.com/effective-security/miniagent/tools/retrieval"
	"github.com/effective-security/miniagent/tools/summarizer"
	"github.com/effective-security/miniagent/tools/tavily"
	"github.com/effective-security/miniagent/trace"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "app")

// Option configures the App
type Option func(*options)

type options struct {
	callbacks []agent.Callback
	store     trace.Store
	clock     trace.Clock
}

// WithCallback adds a callback to the agent
func WithCallback(cb agent.Callback) Option {
	return func(o *options) {
		o.callbacks = append(o.callbacks, cb)
	}
}

// WithStore replaces the configured trace store
func WithStore(store trace.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithClock sets the clock of the configured trace store
func WithClock(clock trace.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// App holds the wired components
type App struct {
	Config    *config.Config
	Retriever *retriever.Retriever
	Registry  *tools.Registry
	Audit     *trace.AuditLog
	Store     trace.Store
	Arena     *decision.Arena
	Agent     *agent.Agent

	redis redis.UniversalClient
}

// New returns the App for the configuration
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config: cfg,
		Audit:  trace.NewAuditLog(cfg.LogDir),
	}

	var err error
	if a.Retriever, err = retriever.Load(cfg.CorpusDir); err != nil {
		return nil, errors.WithMessage(err, "failed to load corpus")
	}
	if a.Registry, err = newRegistry(cfg, a.Retriever); err != nil {
		return nil, err
	}

	a.Store = o.store
	if a.Store == nil {
		if a.Store, err = a.newStore(cfg, o.clock); err != nil {
			return nil, err
		}
	}

	codec, err := decision.NewCodec(cfg.DecisionFormat)
	if err != nil {
		return nil, err
	}
	a.Arena = decision.NewArena(cfg.Strategy, cfg.IsMockMode(), decision.WithCodec(codec))
	decision.RegisterLLM(a.Arena, llmfactory.New(&cfg.LLM), cfg.ProviderNames()...)

	cb := callbacks.NewFanout(callbacks.NewPackageLogger(logger))
	for _, c := range o.callbacks {
		cb.Add(c)
	}
	a.Agent = agent.New(a.Registry, a.Store, a.Arena, agent.WithCallback(cb))

	logger.KV(xlog.INFO,
		"mock_mode", cfg.IsMockMode(),
		"strategy", cfg.Strategy,
		"decision_format", codec.Mode(),
		"strategies", a.Arena.Names(),
		"tools", a.Registry.Len(),
		"corpus", a.Retriever.Len(),
		"redis", a.redis != nil,
		"log_dir", cfg.LogDir,
	)
	return a, nil
}

// Server returns the HTTP server for the agent
func (a *App) Server() *server.Server {
	return server.New(a.Agent, server.Config{
		Addr:            a.Config.Addr,
		DocsDir:         a.Config.DocsDir,
		StaticDir:       a.Config.StaticDir,
		DefaultMaxSteps: a.Config.DefaultMaxSteps,
	})
}

// NewRequest returns a run request with the configured step budget
func (a *App) NewRequest(message string) *agent.Request {
	req := agent.NewRequest(message)
	req.MaxSteps = a.Config.DefaultMaxSteps
	return req
}

// Close releases the connections
func (a *App) Close() error {
	if a.redis != nil {
		return errors.WithStack(a.redis.Close())
	}
	return nil
}

func newRegistry(cfg *config.Config, r *retriever.Retriever) (*tools.Registry, error) {
	calc, err := calculator.New()
	if err != nil {
		return nil, err
	}
	sum, err := summarizer.New()
	if err != nil {
		return nil, err
	}
	ret, err := retrieval.New(r)
	if err != nil {
		return nil, err
	}
	web, err := tavily.New(tavily.Config{
		APIKey:  cfg.Tavily.APIKey,
		BaseURL: cfg.Tavily.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return tools.NewRegistry(calc, sum, ret, web), nil
}

func (a *App) newStore(cfg *config.Config, clock trace.Clock) (trace.Store, error) {
	opts := []trace.Option{trace.WithAuditLog(a.Audit)}
	if clock != nil {
		opts = append(opts, trace.WithClock(clock))
	}

	if cfg.Redis.URL == "" {
		return trace.NewMemoryStore(opts...), nil
	}

	ropts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}
	a.redis = redis.NewClient(ropts)
	return trace.NewRedisStore(a.redis, cfg.Redis.Prefix, opts...), nil
}
