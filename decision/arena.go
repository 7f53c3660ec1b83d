package decision

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llmfactory"
	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/xlog"
)

var (
	// ErrUnknownStrategy is returned when no strategy is registered with the name
	ErrUnknownStrategy = errors.New("unknown decision strategy")
	// ErrNoCredentials is returned by a factory when the strategy has no credential
	ErrNoCredentials = errors.New("no credentials for decision strategy")
)

// Factory creates a Source.
// A non-empty apiKey overrides the configured credential.
type Factory func(apiKey string) (Source, error)

// StrategyDefault is the remote strategy over the default LLM provider
const StrategyDefault = "default"

// ArenaOption configures the Arena
type ArenaOption func(*Arena)

// WithCodec sets the reply format of the remote strategies
func WithCodec(c *Codec) ArenaOption {
	return func(a *Arena) {
		if c != nil {
			a.codec = c
		}
	}
}

// Arena holds named strategies and selects one by configuration
type Arena struct {
	strategy  string
	mockMode  bool
	heuristic Source
	codec     *Codec

	lock      sync.RWMutex
	factories map[string]Factory
}

// NewArena returns an arena with the heuristic strategy registered.
// An empty strategy selects the heuristic.
func NewArena(strategy string, mockMode bool, opts ...ArenaOption) *Arena {
	a := &Arena{
		strategy:  strategy,
		mockMode:  mockMode,
		heuristic: NewHeuristic(),
		codec:     defaultCodec,
		factories: map[string]Factory{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.strategy == "" {
		a.strategy = StrategyHeuristic
	}
	a.Register(StrategyHeuristic, func(string) (Source, error) {
		return a.heuristic, nil
	})
	return a
}

// Strategy returns the configured strategy name
func (a *Arena) Strategy() string {
	return a.strategy
}

// Codec returns the reply format of the remote strategies
func (a *Arena) Codec() *Codec {
	return a.codec
}

// MockMode returns true if the arena always selects the heuristic
func (a *Arena) MockMode() bool {
	return a.mockMode
}

// Register adds or replaces a strategy
func (a *Arena) Register(name string, f Factory) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.factories[name] = f
}

// Names returns the registered strategies, sorted
func (a *Arena) Names() []string {
	a.lock.RLock()
	defer a.lock.RUnlock()

	names := make([]string, 0, len(a.factories))
	for name := range a.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the named strategy
func (a *Arena) New(name, apiKey string) (Source, error) {
	a.lock.RLock()
	f, ok := a.factories[name]
	a.lock.RUnlock()

	if !ok {
		return nil, errors.Mark(errors.Newf("%s: %s", ErrUnknownStrategy.Error(), name), ErrUnknownStrategy)
	}
	return f(apiKey)
}

// Source returns the Source for a run.
// The heuristic is returned in mock mode,
// or when the configured strategy has no credential.
func (a *Arena) Source(apiKey string) (Source, error) {
	if a.mockMode || a.strategy == StrategyHeuristic {
		return a.heuristic, nil
	}

	src, err := a.New(a.strategy, apiKey)
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			logger.KV(xlog.DEBUG,
				"reason", "no_credentials",
				"strategy", a.strategy,
				"fallback", StrategyHeuristic)
			return a.heuristic, nil
		}
		return nil, err
	}
	return src, nil
}

// RegisterLLM registers a remote strategy for each named provider of the factory,
// and StrategyDefault for its default provider.
func RegisterLLM(a *Arena, f llmfactory.Factory, names ...string) {
	a.Register(StrategyDefault, a.llmDefault(f))
	for _, name := range names {
		a.Register(name, a.llmStrategy(f, name))
	}
}

func (a *Arena) llmStrategy(f llmfactory.Factory, name string) Factory {
	return func(apiKey string) (Source, error) {
		p, err := f.Provider(name)
		if err != nil {
			return nil, err
		}
		if apiKey == "" && !p.HasCredentials() {
			return nil, errors.Mark(errors.Newf("%s: %s", ErrNoCredentials.Error(), name), ErrNoCredentials)
		}
		model, err := f.ModelByName(name, apiKey)
		if err != nil {
			return nil, err
		}
		return NewRemote(name, model).WithCodec(a.codec), nil
	}
}

// llmDefault resolves the default provider when a run starts
func (a *Arena) llmDefault(f llmfactory.Factory) Factory {
	return func(apiKey string) (Source, error) {
		p, err := f.Provider("")
		if err != nil {
			return nil, err
		}
		if apiKey == "" && !p.HasCredentials() {
			return nil, errors.Mark(errors.Newf("%s: %s", ErrNoCredentials.Error(), StrategyDefault), ErrNoCredentials)
		}

		var model llms.Model
		if apiKey == "" {
			model, err = f.DefaultModel()
		} else {
			model, err = f.ModelByName("", apiKey)
		}
		if err != nil {
			return nil, err
		}
		return NewRemote(p.Name, model).WithCodec(a.codec), nil
	}
}
