package llmfactory

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/miniagent/pkg/llms/anthropic"
	"github.com/effective-security/miniagent/pkg/llms/bedrock"
	"github.com/effective-security/miniagent/pkg/llms/googleai"
	"github.com/effective-security/miniagent/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// Factory is the interface for creating and managing LLM models.
type Factory interface {
	// Provider returns the provider by name or API type,
	// or the default provider if name is empty.
	Provider(name string) (*ProviderConfig, error)
	// DefaultModel returns the default LLM model.
	DefaultModel() (llms.Model, error)
	// ModelByName returns a model by the provider name or API type.
	// A non-empty token overrides the configured one,
	// and such models are not cached.
	ModelByName(name, token string, preferredModels ...string) (llms.Model, error)
}

// Load returns the factory from the config file
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	defaultProvider *ProviderConfig
	byName          map[string]llms.Model
	lock            sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config) Factory {
	f := &factory{
		cfg:    cfg,
		byName: make(map[string]llms.Model),
	}

	if cfg.DefaultProvider != "" {
		f.defaultProvider = cfg.Find(cfg.DefaultProvider)
	}
	if f.defaultProvider == nil && len(f.cfg.Providers) > 0 {
		f.defaultProvider = f.cfg.Providers[0]
	}
	return f
}

// CreateLLM returns a client for the provider
func CreateLLM(cfg *ProviderConfig, preferredModels ...string) (llms.Model, error) {
	provType, err := llms.ParseProviderType(cfg.APIType)
	if err != nil {
		return nil, err
	}

	model := cfg.FindModel(preferredModels...)
	switch provType {
	case llms.ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(model)}
		if cfg.Token != "" {
			opts = append(opts, openai.WithToken(cfg.Token))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	case llms.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(model)}
		if cfg.Token != "" {
			opts = append(opts, anthropic.WithToken(cfg.Token))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.New(opts...)
	case llms.ProviderGoogleAI:
		opts := []googleai.Option{googleai.WithDefaultModel(model)}
		if cfg.Token != "" {
			opts = append(opts, googleai.WithAPIKey(cfg.Token))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, googleai.WithBaseURL(cfg.BaseURL))
		}
		return googleai.New(context.Background(), opts...)
	default:
		opts := []bedrock.Option{}
		if model != "" {
			opts = append(opts, bedrock.WithModel(model))
		}
		if cfg.Region != "" {
			opts = append(opts, bedrock.WithRegion(cfg.Region))
		}
		return bedrock.New(context.Background(), opts...)
	}
}

func (f *factory) Provider(name string) (*ProviderConfig, error) {
	if name == "" {
		if f.defaultProvider == nil {
			return nil, errors.New("no providers configured")
		}
		return f.defaultProvider, nil
	}
	if p := f.cfg.Find(name); p != nil {
		return p, nil
	}
	return nil, errors.Errorf("provider not found: %s", name)
}

// DefaultModel returns the model of the default provider
func (f *factory) DefaultModel() (llms.Model, error) {
	return f.ModelByName("", "")
}

func (f *factory) ModelByName(name, token string, preferredModels ...string) (llms.Model, error) {
	p, err := f.Provider(name)
	if err != nil {
		return nil, err
	}

	if token != "" && token != p.Token {
		pc := *p
		pc.Token = token
		return NewLLM(&pc, preferredModels...)
	}

	key := p.Name + "/" + p.FindModel(preferredModels...)

	f.lock.Lock()
	defer f.lock.Unlock()

	if model, ok := f.byName[key]; ok {
		return model, nil
	}

	model, err := NewLLM(p, preferredModels...)
	if err != nil {
		return nil, err
	}

	logger.KV(xlog.DEBUG,
		"status", "created_llm",
		"type", p.APIType,
		"name", p.Name,
		"model", model.GetName())

	f.byName[key] = model
	return model, nil
}
