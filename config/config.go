// Package config loads the application configuration.
package config

import (
	"os"
	"strings"

	"github.com/effective-security/miniagent/pkg/llmfactory"
	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
)

// Defaults
const (
	DefaultAddr           = ":8000"
	DefaultLogDir         = ".runs"
	DefaultCorpusDir      = "data/corpus"
	DefaultDocsDir        = "docs"
	DefaultStaticDir      = "static"
	DefaultStrategy       = "openai"
	DefaultDecisionFormat = "json"
	DefaultMaxSteps       = 6
	DefaultRedisPrefix    = "miniagent"
	DefaultOpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"

	// OpenAIProvider is the name of the provider configured by OPENAI_* variables
	OpenAIProvider = "openai"
)

// Config of the application
type Config struct {
	// MockMode selects the offline heuristic for all runs.
	// It is on unless set to false.
	MockMode *bool `json:"mock_mode,omitempty" yaml:"mock_mode,omitempty"`
	// Strategy is the decision strategy used when mock mode is off
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	// DecisionFormat is the reply format asked from decision models: json, yaml or toml
	DecisionFormat string `json:"decision_format,omitempty" yaml:"decision_format,omitempty"`
	// DefaultMaxSteps is the step budget of requests that do not set one
	DefaultMaxSteps int `json:"default_max_steps,omitempty" yaml:"default_max_steps,omitempty"`

	// Addr is the HTTP listen address
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// LogDir is the folder of the per-run audit logs
	LogDir string `json:"log_dir,omitempty" yaml:"log_dir,omitempty"`
	// CorpusDir is the folder of *.txt documents for retrieve_corpus
	CorpusDir string `json:"corpus_dir,omitempty" yaml:"corpus_dir,omitempty"`
	DocsDir   string `json:"docs_dir,omitempty" yaml:"docs_dir,omitempty"`
	StaticDir string `json:"static_dir,omitempty" yaml:"static_dir,omitempty"`

	Tavily TavilyConfig      `json:"tavily" yaml:"tavily"`
	Redis  RedisConfig       `json:"redis" yaml:"redis"`
	LLM    llmfactory.Config `json:"llm" yaml:"llm"`
}

// TavilyConfig for the web_search tool
type TavilyConfig struct {
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// RedisConfig for the trace store.
// The memory store is used when URL is empty.
type RedisConfig struct {
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Load returns the configuration from the file,
// with environment overrides and defaults applied.
// An empty file name loads only the environment.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file != "" {
		if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.SetDefaults()
	return cfg, nil
}

// IsMockMode returns true if runs use the heuristic strategy
func (c *Config) IsMockMode() bool {
	return c.MockMode == nil || *c.MockMode
}

// SetMockMode overrides the mock mode
func (c *Config) SetMockMode(on bool) {
	c.MockMode = &on
}

// ApplyEnv overrides the configuration from environment variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	env := func(name string, apply func(string)) {
		if v, ok := lookup(name); ok && v != "" {
			apply(v)
		}
	}

	env("MOCK_MODE", func(v string) {
		c.SetMockMode(v != "0" && v != "false" && v != "False")
	})
	env("OPENAI_API_KEY", func(v string) { c.openAI().Token = v })
	env("OPENAI_BASE_URL", func(v string) { c.openAI().BaseURL = v })
	env("OPENAI_MODEL", func(v string) { c.openAI().DefaultModel = v })
	env("APP_LOG_DIR", func(v string) { c.LogDir = v })
	env("DECISION_STRATEGY", func(v string) { c.Strategy = v })
	env("DECISION_FORMAT", func(v string) { c.DecisionFormat = strings.ToLower(v) })
	env("CORPUS_DIR", func(v string) { c.CorpusDir = v })
	env("TAVILY_API_KEY", func(v string) { c.Tavily.APIKey = v })
	env("REDIS_URL", func(v string) { c.Redis.URL = v })
}

// SetDefaults fills the missing values
func (c *Config) SetDefaults() {
	c.Strategy = values.StringsCoalesce(c.Strategy, DefaultStrategy)
	c.DecisionFormat = values.StringsCoalesce(c.DecisionFormat, DefaultDecisionFormat)
	c.DefaultMaxSteps = values.NumbersCoalesce(c.DefaultMaxSteps, DefaultMaxSteps)
	c.Addr = values.StringsCoalesce(c.Addr, DefaultAddr)
	c.LogDir = values.StringsCoalesce(c.LogDir, DefaultLogDir)
	c.CorpusDir = values.StringsCoalesce(c.CorpusDir, DefaultCorpusDir)
	c.DocsDir = values.StringsCoalesce(c.DocsDir, DefaultDocsDir)
	c.StaticDir = values.StringsCoalesce(c.StaticDir, DefaultStaticDir)
	c.Redis.Prefix = values.StringsCoalesce(c.Redis.Prefix, DefaultRedisPrefix)

	p := c.openAI()
	p.BaseURL = values.StringsCoalesce(p.BaseURL, DefaultOpenAIBaseURL)
	p.DefaultModel = values.StringsCoalesce(p.DefaultModel, DefaultOpenAIModel)
	c.LLM.DefaultProvider = values.StringsCoalesce(c.LLM.DefaultProvider, OpenAIProvider)
}

// ProviderNames returns the names of the configured LLM providers
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.LLM.Providers))
	for _, p := range c.LLM.Providers {
		names = append(names, p.Name)
	}
	return names
}

// openAI returns the openai provider, adding it if missing
func (c *Config) openAI() *llmfactory.ProviderConfig {
	for _, p := range c.LLM.Providers {
		if strings.EqualFold(p.Name, OpenAIProvider) {
			return p
		}
	}
	p := &llmfactory.ProviderConfig{
		Name:    OpenAIProvider,
		APIType: string(llms.ProviderOpenAI),
	}
	c.LLM.Providers = append(c.LLM.Providers, p)
	return p
}
