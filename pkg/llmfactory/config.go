package llmfactory

import (
	"slices"
	"strings"

	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/x/configloader"
)

// Config specifies the LLM providers
type Config struct {
	// Providers specifies the list of providers to use
	Providers []*ProviderConfig `json:"providers" yaml:"providers"`
	// DefaultProvider specifies the default provider to use
	DefaultProvider string `json:"default_provider" yaml:"default_provider"`
}

// ProviderConfig for a provider
type ProviderConfig struct {
	Name            string   `json:"name" yaml:"name"`
	Token           string   `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty"`
	// APIType specifies the type of API to use:
	// OPENAI|ANTHROPIC|GOOGLEAI|BEDROCK
	APIType string `json:"api_type,omitempty" yaml:"api_type,omitempty"`
	// BaseURL overrides the API endpoint
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Region is the AWS region for BEDROCK
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// FindModel returns the first of the models available on the provider,
// or the default model
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}

// HasCredentials returns true if the provider can be called.
// BEDROCK uses the AWS credentials chain.
func (c *ProviderConfig) HasCredentials() bool {
	return c.Token != "" || strings.EqualFold(c.APIType, string(llms.ProviderBedrock))
}

// Find returns the provider by name, or by API type
func (c *Config) Find(name string) *ProviderConfig {
	for _, p := range c.Providers {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	for _, p := range c.Providers {
		if strings.EqualFold(p.APIType, name) {
			return p
		}
	}
	return nil
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
