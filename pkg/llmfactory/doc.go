// Package llmfactory creates LLM clients from the provider configuration,
// and selects the model for a provider.
package llmfactory
