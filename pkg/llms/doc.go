// Package llms provides a single text completion interface
// over the supported model providers.
//
// Each subpackage wraps the official SDK of a provider:
// openai, anthropic, bedrock and googleai.
package llms
