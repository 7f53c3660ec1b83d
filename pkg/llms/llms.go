package llms

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// ProviderType is the type of provider.
type ProviderType string

const (
	// ProviderAnthropic is the Anthropic Messages API.
	ProviderAnthropic ProviderType = "ANTHROPIC"
	// ProviderBedrock is AWS Bedrock with Anthropic models.
	ProviderBedrock ProviderType = "BEDROCK"
	// ProviderGoogleAI is the Gemini API.
	ProviderGoogleAI ProviderType = "GOOGLEAI"
	// ProviderOpenAI is any OpenAI compatible chat completion API.
	ProviderOpenAI ProviderType = "OPENAI"
)

// ErrEmptyResponse is returned when the provider returned no text
var ErrEmptyResponse = errors.New("no content in response")

// ParseProviderType returns the provider type, case insensitive
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OPENAI", "OPEN_AI":
		return ProviderOpenAI, nil
	case "ANTHROPIC":
		return ProviderAnthropic, nil
	case "BEDROCK":
		return ProviderBedrock, nil
	case "GOOGLEAI", "GEMINI":
		return ProviderGoogleAI, nil
	}
	return "", errors.Errorf("unsupported provider type: %s", s)
}

// Model generates text from a conversation
type Model interface {
	// GetName returns the default model name
	GetName() string
	// GetProviderType returns the type of provider.
	GetProviderType() ProviderType
	// GenerateContent asks the model to generate a reply to the messages.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}

// ContentResponse is the reply of a model
type ContentResponse struct {
	// Content is the text of the reply
	Content string
	// StopReason as reported by the provider
	StopReason string
	// Model that produced the reply
	Model        string
	InputTokens  int64
	OutputTokens int64
}
