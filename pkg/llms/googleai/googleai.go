// Package googleai implements a provider for Google AI models.
// See https://ai.google.dev/ for more details.
package googleai

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llms"
	"google.golang.org/genai"
)

// ErrMissingToken is returned when no API key is configured
var ErrMissingToken = errors.New("googleai: missing API key, set it in the GOOGLE_API_KEY environment variable")

// GoogleAI is a type that represents a Google AI API client.
type GoogleAI struct {
	client *genai.Client
	opts   Options
}

var _ llms.Model = (*GoogleAI)(nil)

// New creates a new GoogleAI client.
func New(ctx context.Context, opts ...Option) (*GoogleAI, error) {
	clientOptions := DefaultOptions()
	for _, opt := range opts {
		opt(&clientOptions)
	}
	if clientOptions.APIKey == "" {
		return nil, ErrMissingToken
	}

	cfg := &genai.ClientConfig{
		APIKey:     clientOptions.APIKey,
		HTTPClient: clientOptions.HTTPClient,
		Backend:    genai.BackendGeminiAPI,
	}
	if clientOptions.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = clientOptions.BaseURL
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to create client")
	}
	return &GoogleAI{
		client: client,
		opts:   clientOptions,
	}, nil
}

// GetName implements the Model interface.
func (g *GoogleAI) GetName() string {
	return g.opts.DefaultModel
}

// GetProviderType implements the Model interface.
func (g *GoogleAI) GetProviderType() llms.ProviderType {
	return llms.ProviderGoogleAI
}

// GenerateContent implements the [llms.Model] interface.
func (g *GoogleAI) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(g.opts.DefaultModel, options...)

	systemPrompt, rest := llms.SplitSystem(messages)
	callCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.Temperature != nil {
		t := float32(*opts.Temperature)
		callCfg.Temperature = &t
	}
	if systemPrompt != "" {
		callCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		switch m.Role {
		case llms.RoleHuman:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))
		case llms.RoleAI:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleModel))
		default:
			return nil, errors.Errorf("googleai: role %v not supported", m.Role)
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, opts.Model, contents, callCfg)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to generate content")
	}

	text := strings.TrimSpace(result.Text())
	if len(result.Candidates) == 0 || text == "" {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "googleai")
	}

	resp := &llms.ContentResponse{
		Content:    text,
		StopReason: string(result.Candidates[0].FinishReason),
		Model:      result.ModelVersion,
	}
	if result.UsageMetadata != nil {
		resp.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
	}
	return resp, nil
}
