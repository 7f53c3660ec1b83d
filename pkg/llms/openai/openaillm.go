package openai

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/x/values"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrMissingToken is returned when no API key is configured
var ErrMissingToken = errors.New("openai: missing API key, set it in the OPENAI_API_KEY environment variable")

// LLM is a client for OpenAI compatible chat completion APIs.
type LLM struct {
	client *openai.Client
	model  string
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI LLM.
func New(opts ...Option) (*LLM, error) {
	o := &options{
		maxRetries: 2,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.token = values.StringsCoalesce(o.token, os.Getenv(tokenEnvVarName))
	o.model = values.StringsCoalesce(o.model, os.Getenv(modelEnvVarName), DefaultModel)
	o.baseURL = values.StringsCoalesce(o.baseURL, os.Getenv(baseURLEnvVarName), DefaultBaseURL)

	if o.token == "" {
		return nil, ErrMissingToken
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(o.token),
		option.WithBaseURL(o.baseURL),
		option.WithMaxRetries(o.maxRetries),
	}
	if o.httpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(o.httpClient))
	}

	client := openai.NewClient(sdkOpts...)
	return &LLM{
		client: &client,
		model:  o.model,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(o.model, options...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(opts.Model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case llms.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Text))
		case llms.RoleAI:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Text))
		case llms.RoleHuman:
			params.Messages = append(params.Messages, openai.UserMessage(m.Text))
		default:
			return nil, errors.Errorf("openai: role %v not supported", m.Role)
		}
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}

	result, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "openai: failed to create chat completion")
	}
	if len(result.Choices) == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "openai")
	}

	choice := result.Choices[0]
	return &llms.ContentResponse{
		Content:      choice.Message.Content,
		StopReason:   choice.FinishReason,
		Model:        result.Model,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
	}, nil
}
