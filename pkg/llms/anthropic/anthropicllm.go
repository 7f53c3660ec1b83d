package anthropic

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/x/values"
)

var (
	ErrMissingToken = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")
)

const (
	DefaultMaxTokens = 4096
	DefaultModel     = "claude-3-5-haiku-latest"
)

type LLM struct {
	Client  *anthropic.Client
	Options *Options
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Anthropic LLM client using the official Anthropic SDK.
//
// If no token is provided via options, it will attempt to read the API key
// from the ANTHROPIC_API_KEY environment variable.
//
// Example usage:
//
//	llm, err := anthropic.New(
//	    anthropic.WithToken("your-api-key"),
//	    anthropic.WithModel("claude-3-5-haiku-latest"),
//	)
func New(opts ...Option) (*LLM, error) {
	options := &Options{
		Token:      os.Getenv(TokenEnvVarName),
		BaseURL:    "https://api.anthropic.com",
		MaxRetries: 2,
		HttpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(options)
	}

	if len(options.Token) == 0 {
		return nil, ErrMissingToken
	}
	options.Model = values.StringsCoalesce(options.Model, DefaultModel)

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(options.Token),
		option.WithMaxRetries(options.MaxRetries),
		option.WithRequestTimeout(5 * time.Minute),
	}
	if options.BaseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(options.BaseURL))
	}
	if options.HttpClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(options.HttpClient))
	}

	client := anthropic.NewClient(sdkOpts...)
	return &LLM{
		Client:  &client,
		Options: options,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.Options.Model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(o.Options.Model, options...)

	systemPrompt, rest := llms.SplitSystem(messages)
	sdkMessages := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		switch m.Role {
		case llms.RoleHuman:
			sdkMessages = append(sdkMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		case llms.RoleAI:
			sdkMessages = append(sdkMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		default:
			return nil, errors.Errorf("anthropic: role %v not supported", m.Role)
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		Messages:  sdkMessages,
		MaxTokens: values.NumbersCoalesce(int64(opts.MaxTokens), DefaultMaxTokens),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}

	result, err := o.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to create message")
	}

	var content strings.Builder
	for _, block := range result.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(b.Text)
		}
	}
	if content.Len() == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "anthropic")
	}

	return &llms.ContentResponse{
		Content:      content.String(),
		StopReason:   string(result.StopReason),
		Model:        string(result.Model),
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
	}, nil
}
