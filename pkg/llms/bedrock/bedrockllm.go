package bedrock

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/x/values"
)

// LLM is a Bedrock LLM implementation for Anthropic models.
type LLM struct {
	modelID string
	client  *bedrockruntime.Client
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Bedrock LLM implementation.
func New(ctx context.Context, opts ...Option) (*LLM, error) {
	o := &options{
		modelID: DefaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if o.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(o.region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "bedrock: failed to load AWS config")
		}
		o.client = bedrockruntime.NewFromConfig(cfg)
	}

	return &LLM{
		client:  o.client,
		modelID: o.modelID,
	}, nil
}

// GetName implements the Model interface.
func (l *LLM) GetName() string {
	return l.modelID
}

// GetProviderType implements the Model interface.
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderBedrock
}

// GenerateContent implements llms.Model.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(l.modelID, options...)

	if p := getProvider(opts.Model); p != "anthropic" {
		return nil, errors.Errorf("bedrock: unsupported provider: %s", p)
	}

	systemPrompt, rest := llms.SplitSystem(messages)
	input := anthropicTextGenerationInput{
		AnthropicVersion: AnthropicLatestVersion,
		MaxTokens:        values.NumbersCoalesce(opts.MaxTokens, 2048),
		System:           systemPrompt,
		Messages:         make([]*anthropicTextGenerationInputMessage, 0, len(rest)),
		Temperature:      opts.Temperature,
	}
	for _, m := range rest {
		role := AnthropicRoleUser
		if m.Role == llms.RoleAI {
			role = AnthropicRoleAssistant
		}
		input.Messages = append(input.Messages, &anthropicTextGenerationInputMessage{
			Role: role,
			Content: []anthropicTextGenerationInputContent{
				{Type: AnthropicMessageTypeText, Text: m.Text},
			},
		})
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to marshal request")
	}

	resp, err := l.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(opts.Model),
		Accept:      aws.String("*/*"),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to invoke model")
	}

	var output anthropicTextGenerationOutput
	if err = json.Unmarshal(resp.Body, &output); err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to unmarshal response")
	}

	if stopReason := output.StopReason; stopReason != AnthropicCompletionReasonEndTurn &&
		stopReason != AnthropicCompletionReasonStopSequence {
		return nil, errors.Errorf("bedrock: completed due to %s. Maybe try increasing max tokens", stopReason)
	}

	var text strings.Builder
	for _, c := range output.Content {
		if c.Type == AnthropicMessageTypeText {
			text.WriteString(c.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.WithMessage(llms.ErrEmptyResponse, "bedrock")
	}

	return &llms.ContentResponse{
		Content:      text.String(),
		StopReason:   output.StopReason,
		Model:        opts.Model,
		InputTokens:  int64(output.Usage.InputTokens),
		OutputTokens: int64(output.Usage.OutputTokens),
	}, nil
}

func getProvider(modelID string) string {
	// Handle Inference Profiles (e.g., "us.anthropic.claude-3-5-sonnet-20241022-v2:0")
	// and direct model IDs (e.g., "anthropic.claude-3-sonnet-20240229-v1:0")
	parts := strings.Split(modelID, ".")
	if len(parts) >= 2 {
		// Check if first part is a region (like "us", "eu", etc.)
		if len(parts[0]) == 2 && strings.ToLower(parts[0]) == parts[0] {
			return parts[1]
		}
		return parts[0]
	}
	return parts[0]
}
