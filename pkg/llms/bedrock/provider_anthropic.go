package bedrock

// Finish reason for the completion of the generation.
const (
	AnthropicCompletionReasonEndTurn      = "end_turn"
	AnthropicCompletionReasonMaxTokens    = "max_tokens"
	AnthropicCompletionReasonStopSequence = "stop_sequence"
)

// The latest version of the model.
const (
	AnthropicLatestVersion = "bedrock-2023-05-31"
)

// Role attribute for the anthropic message.
const (
	AnthropicRoleUser      = "user"
	AnthropicRoleAssistant = "assistant"
)

// Type attribute for the anthropic message.
const (
	AnthropicMessageTypeText = "text"
)

type anthropicTextGenerationInputContent struct {
	// The type of the content. Only "text" is used.
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicTextGenerationInputMessage struct {
	// The role of the message: "user" or "assistant".
	Role    string                                `json:"role"`
	Content []anthropicTextGenerationInputContent `json:"content"`
}

// anthropicTextGenerationInput is the InvokeModel body for Anthropic models
type anthropicTextGenerationInput struct {
	// The version of the model to use. Required.
	AnthropicVersion string `json:"anthropic_version"`
	// The maximum number of tokens to generate per result. Required.
	MaxTokens int `json:"max_tokens"`
	// The system prompt to use. Optional.
	System string `json:"system,omitempty"`
	// The messages to use. Required.
	Messages []*anthropicTextGenerationInputMessage `json:"messages"`
	// The amount of randomness injected into the response. Optional.
	Temperature *float64 `json:"temperature,omitempty"`
}

type anthropicTextGenerationOutputContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicTextGenerationOutput struct {
	// The type of the output, always "message".
	Type string `json:"type"`
	// The role of the output, always "assistant".
	Role string `json:"role"`
	// The content of the output.
	Content []anthropicTextGenerationOutputContent `json:"content"`
	// The reason for the completion of the generation.
	StopReason   string `json:"stop_reason"`
	StopSequence string `json:"stop_sequence"`
	Usage        struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
