package bedrock

import (
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// DefaultModel is the Anthropic model used when none is configured
const DefaultModel = "anthropic.claude-3-haiku-20240307-v1:0"

// Option is an option for the Bedrock LLM.
type Option func(*options)

type options struct {
	modelID string
	region  string
	client  *bedrockruntime.Client
}

// WithModel allows setting a custom modelId.
//
// If not set, the default model is used
// i.e. "anthropic.claude-3-haiku-20240307-v1:0".
func WithModel(modelID string) Option {
	return func(o *options) {
		o.modelID = modelID
	}
}

// WithRegion sets the AWS region, otherwise the default AWS config is used.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithClient allows setting a custom bedrockruntime.Client.
//
// You may use this to pass a custom bedrockruntime.Client
// with custom configuration options
// such as setting custom credentials, region, endpoint, etc.
//
// By default, a new client will be created using the default credentials chain.
func WithClient(client *bedrockruntime.Client) Option {
	return func(o *options) {
		o.client = client
	}
}
