package googleai

import (
	"net/http"
	"os"
)

// Options is a set of options for GoogleAI clients.
type Options struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	HTTPClient   *http.Client
}

// DefaultOptions returns the default options, the API key is read
// from GOOGLE_API_KEY or GEMINI_API_KEY environment variables.
func DefaultOptions() Options {
	return Options{
		APIKey:       firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY"),
		DefaultModel: "gemini-2.0-flash",
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Option is a function that can be passed to NewGoogleAI to configure options.
type Option func(*Options)

// WithAPIKey passes the API KEY (token) to the client. This is useful for
// googleai clients.
func WithAPIKey(apiKey string) Option {
	return func(opts *Options) {
		opts.APIKey = apiKey
	}
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

// WithHTTPClient append a ClientOption that uses the provided HTTP client to
// make requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *Options) {
		opts.HTTPClient = httpClient
	}
}

// WithDefaultModel passes a default content model name to the client. This
// model name is used if not explicitly provided in specific client invocations.
func WithDefaultModel(defaultModel string) Option {
	return func(opts *Options) {
		if defaultModel != "" {
			opts.DefaultModel = defaultModel
		}
	}
}
