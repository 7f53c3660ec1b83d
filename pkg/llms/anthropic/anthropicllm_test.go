package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llms"
	"github.com/effective-security/miniagent/pkg/llms/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MissingToken(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := anthropic.New()
	assert.True(t, errors.Is(err, anthropic.ErrMissingToken))
}

func newServer(t *testing.T, status int, reply string, req *map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		if req != nil {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, req))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
}

func TestGenerateContent(t *testing.T) {
	var req map[string]any
	srv := newServer(t, http.StatusOK, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-haiku-latest",
		"content": [{"type": "text", "text": "{\"action\":\"final\","}, {"type": "text", "text": "\"final\":\"hi\"}"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 7, "output_tokens": 3}
	}`, &req)
	defer srv.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("test-key"),
		anthropic.WithBaseURL(srv.URL),
		anthropic.WithMaxRetries(0),
	)
	require.NoError(t, err)
	assert.Equal(t, anthropic.DefaultModel, llm.GetName())
	assert.Equal(t, llms.ProviderAnthropic, llm.GetProviderType())

	resp, err := llm.GenerateContent(context.Background(),
		[]llms.Message{llms.SystemMessage("sys"), llms.HumanMessage("user")},
		llms.WithTemperature(0),
	)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"final","final":"hi"}`, resp.Content)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(7), resp.InputTokens)

	assert.Equal(t, anthropic.DefaultModel, req["model"])
	assert.EqualValues(t, anthropic.DefaultMaxTokens, req["max_tokens"])
	system, ok := req["system"].([]any)
	require.True(t, ok)
	assert.Equal(t, "sys", system[0].(map[string]any)["text"])
	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestGenerateContent_Empty(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "m",
		"content": [], "stop_reason": "end_turn", "usage": {"input_tokens": 1, "output_tokens": 0}
	}`, nil)
	defer srv.Close()

	llm, err := anthropic.New(anthropic.WithToken("test-key"), anthropic.WithBaseURL(srv.URL), anthropic.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.Message{llms.HumanMessage("hi")})
	assert.True(t, errors.Is(err, llms.ErrEmptyResponse))
}

func TestGenerateContent_Error(t *testing.T) {
	srv := newServer(t, http.StatusBadRequest, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`, nil)
	defer srv.Close()

	llm, err := anthropic.New(anthropic.WithToken("test-key"), anthropic.WithBaseURL(srv.URL), anthropic.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.Message{llms.HumanMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: failed to create message")
}
