package retrieval_test

import (
	"context"
	"strings"
	"testing"

	"github.com/effective-security/miniagent/pkg/retriever"
	"github.com/effective-security/miniagent/tools/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", retrieval.Snippet("  a\nb \n"))
	long := strings.Repeat("é", 300)
	assert.Equal(t, strings.Repeat("é", 280), retrieval.Snippet(long))
}

func TestTool(t *testing.T) {
	ctx := context.Background()
	r := retriever.New(
		&retriever.Doc{ID: "agent_sdk.txt", Title: "agent sdk", Text: "An agent SDK\nwires tools into a loop."},
		&retriever.Doc{ID: "ollama.txt", Title: "ollama", Text: "Ollama runs models locally."},
	)

	tool, err := retrieval.New(r)
	require.NoError(t, err)
	assert.Equal(t, retrieval.ToolName, tool.Spec().Name)

	res := tool.Run(ctx, map[string]any{"query": "explain agent sdk", "k": 3})
	require.True(t, res.OK, res.Error)

	results, ok := res.Output["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
	first := results[0].(map[string]any)
	assert.Equal(t, "agent_sdk.txt", first["doc_id"])
	assert.Equal(t, "agent sdk", first["title"])
	assert.Equal(t, "An agent SDK wires tools into a loop.", first["snippet"])
	assert.Greater(t, first["score"].(float64), 0.0)

	t.Run("empty corpus", func(t *testing.T) {
		tool, err := retrieval.New(retriever.New())
		require.NoError(t, err)
		res := tool.Run(ctx, map[string]any{"query": "explain agent sdk"})
		require.True(t, res.OK)
		assert.Equal(t, []any{}, res.Output["results"])
	})

	t.Run("k out of range", func(t *testing.T) {
		res := tool.Run(ctx, map[string]any{"query": "agent", "k": 20})
		assert.False(t, res.OK)
		assert.Contains(t, res.Error, "invalid input")
	})
}

func TestTool_InvalidInput(t *testing.T) {
	ctx := context.Background()
	tool, err := retrieval.New(retriever.New(
		&retriever.Doc{ID: "agent_sdk.txt", Title: "agent sdk", Text: "An agent SDK."},
	))
	require.NoError(t, err)

	tcases := []struct {
		name string
		args map[string]any
		exp  string
	}{
		{"no arguments", nil, "Query"},
		{"missing query", map[string]any{"k": 3}, "Query"},
		{"empty query", map[string]any{"query": "", "k": 3}, "Query"},
		{"explicit zero", map[string]any{"query": "agent", "k": 0}, "'K'"},
		{"negative", map[string]any{"query": "agent", "k": -2}, "'K'"},
		{"too many", map[string]any{"query": "agent", "k": 11}, "'K'"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			res := tool.Run(ctx, tc.args)
			assert.False(t, res.OK)
			assert.Nil(t, res.Output)
			assert.Contains(t, res.Error, "invalid input")
			assert.Contains(t, res.Error, tc.exp)
		})
	}

	t.Run("default k", func(t *testing.T) {
		res := tool.Run(ctx, map[string]any{"query": "agent"})
		require.True(t, res.OK, res.Error)
		assert.Len(t, res.Output["results"], 1)
	})

	t.Run("schema", func(t *testing.T) {
		in := tool.Spec().InputSchema
		assert.Equal(t, []string{"query"}, in.Required)
	})
}
