package summarizer_test

import (
	"context"
	"testing"

	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/tools/summarizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tcases := []struct {
		text string
		n    int
		exp  string
	}{
		{"Alpha. Beta. Gamma. Delta.", 3, "Alpha. Beta. Gamma."},
		{"Alpha. Beta.", 3, "Alpha. Beta."},
		{"One sentence without period", 1, "One sentence without period."},
		{"Line one.\nLine two.\n\nLine three.", 2, "Line one. Line two."},
		{"...", 3, ""},
		{"", 3, ""},
		{"A. B. C.", 0, ""},
	}
	for _, tc := range tcases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.exp, summarizer.Summarize(tc.text, tc.n))
		})
	}
}

func TestTool(t *testing.T) {
	ctx := context.Background()
	tool, err := summarizer.New()
	require.NoError(t, err)
	assert.Equal(t, summarizer.ToolName, tool.Spec().Name)

	res := tool.Run(ctx, map[string]any{"text": "Alpha. Beta. Gamma. Delta.", "max_sentences": 3})
	assert.Equal(t, tools.Succeeded(summarizer.ToolName, map[string]any{"summary": "Alpha. Beta. Gamma."}), res)

	// default max_sentences
	res = tool.Run(ctx, map[string]any{"text": "A. B. C. D. E."})
	require.True(t, res.OK)
	assert.Equal(t, "A. B. C.", res.Output["summary"])

	// null is treated as absent
	res = tool.Run(ctx, map[string]any{"text": "A. B. C. D. E.", "max_sentences": nil})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, "A. B. C.", res.Output["summary"])
}

func TestTool_InvalidInput(t *testing.T) {
	ctx := context.Background()
	tool, err := summarizer.New()
	require.NoError(t, err)

	tcases := []struct {
		name string
		args map[string]any
		exp  string
	}{
		{"no arguments", nil, "Text"},
		{"missing text", map[string]any{"max_sentences": 3}, "Text"},
		{"empty text", map[string]any{"text": "", "max_sentences": 3}, "Text"},
		{"explicit zero", map[string]any{"text": "A. B. C. D.", "max_sentences": 0}, "MaxSentences"},
		{"negative", map[string]any{"text": "A. B.", "max_sentences": -1}, "MaxSentences"},
		{"too many", map[string]any{"text": "A. B.", "max_sentences": 11}, "MaxSentences"},
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
}

func TestTool_Schema(t *testing.T) {
	tool, err := summarizer.New()
	require.NoError(t, err)
	in := tool.Spec().InputSchema
	assert.Equal(t, []string{"text"}, in.Required)
	prop, ok := in.Properties.Get("max_sentences")
	require.True(t, ok)
	assert.Equal(t, "integer", prop.Type)
}
