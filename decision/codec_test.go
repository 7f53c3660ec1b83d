package decision_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/decision"
	"github.com/effective-security/miniagent/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Parse(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		mode    encoding.Mode
		tool    string
		final   string
		invalid string
	}{
		{
			mode:    encoding.ModeJSON,
			tool:    `{"action":"tool","tool_call":{"tool_name":"calculator","arguments":{"expression":"1+1"}}}`,
			final:   `{"action":"final","final":"done"}`,
			invalid: `{"action":"maybe"}`,
		},
		{
			mode:    encoding.ModeYAML,
			tool:    "```yaml\naction: tool\ntool_call:\n  tool_name: calculator\n  arguments:\n    expression: 1+1\n```",
			final:   "action: final\nfinal: done\n",
			invalid: "action: tool\n",
		},
		{
			mode:    encoding.ModeTOML,
			tool:    "```toml\naction = \"tool\"\n\n[tool_call]\ntool_name = \"calculator\"\n\n[tool_call.arguments]\nexpression = \"1+1\"\n```",
			final:   "action = \"final\"\nfinal = \"done\"\n",
			invalid: "action = [1, 2]\n",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.mode, func(t *testing.T) {
			c, err := decision.NewCodec(tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.mode, c.Mode())

			choice, err := c.Parse(tc.tool)
			require.NoError(t, err)
			assert.Equal(t, decision.ToolChoice("calculator", map[string]any{"expression": "1+1"}), choice)

			choice, err = c.Parse(tc.final)
			require.NoError(t, err)
			assert.Equal(t, decision.FinalChoice("done"), choice)

			_, err = c.Parse(tc.invalid)
			require.Error(t, err)
			assert.True(t, errors.Is(err, decision.ErrInvalidChoice))

			choice = c.ParseOrFallback(tc.invalid)
			assert.True(t, choice.Fallback)
			assert.Equal(t, decision.FallbackPrefix+tc.invalid, choice.FinalText(""))
		})
	}

	_, err := decision.NewCodec("xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, encoding.ErrUnsupportedMode))

	c, err := decision.NewCodec("")
	require.NoError(t, err)
	assert.Equal(t, encoding.ModeJSON, c.Mode())
	assert.Equal(t, decision.FormatInstructions(), c.FormatInstructions())
}

func TestCodec_Prompt(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		mode   encoding.Mode
		system string
		format []string
	}{
		{encoding.ModeJSON, "Return ONLY valid JSON for ToolChoice.", []string{"```json\n", `"tool_call"`}},
		{encoding.ModeYAML, "Return ONLY valid YAML for ToolChoice.", []string{"```yaml\n", "action: tool\n", "tool_name: calculator\n"}},
		{encoding.ModeTOML, "Return ONLY valid TOML for ToolChoice.", []string{"```toml\n", "action = \"tool\"\n", "[tool_call]\n", "expression = \"2*(3+4)\"\n"}},
	}
	for _, tc := range tcs {
		t.Run(tc.mode, func(t *testing.T) {
			c, err := decision.NewCodec(tc.mode)
			require.NoError(t, err)

			msgs, err := c.Prompt(testRequest())
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Contains(t, msgs[0].Text, tc.system)
			assert.Contains(t, msgs[0].Text, c.FormatInstructions())
			for _, exp := range tc.format {
				assert.Contains(t, msgs[0].Text, exp)
			}
			assert.NotContains(t, msgs[0].Text, "Fallback")
			assert.True(t, strings.HasPrefix(msgs[1].Text, "User message: calculate 1+1"))
		})
	}
}

func TestRemote_Codec(t *testing.T) {
	t.Parallel()

	c, err := decision.NewCodec(encoding.ModeYAML)
	require.NoError(t, err)

	m := &fakeModel{content: "action: tool\ntool_call:\n  tool_name: calculator\n  arguments:\n    expression: 2+2\n"}
	src := decision.NewRemote("openai", m).WithCodec(c)
	choice, err := src.Decide(context.Background(), testRequest())
	require.NoError(t, err)
	assert.False(t, choice.Fallback)
	assert.Equal(t, decision.ToolChoice("calculator", map[string]any{"expression": "2+2"}), choice)
	require.Len(t, m.messages, 2)
	assert.Contains(t, m.messages[0].Text, "Return ONLY valid YAML")

	// nil keeps the current codec
	m = &fakeModel{content: `{"action":"final","final":"ok"}`}
	choice, err = decision.NewRemote("openai", m).WithCodec(nil).Decide(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", choice.FinalText(""))
}
