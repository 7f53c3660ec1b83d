package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/agent"
	"github.com/effective-security/miniagent/app"
	"github.com/effective-security/miniagent/trace"
	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func setupEnv(t *testing.T) string {
	dir := t.TempDir()
	for _, name := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"DECISION_STRATEGY", "TAVILY_API_KEY", "REDIS_URL",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("MOCK_MODE", "1")
	t.Setenv("APP_LOG_DIR", filepath.Join(dir, "runs"))
	t.Setenv("CORPUS_DIR", "../../data/corpus")
	return dir
}

func TestParse(t *testing.T) {
	tcs := []struct {
		name string
		args []string
		exp  func(t *testing.T, o *Options)
	}{
		{
			name: "run defaults",
			args: []string{"run", "-m", "hi"},
			exp: func(t *testing.T, o *Options) {
				assert.Equal(t, "hi", o.Run.Message)
				assert.Equal(t, 0, o.Run.MaxSteps)
				assert.Equal(t, "text", o.Run.Output)
				assert.Equal(t, "ERROR", o.LogLevel)
			},
		},
		{
			name: "global flags",
			args: []string{"-c", "miniagent.yaml", "--log-level", "DEBUG", "traces", "--limit", "5", "--id", "r1"},
			exp: func(t *testing.T, o *Options) {
				assert.Equal(t, "miniagent.yaml", o.Config)
				assert.Equal(t, "DEBUG", o.LogLevel)
				assert.Equal(t, 5, o.Traces.Limit)
				assert.Equal(t, "r1", o.Traces.ID)
			},
		},
		{
			name: "eval defaults",
			args: []string{"eval"},
			exp: func(t *testing.T, o *Options) {
				assert.Equal(t, "data/eval/golden_cases.json", o.Eval.Cases)
				assert.Empty(t, o.Eval.Report)
			},
		},
		{
			name: "serve addr",
			args: []string{"serve", "--addr", ":9000", "-v"},
			exp: func(t *testing.T, o *Options) {
				assert.Equal(t, ":9000", o.Serve.Addr)
				assert.True(t, o.Serve.Verbose)
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			o := newOptions(&bytes.Buffer{})
			parser := flags.NewParser(o, flags.HelpFlag|flags.PassDoubleDash)
			// parse only, without executing the command
			parser.CommandHandler = func(flags.Commander, []string) error { return nil }
			_, err := parser.ParseArgs(tc.args)
			require.NoError(t, err)
			tc.exp(t, o)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tcs := [][]string{
		{"run"},
		{"run", "-m", "hi", "-o", "xml"},
		{"tools", "-o", "toml"},
		{"unknown"},
		{"--log-level", "LOUD", "tools"},
	}
	for _, args := range tcs {
		err := run(args, &bytes.Buffer{})
		assert.Error(t, err, strings.Join(args, " "))
	}

	err := run([]string{"--help"}, &bytes.Buffer{})
	var ferr *flags.Error
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, flags.ErrHelp, ferr.Type)
	assert.Contains(t, ferr.Message, "miniagent")
}

func TestRunCmd(t *testing.T) {
	setupEnv(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"run", "-m", "calculate 2*(3+4)"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "Result: 14.0\n\nrun_id: "), out.String())
	assert.Contains(t, out.String(), "status: finalized")

	out.Reset()
	require.NoError(t, run([]string{"run", "-m", "calculate 2*(3+4)", "-o", "json"}, &out))
	var res agent.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "Result: 14.0", res.Final)
	assert.Equal(t, trace.StatusFinalized, res.Status)

	out.Reset()
	require.NoError(t, run([]string{"run", "-m", "calculate 1+1", "--max-steps", "1", "-o", "yaml"}, &out))
	var ym map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &ym))
	assert.Equal(t, "exhausted", ym["status"])

	out.Reset()
	require.NoError(t, run([]string{"run", "-m", "hello", "-o", "toml"}, &out))
	var tm map[string]any
	_, err := toml.Decode(out.String(), &tm)
	require.NoError(t, err)
	assert.Contains(t, tm["final"], "Mock mode")
	assert.NotEmpty(t, tm["run_id"])

	err = run([]string{"run", "-m", "hi", "--max-steps=-1"}, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, agent.ErrInvalidRequest))
}

func TestRunCmd_Verbose(t *testing.T) {
	setupEnv(t)

	tcs := []struct {
		name    string
		message string
		final   string
		entries []string
		stats   string
	}{
		{
			name:    "tool call",
			message: "calculate 2*(3+4)",
			final:   "Result: 14.0\n",
			entries: []string{
				"*** Run Started ***",
				"Input: calculate 2*(3+4)",
				"calculator *** Tool Start ***",
				`calculator Output: {"result":14}`,
				"Final: Result: 14.0",
				"*** Run Ended. Status: finalized",
			},
			stats: "steps=2 tool_calls=1 succeeded=1 failed=0 fallbacks=0 status=finalized\n",
		},
		{
			name:    "tool error",
			message: "calculate 1/0",
			final:   "Tool calculator error: division by zero\n",
			entries: []string{
				"calculator *** Tool Error *** division by zero",
				"*** Run Ended. Status: finalized",
			},
			stats: "steps=2 tool_calls=1 succeeded=0 failed=1 fallbacks=0 status=finalized\n",
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			o := newOptions(&out)
			o.errOut = &errOut
			require.NoError(t, o.parse([]string{"run", "-m", tc.message, "-v"}))
			assert.True(t, strings.HasPrefix(out.String(), tc.final), out.String())

			transcript := errOut.String()
			for _, exp := range tc.entries {
				assert.Contains(t, transcript, exp)
			}
			assert.True(t, strings.HasSuffix(transcript, tc.stats), transcript)
		})
	}

	// the transcript stays off the output
	var out, errOut bytes.Buffer
	o := newOptions(&out)
	o.errOut = &errOut
	require.NoError(t, o.parse([]string{"run", "-m", "calculate 1+1", "-o", "json"}))
	assert.Empty(t, errOut.String())
	var res agent.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
}

func TestToolsCmd(t *testing.T) {
	setupEnv(t)

	var out bytes.Buffer
	require.NoError(t, run([]string{"tools"}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "calculator"))
	assert.Contains(t, lines[4], "web_search")
	assert.Contains(t, lines[4], "false")

	out.Reset()
	require.NoError(t, run([]string{"tools", "-o", "json"}, &out))
	var res struct {
		Tools []map[string]any `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Tools, 4)
	assert.Equal(t, "retrieve_corpus", res.Tools[2]["name"])
}

func TestTracesCmd(t *testing.T) {
	setupEnv(t)

	store := trace.NewMemoryStore()
	withStore := app.WithStore(store)

	var out bytes.Buffer
	require.NoError(t, run([]string{"run", "-m", "calculate 3*3", "-o", "json"}, &out, withStore))
	var res agent.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))

	out.Reset()
	require.NoError(t, run([]string{"traces"}, &out, withStore))
	assert.Contains(t, out.String(), res.RunID)
	assert.Contains(t, out.String(), "calculate 3*3")

	out.Reset()
	require.NoError(t, run([]string{"traces", "--id", res.RunID}, &out, withStore))
	assert.Contains(t, out.String(), "Step 1: "+agent.PlanSelectTool)
	assert.Contains(t, out.String(), "Tool: calculator")
	assert.Contains(t, out.String(), "Final: Result: 9.0")

	out.Reset()
	require.NoError(t, run([]string{"traces", "--id", res.RunID, "-o", "json"}, &out, withStore))
	var tr trace.Run
	require.NoError(t, json.Unmarshal(out.Bytes(), &tr))
	assert.Equal(t, res.RunID, tr.RunID)
	assert.Len(t, tr.Steps, 2)

	err := run([]string{"traces", "--id", "missing"}, &out, withStore)
	assert.True(t, errors.Is(err, trace.ErrNotFound))
}

func TestEvalCmd(t *testing.T) {
	dir := setupEnv(t)
	t.Setenv("MOCK_MODE", "0")

	report := filepath.Join(dir, "report.md")
	var out bytes.Buffer
	require.NoError(t, run([]string{"eval", "--cases", "../../data/eval/golden_cases.json", "--report", report}, &out))
	assert.Contains(t, out.String(), "# Eval report")
	assert.Contains(t, out.String(), "Wrote "+report)

	b, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "# Eval report\n- Passed: **7/7**\n"))

	entries, err := os.ReadDir(filepath.Join(dir, "runs", "eval"))
	require.NoError(t, err)
	assert.Len(t, entries, 7)

	cases := filepath.Join(dir, "cases.json")
	require.NoError(t, os.WriteFile(cases, []byte(`[{"name":"bad","input":"hello","expect_contains":"nope"}]`), 0o644))
	out.Reset()
	err = run([]string{"eval", "--cases", cases}, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEvalFailed))
	assert.Contains(t, out.String(), "| bad | ❌ |")

	_, err = os.Stat(filepath.Join(dir, "runs", "eval_report.md"))
	assert.NoError(t, err)
}
