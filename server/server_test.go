package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/effective-security/miniagent/agent"
	"github.com/effective-security/miniagent/decision"
	"github.com/effective-security/miniagent/server"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/tools/calculator"
	"github.com/effective-security/miniagent/tools/summarizer"
	"github.com/effective-security/miniagent/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, cfg server.Config) *httptest.Server {
	calc, err := calculator.New()
	require.NoError(t, err)
	sum, err := summarizer.New()
	require.NoError(t, err)

	a := agent.New(
		tools.NewRegistry(calc, sum),
		trace.NewMemoryStore(trace.WithAuditLog(trace.NewAuditLog(t.TempDir()))),
		agent.Static(decision.NewHeuristic()),
	)
	ts := httptest.NewServer(server.New(a, cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string, out any) int {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestHealthAndTools(t *testing.T) {
	ts := newServer(t, server.Config{})

	var health map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/healthz", "", &health))
	assert.Equal(t, "ok", health["status"])

	var res struct {
		Tools []map[string]any `json:"tools"`
	}
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/tools", "", &res))
	require.Len(t, res.Tools, 2)
	assert.Equal(t, "calculator", res.Tools[0]["name"])
	assert.Equal(t, "summarize_text", res.Tools[1]["name"])
	assert.NotNil(t, res.Tools[0]["input_schema"])
	assert.Equal(t, map[string]any{"allow": true}, res.Tools[0]["permission"])
}

func TestRunAndTrace(t *testing.T) {
	ts := newServer(t, server.Config{})

	var res agent.Response
	code := doJSON(t, http.MethodPost, ts.URL+"/api/run",
		`{"message":"calculate 2+3*4","history":[{"role":"user","content":"hi"}],"api_key":"sk-secret"}`, &res)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Result: 14.0", res.Final)
	assert.Equal(t, trace.StatusFinalized, res.Status)
	require.NotEmpty(t, res.RunID)

	var run trace.Run
	code = doJSON(t, http.MethodGet, ts.URL+"/api/trace/"+res.RunID, "", &run)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, res.RunID, run.RunID)
	assert.Equal(t, "Result: 14.0", run.Final)
	assert.Len(t, run.Steps, 2)
	assert.Equal(t, agent.DefaultMaxSteps, run.Input.MaxSteps)
	require.Len(t, run.Input.History, 1)
	assert.Equal(t, "hi", run.Input.History[0].Content)

	var list struct {
		Runs []*trace.Run `json:"runs"`
	}
	code = doJSON(t, http.MethodGet, ts.URL+"/api/traces?limit=10", "", &list)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, res.RunID, list.Runs[0].RunID)
}

func TestRun_DefaultMaxSteps(t *testing.T) {
	ts := newServer(t, server.Config{DefaultMaxSteps: 1})

	var res agent.Response
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, ts.URL+"/api/run", `{"message":"calculate 1+1"}`, &res))
	assert.Equal(t, trace.StatusExhausted, res.Status)
	assert.Equal(t, "Reached max_steps=1. Last observation: Result: 2.0", res.Final)
}

func TestRun_BadRequest(t *testing.T) {
	ts := newServer(t, server.Config{})

	tcs := []string{
		`{"message":`,
		`not json`,
		`{"message":"hi","max_steps":0}`,
		`{"message":"hi","max_steps":-1}`,
		`{"message":"hi","max_steps":"two"}`,
	}
	for _, body := range tcs {
		var res server.ErrorResponse
		assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, ts.URL+"/api/run", body, &res), body)
		assert.NotEmpty(t, res.Detail, body)
	}
}

func TestTrace_NotFound(t *testing.T) {
	ts := newServer(t, server.Config{})

	var res server.ErrorResponse
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, ts.URL+"/api/trace/missing", "", &res))
	assert.Equal(t, "run_id not found", res.Detail)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, ts.URL+"/api/traces?limit=x", "", &res))
	assert.Equal(t, "invalid limit: x", res.Detail)

	var list server.TracesResponse
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/api/traces", "", &list))
	assert.Empty(t, list.Runs)
}

func TestCORS(t *testing.T) {
	ts := newServer(t, server.Config{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/run", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, res.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestStatic(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	static := filepath.Join(dir, "static")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.MkdirAll(static, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide.html"), []byte("<h1>guide</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>ui</h1>"), 0o644))

	ts := newServer(t, server.Config{DocsDir: docs, StaticDir: static})

	get := func(path string) (int, string) {
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer res.Body.Close()
		b, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return res.StatusCode, string(b)
	}

	code, body := get("/docs/guide.html")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<h1>guide</h1>", body)

	code, body = get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<h1>ui</h1>", body)

	code, _ = get("/healthz")
	assert.Equal(t, http.StatusOK, code)
}

func TestStatic_Missing(t *testing.T) {
	ts := newServer(t, server.Config{DocsDir: "/not/found", StaticDir: ""})

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
