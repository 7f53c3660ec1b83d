// Package server exposes the agent over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/agent"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/trace"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "server")

// Config of the HTTP server
type Config struct {
	Addr string
	// DocsDir is served under /docs/ when it exists
	DocsDir string
	// StaticDir is served under / when it exists
	StaticDir string
	// DefaultMaxSteps applies to run requests without max_steps
	DefaultMaxSteps int
}

// Server is the HTTP API server
type Server struct {
	agent *agent.Agent
	cfg   Config
	srv   *http.Server
}

// ToolsResponse is returned by GET /api/tools
type ToolsResponse struct {
	Tools []*tools.Spec `json:"tools"`
}

// TracesResponse is returned by GET /api/traces
type TracesResponse struct {
	Runs []*trace.Run `json:"runs"`
}

// ErrorResponse is returned on failed requests
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// New returns the server
func New(a *agent.Agent, cfg Config) *Server {
	cfg.DefaultMaxSteps = values.NumbersCoalesce(cfg.DefaultMaxSteps, agent.DefaultMaxSteps)
	s := &Server{
		agent: a,
		cfg:   cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/tools", s.handleTools)
	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("GET /api/traces", s.handleTraces)
	mux.HandleFunc("GET /api/trace/{run_id}", s.handleTrace)

	if isDir(cfg.DocsDir) {
		mux.Handle("GET /docs/", http.StripPrefix("/docs/", http.FileServer(http.Dir(cfg.DocsDir))))
	}
	if isDir(cfg.StaticDir) {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe serves until ctx is canceled
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutCtx)
	}()

	logger.KV(xlog.INFO, "status", "listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to serve")
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, &ToolsResponse{
		Tools: s.agent.Registry().ListSpecs(),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := agent.NewRequest("")
	req.MaxSteps = s.cfg.DefaultMaxSteps
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.agent.Run(ctx, req)
	if err != nil {
		if errors.Is(err, agent.ErrInvalidRequest) {
			writeError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		logger.ContextKV(ctx, xlog.ERROR, "reason", "run", "err", err.Error())
		writeError(ctx, w, http.StatusInternalServerError, "failed to run")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

func (s *Server) handleTraces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := trace.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(ctx, w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	runs, err := s.agent.Store().List(ctx, limit)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "list", "err", err.Error())
		writeError(ctx, w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(ctx, w, http.StatusOK, &TracesResponse{Runs: runs})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	run, err := s.agent.Store().Get(ctx, r.PathValue("run_id"))
	if err != nil {
		if errors.Is(err, trace.ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, "run_id not found")
			return
		}
		logger.ContextKV(ctx, xlog.ERROR, "reason", "get", "err", err.Error())
		writeError(ctx, w, http.StatusInternalServerError, "failed to get run")
		return
	}
	writeJSON(ctx, w, http.StatusOK, run)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, detail string) {
	writeJSON(ctx, w, status, &ErrorResponse{Detail: detail})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ContextKV(ctx, xlog.DEBUG, "reason", "write", "err", err.Error())
	}
}

func isDir(dir string) bool {
	if dir == "" {
		return false
	}
	fi, err := os.Stat(dir)
	return err == nil && fi.IsDir()
}
