// Package tavily provides the web_search tool backed by the Tavily API
package tavily

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent/tools", "tavily")

// ToolName is the registered name of the web search tool
const ToolName = "web_search"

// DeniedReason is the permission reason when no API key is configured
const DeniedReason = "web_search is disabled: TAVILY_API_KEY is not set"

// Config for the web search tool
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query string `json:"query" yaml:"query" jsonschema:"title=Search Query,description=The query to search web." validate:"required"`
}

// SearchResult represents the tool output
type SearchResult struct {
	Results []tavilyModels.SearchResult `json:"results" yaml:"results" jsonschema:"title=Results,description=The results from a web search."`
	Answer  string                      `json:"answer,omitempty" yaml:"answer,omitempty" jsonschema:"title=Answer,description=The aggregated answer from a web search."`
}

type searcher struct {
	cfg Config
}

// New returns the web search tool.
// Without an API key the tool is registered but denied.
func New(cfg Config) (*tools.Typed[SearchRequest, SearchResult], error) {
	perm := tools.Allowed()
	if cfg.APIKey == "" {
		perm = tools.Denied(DeniedReason)
	}
	s := &searcher{cfg: cfg}
	return tools.New(ToolName,
		"A tool that provides a web search functionality.",
		s.search,
		tools.WithPermission(perm),
	)
}

func (s *searcher) search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if s.cfg.APIKey == "" {
		return nil, errors.New("TAVILY_API_KEY is not set")
	}

	client := tavilygo.NewClient(s.cfg.APIKey)
	if s.cfg.BaseURL != "" {
		client.BaseURL = s.cfg.BaseURL
	}
	if s.cfg.HTTPClient != nil {
		client.HTTPClient = s.cfg.HTTPClient
	}

	searchResp, err := tavilygo.Search(client, tavilyModels.SearchRequest{
		Query:         req.Query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
	})
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"query", slices.StringUpto(req.Query, 64),
			"err", err.Error(),
		)
		return nil, errors.Wrap(err, "failed to perform search")
	}

	return &SearchResult{
		Results: searchResp.Results,
		Answer:  searchResp.Answer,
	}, nil
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.URL)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SCORE: %.2f\n", result.Score)
		fmt.Fprintf(&buf, "  CONTENT: %s\n", strings.TrimSpace(result.Content))
	}

	return buf.String()
}
