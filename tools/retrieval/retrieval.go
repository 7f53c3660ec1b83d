// Package retrieval provides the local corpus search tool
package retrieval

import (
	"context"
	"strings"

	"github.com/effective-security/miniagent/pkg/retriever"
	"github.com/effective-security/miniagent/tools"
)

// ToolName is the registered name of the retrieval tool
const ToolName = "retrieve_corpus"

// DefaultK is used when the input does not specify k
const DefaultK = 3

// SnippetSize is the max number of characters in a result snippet
const SnippetSize = 280

// Searcher finds documents for a query
type Searcher interface {
	Search(query string, k int) []retriever.Hit
}

// Input is the retrieval tool input
type Input struct {
	Query string `json:"query" yaml:"query" jsonschema:"title=Query,description=Search query" validate:"required"`
	// K is nil when the key is absent; an explicit 0 fails validation
	K *int `json:"k,omitempty" yaml:"k,omitempty" jsonschema:"title=K,description=Number of passages,minimum=1,maximum=10,default=3" validate:"omitempty,min=1,max=10"`
}

// SetDefaults sets K if not provided
func (in *Input) SetDefaults() {
	if in.K == nil {
		k := DefaultK
		in.K = &k
	}
}

// Result is a single passage
type Result struct {
	DocID   string  `json:"doc_id" yaml:"doc_id" jsonschema:"title=Document ID"`
	Title   string  `json:"title" yaml:"title" jsonschema:"title=Title"`
	Score   float64 `json:"score" yaml:"score" jsonschema:"title=Score"`
	Snippet string  `json:"snippet" yaml:"snippet" jsonschema:"title=Snippet"`
}

// Output is the retrieval tool output
type Output struct {
	Results []*Result `json:"results" yaml:"results" jsonschema:"title=Results"`
}

// New returns the retrieval tool over the searcher
func New(searcher Searcher) (*tools.Typed[Input, Output], error) {
	return tools.New(ToolName,
		"Search a tiny local corpus and return top passages.",
		func(_ context.Context, in *Input) (*Output, error) {
			return Search(searcher, in.Query, *in.K), nil
		},
	)
}

// Search returns passages for the query
func Search(searcher Searcher, query string, k int) *Output {
	out := &Output{
		Results: []*Result{},
	}
	for _, hit := range searcher.Search(query, k) {
		out.Results = append(out.Results, &Result{
			DocID:   hit.Doc.ID,
			Title:   hit.Doc.Title,
			Score:   hit.Score,
			Snippet: Snippet(hit.Doc.Text),
		})
	}
	return out
}

// Snippet returns the first SnippetSize characters of the text on one line
func Snippet(text string) string {
	s := []rune(strings.ReplaceAll(strings.TrimSpace(text), "\n", " "))
	if len(s) > SnippetSize {
		s = s[:SnippetSize]
	}
	return string(s)
}
