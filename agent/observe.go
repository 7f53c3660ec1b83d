package agent

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/effective-security/miniagent/pkg/llmutils"
	"github.com/effective-security/miniagent/tools"
	"github.com/effective-security/miniagent/tools/calculator"
	"github.com/effective-security/miniagent/tools/retrieval"
	"github.com/effective-security/miniagent/tools/summarizer"
)

const (
	// PlanSelectTool is the plan of a step without an observation
	PlanSelectTool = "Identify whether a tool is needed; if so pick the best tool to produce the answer."
	// PlanUseObservation is the plan of a step after a tool has run
	PlanUseObservation = "Use the latest tool output to craft the final response, or run another tool if needed."

	// NoDocuments is the observation of a retrieval without results
	NoDocuments = "No relevant documents found in the local corpus."
)

// Plan returns the plan for the step
func Plan(observation string) string {
	if observation == "" {
		return PlanSelectTool
	}
	return PlanUseObservation
}

// Observe derives the text the next decision sees from a tool result.
// It accepts any output shape.
func Observe(call *tools.Call, result *tools.Result) string {
	name := ""
	if call != nil {
		name = call.ToolName
	}
	if result == nil {
		return fmt.Sprintf("Tool %s error: no result", name)
	}
	if !result.OK {
		return fmt.Sprintf("Tool %s error: %s", name, result.Error)
	}

	out := result.Output
	switch name {
	case calculator.ToolName:
		return "Result: " + FormatValue(out["result"])
	case summarizer.ToolName:
		v, ok := out["summary"]
		if !ok || v == nil {
			return ""
		}
		return FormatValue(v)
	case retrieval.ToolName:
		return observeRetrieval(out["results"])
	}
	return llmutils.ToCompactJSON(out)
}

func observeRetrieval(v any) string {
	var results []any
	switch list := v.(type) {
	case []any:
		results = list
	case []map[string]any:
		for _, m := range list {
			results = append(results, m)
		}
	}
	if len(results) == 0 {
		return NoDocuments
	}

	var b strings.Builder
	b.WriteString("Top local matches:\n")
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		m, ok := r.(map[string]any)
		if !ok {
			b.WriteString("- " + llmutils.ToCompactJSON(r))
			continue
		}
		fmt.Fprintf(&b, "- %s (score=%.2f): %s",
			FormatValue(m["title"]),
			toFloat(m["score"]),
			FormatValue(m["snippet"]))
	}
	b.WriteString("\n\nAnswer (mock): based on the corpus snippets above.")
	return b.String()
}

// FormatValue formats a decoded JSON value for an observation.
// Floats always carry a fraction or an exponent, 14 is "14.0".
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	}
	return llmutils.ToCompactJSON(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func toFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	}
	return 0
}
