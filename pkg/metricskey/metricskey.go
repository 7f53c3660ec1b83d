package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsRunFinalized is base for counter metric for runs ended with a final answer
	StatsRunFinalized = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_run_finalized",
		Help:         "stats_run_finalized provides total runs ended with a final answer",
		RequiredTags: []string{"strategy"},
	}

	StatsRunExhausted = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_run_exhausted",
		Help:         "stats_run_exhausted provides total runs ended by the step budget",
		RequiredTags: []string{"strategy"},
	}

	StatsRunFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_run_failed",
		Help:         "stats_run_failed provides total runs ended with an error",
		RequiredTags: []string{"strategy"},
	}

	StatsRunSteps = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_run_steps",
		Help:         "stats_run_steps provides total steps executed by runs",
		RequiredTags: []string{"strategy"},
	}

	StatsDecisionFallback = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_decision_fallback",
		Help:         "stats_decision_fallback provides total decisions replaced by a fallback final answer",
		RequiredTags: []string{"strategy", "model"},
	}

	StatsDecisionBytesReceived = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_decision_bytes_received",
		Help:         "stats_decision_bytes_received provides total bytes received from decision models",
		RequiredTags: []string{"strategy", "model"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsDenied = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_denied",
		Help:         "stats_tool_calls_denied provides total tool calls denied by permission",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls not found",
		RequiredTags: []string{"tool"},
	}
)

// Perf
var (
	PerfAgentRun = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_agent_run",
		Help:         "perf_agent_run provides duration of agent run",
		RequiredTags: []string{"strategy"},
	}

	PerfDecisionCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_decision_call",
		Help:         "perf_decision_call provides duration of decision call",
		RequiredTags: []string{"strategy", "model"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfAgentRun,
	&PerfDecisionCall,
	&PerfToolCall,
	&StatsDecisionBytesReceived,
	&StatsDecisionFallback,
	&StatsRunExhausted,
	&StatsRunFailed,
	&StatsRunFinalized,
	&StatsRunSteps,
	&StatsToolCallsDenied,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}
