// Package decision produces the next action of the agent loop.
//
// A Source returns a Choice for a step: either call a tool or answer.
// The heuristic Source is deterministic and offline, remote Sources ask
// a language model and fall back to a final answer on invalid content.
// The Arena selects a Source by strategy name.
package decision
