// Package tools defines the contract every agent tool satisfies,
// a typed adapter that turns a Go function into a tool,
// and the Registry that dispatches calls by name behind a permission gate.
package tools
