// Package agent runs the plan, decide, execute and observe loop.
//
// A run is sequential and bounded by the step budget of the request.
// Every step is recorded in a trace.Run that is saved to the trace.Store
// when the run ends, whatever the outcome.
package agent
