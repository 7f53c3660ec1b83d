package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/effective-security/miniagent/server"
	"github.com/effective-security/miniagent/trace"
)

// TracesCmd prints recorded runs.
// Runs outlive the process only with the redis store.
type TracesCmd struct {
	Limit  int    `short:"l" long:"limit" default:"50" description:"max number of runs"`
	ID     string `long:"id" description:"print the run with this id"`
	Output string `short:"o" long:"output" default:"text" choice:"text" choice:"json" choice:"yaml" description:"output format"`

	opts *Options
}

func (c *TracesCmd) Execute(_ []string) error {
	cfg, err := c.opts.loadConfig()
	if err != nil {
		return err
	}
	a, err := c.opts.newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if c.ID != "" {
		run, err := a.Store.Get(ctx, c.ID)
		if err != nil {
			return err
		}
		return c.opts.print(c.Output, run, func(w io.Writer) error {
			return printRun(w, run)
		})
	}

	runs, err := a.Store.List(ctx, c.Limit)
	if err != nil {
		return err
	}
	return c.opts.print(c.Output, &server.TracesResponse{Runs: runs}, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN ID\tSTATUS\tSTEPS\tDURATION\tMESSAGE")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%dms\t%s\n", r.RunID, r.Status, len(r.Steps), r.DurationMS, r.Input.Message)
		}
		return tw.Flush()
	})
}

func printRun(w io.Writer, run *trace.Run) error {
	fmt.Fprintf(w, "Run: %s\nStatus: %s\nMessage: %s\n", run.RunID, run.Status, run.Input.Message)
	for _, s := range run.Steps {
		fmt.Fprintf(w, "Step %d: %s\n", s.Step, s.Plan)
		if s.ToolCall != nil {
			fmt.Fprintf(w, "  Tool: %s\n", s.ToolCall.ToolName)
		}
		if s.Observation != "" {
			fmt.Fprintf(w, "  Observation: %s\n", s.Observation)
		}
	}
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}
	_, err := fmt.Fprintf(w, "Final: %s\n", run.Final)
	return err
}
