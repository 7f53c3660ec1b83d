package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/app"
	"github.com/effective-security/miniagent/callbacks"
)

// RunCmd runs the agent once and prints the response
type RunCmd struct {
	Message  string `short:"m" long:"message" required:"true" description:"user message"`
	MaxSteps int    `long:"max-steps" description:"step budget, defaults to the config"`
	APIKey   string `long:"api-key" description:"decision model credential for this run"`
	RunName  string `long:"run-name" description:"optional run label"`
	Output   string `short:"o" long:"output" default:"text" choice:"text" choice:"json" choice:"yaml" choice:"toml" description:"output format"`
	Verbose  bool   `short:"v" long:"verbose" description:"print the run transcript and stats to stderr"`

	opts *Options
}

func (c *RunCmd) Execute(_ []string) error {
	cfg, err := c.opts.loadConfig()
	if err != nil {
		return err
	}

	var appOpts []app.Option
	var pad *callbacks.Scratchpad
	if c.Verbose {
		pad = callbacks.NewScratchpad(callbacks.ModeVerbose)
		appOpts = append(appOpts, app.WithCallback(pad))
	}
	a, err := c.opts.newApp(cfg, appOpts...)
	if err != nil {
		return err
	}
	defer a.Close()

	req := a.NewRequest(c.Message)
	if c.MaxSteps != 0 {
		req.MaxSteps = c.MaxSteps
	}
	req.APIKey = c.APIKey
	req.RunName = c.RunName

	res, err := a.Agent.Run(context.Background(), req)
	if err != nil {
		return err
	}
	if pad != nil {
		if err = printTranscript(c.opts.errOut, pad, res.RunID); err != nil {
			return err
		}
	}

	return c.opts.print(c.Output, res, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s\n\nrun_id: %s\nstatus: %s\n", res.Final, res.RunID, res.Status)
		return err
	})
}

// printTranscript writes the transcript of the run followed by its stats
func printTranscript(w io.Writer, pad *callbacks.Scratchpad, runID string) error {
	stats, transcript := pad.EndRun(runID)
	if stats == nil {
		return nil
	}
	if _, err := w.Write(transcript); err != nil {
		return errors.WithStack(err)
	}
	_, err := fmt.Fprintf(w, "steps=%d tool_calls=%d succeeded=%d failed=%d fallbacks=%d status=%s\n",
		stats.Steps,
		stats.ToolsCalls,
		stats.ToolsCallsSucceeded,
		stats.ToolsCallsFailed,
		stats.DecisionFallbacks,
		stats.Status,
	)
	return errors.WithStack(err)
}
