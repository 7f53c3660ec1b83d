package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/eval"
)

// ErrEvalFailed is returned when a golden case fails
var ErrEvalFailed = errors.New("eval failed")

// EvalCmd runs golden cases with the heuristic strategy
type EvalCmd struct {
	Cases  string `long:"cases" default:"data/eval/golden_cases.json" description:"cases file: .json, .yaml or .toml"`
	Report string `long:"report" description:"markdown report file, defaults to <log_dir>/eval_report.md"`

	opts *Options
}

func (c *EvalCmd) Execute(_ []string) error {
	cfg, err := c.opts.loadConfig()
	if err != nil {
		return err
	}

	reportFile := c.Report
	if reportFile == "" {
		reportFile = filepath.Join(cfg.LogDir, "eval_report.md")
	}
	cfg.SetMockMode(true)
	cfg.LogDir = filepath.Join(cfg.LogDir, "eval")

	cases, err := eval.LoadCases(c.Cases)
	if err != nil {
		return err
	}

	a, err := c.opts.newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := eval.Run(context.Background(), a.Agent, cases)
	if err != nil {
		return err
	}

	md := report.Markdown()
	if err = os.MkdirAll(filepath.Dir(reportFile), 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err = os.WriteFile(reportFile, []byte(md), 0o644); err != nil {
		return errors.WithStack(err)
	}

	fmt.Fprintf(c.opts.out, "%s\nWrote %s\n", md, reportFile)

	if !report.Passed() {
		return errors.Wrapf(ErrEvalFailed, "%d of %d cases failed", len(report.Failed()), len(report.Rows))
	}
	return nil
}
