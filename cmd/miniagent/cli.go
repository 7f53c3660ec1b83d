package main

import (
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/app"
	"github.com/effective-security/miniagent/config"
	"github.com/effective-security/miniagent/pkg/llmutils"
	"github.com/effective-security/xlog"
	"github.com/jessevdk/go-flags"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "cli")

// Options is the root command, the struct tags are interpreted by go-flags
type Options struct {
	Config   string `short:"c" long:"config" description:"configuration YAML file"`
	LogLevel string `long:"log-level" default:"ERROR" choice:"DEBUG" choice:"INFO" choice:"WARNING" choice:"ERROR" description:"log level"`

	Serve  *ServeCmd  `command:"serve" description:"Start HTTP server"`
	Run    *RunCmd    `command:"run" description:"Run the agent for a message"`
	Tools  *ToolsCmd  `command:"tools" description:"List registered tools"`
	Traces *TracesCmd `command:"traces" description:"List recorded runs"`
	Eval   *EvalCmd   `command:"eval" description:"Run golden cases in mock mode"`

	out     io.Writer
	errOut  io.Writer
	appOpts []app.Option
}

func newOptions(out io.Writer) *Options {
	o := &Options{out: out, errOut: os.Stderr}
	o.Serve = &ServeCmd{opts: o}
	o.Run = &RunCmd{opts: o}
	o.Tools = &ToolsCmd{opts: o}
	o.Traces = &TracesCmd{opts: o}
	o.Eval = &EvalCmd{opts: o}
	return o
}

// run parses args and executes the selected command
func run(args []string, out io.Writer, appOpts ...app.Option) error {
	o := newOptions(out)
	o.appOpts = appOpts
	return o.parse(args)
}

// parse executes the command selected by args
func (o *Options) parse(args []string) error {
	parser := flags.NewParser(o, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "miniagent"
	_, err := parser.ParseArgs(args)
	return err
}

// loadConfig configures logging and returns the configuration
func (o *Options) loadConfig() (*config.Config, error) {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
	xlog.SetGlobalLogLevel(parseLevel(o.LogLevel))

	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to load config")
	}
	return cfg, nil
}

func (o *Options) newApp(cfg *config.Config, opts ...app.Option) (*app.App, error) {
	return app.New(cfg, append(o.appOpts, opts...)...)
}

func parseLevel(level string) xlog.LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return xlog.DEBUG
	case "INFO":
		return xlog.INFO
	case "WARNING":
		return xlog.WARNING
	default:
		return xlog.ERROR
	}
}

// print writes val in the output format: text, json, yaml or toml
func (o *Options) print(format string, val any, text func(io.Writer) error) error {
	var s string
	switch format {
	case "", "text":
		return text(o.out)
	case "json":
		s = llmutils.ToJSONIndent(val)
	case "yaml":
		s = llmutils.ToYAML(val)
	case "toml":
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(val); err != nil {
			return errors.Wrap(err, "failed to encode toml")
		}
		s = sb.String()
	default:
		return errors.Newf("unsupported output: %s", format)
	}
	_, err := io.WriteString(o.out, llmutils.EnsureEndsWithNewline(s))
	return errors.WithStack(err)
}
