package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/effective-security/miniagent/app"
	"github.com/effective-security/miniagent/callbacks"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

// ServeCmd starts the HTTP server
type ServeCmd struct {
	Addr    string `short:"a" long:"addr" description:"listen address, overrides the config"`
	Verbose bool   `short:"v" long:"verbose" description:"print run events to stderr"`

	opts *Options
}

func (c *ServeCmd) Execute(_ []string) error {
	cfg, err := c.opts.loadConfig()
	if err != nil {
		return err
	}
	cfg.Addr = values.StringsCoalesce(c.Addr, cfg.Addr)

	var appOpts []app.Option
	if c.Verbose {
		appOpts = append(appOpts, app.WithCallback(callbacks.NewPrinter(c.opts.errOut, callbacks.ModeVerbose)))
	}
	a, err := c.opts.newApp(cfg, appOpts...)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.KV(xlog.INFO, "status", "starting", "addr", cfg.Addr, "config", c.opts.Config)

	return a.Server().ListenAndServe(ctx)
}
