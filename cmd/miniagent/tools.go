package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/effective-security/miniagent/server"
)

// ToolsCmd prints the registered tools
type ToolsCmd struct {
	Output string `short:"o" long:"output" default:"text" choice:"text" choice:"json" choice:"yaml" description:"output format"`

	opts *Options
}

func (c *ToolsCmd) Execute(_ []string) error {
	cfg, err := c.opts.loadConfig()
	if err != nil {
		return err
	}
	a, err := c.opts.newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	specs := a.Registry.ListSpecs()
	return c.opts.print(c.Output, &server.ToolsResponse{Tools: specs}, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tALLOW\tDESCRIPTION")
		for _, s := range specs {
			desc := s.Description
			if !s.Permission.Allow {
				desc += " (" + s.Permission.Reason + ")"
			}
			fmt.Fprintf(tw, "%s\t%t\t%s\n", s.Name, s.Permission.Allow, desc)
		}
		return tw.Flush()
	})
}
