package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/flowxml"
)

// Graph encodings written by the parse command.
const (
	encodingJSON = "json"
	encodingYAML = "yaml"
)

// parseOpts holds the command-line flags for the parse command.
type parseOpts struct {
	output   string // output file path (stdout if empty)
	encoding string // json or yaml
	raw      bool   // skip End node synthesis
	refresh  bool   // bypass cached graphs
}

// parseCommand creates the parse command.
func (c *CLI) parseCommand() *cobra.Command {
	opts := parseOpts{encoding: encodingJSON}

	cmd := &cobra.Command{
		Use:   "parse <flow.xml>",
		Short: "Build a typed graph from Flow metadata XML",
		Long: `Build a typed graph from Flow metadata XML.

Every element becomes a node and every connector a typed edge. Paths that
stop without an explicit connector are closed with synthetic End nodes
unless --raw is given.

Examples:
  flowtower parse Opportunity_Router.flow-meta.xml
  flowtower parse Opportunity_Router.flow-meta.xml -o graph.json
  flowtower parse Opportunity_Router.flow-meta.xml --encoding yaml --raw`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParse(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.encoding, "encoding", "e", opts.encoding, "graph encoding: json (default), yaml")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "emit the graph as built, without synthesized End nodes")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the cache")

	return cmd
}

// runParse builds the graph for input and writes it to opts.output or stdout.
func (c *CLI) runParse(ctx context.Context, input string, opts parseOpts) error {
	if opts.encoding != encodingJSON && opts.encoding != encodingYAML {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid encoding %q (must be json or yaml)", opts.encoding)
	}

	g, cached, err := c.buildGraph(ctx, input, opts)
	if err != nil {
		return err
	}

	data, err := encodeGraph(g, opts.encoding)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}

	printSuccess(c.Out, "Parsed %s", g.Metadata.APIName)
	printFile(c.Out, opts.output)
	printStats(c.Out, flowStats{nodes: g.NodeCount(), edges: g.EdgeCount(), warnings: len(g.Warnings), cached: cached})
	printNewline(c.Out)
	printNextStep(c.Out, "Lay out", "flowtower layout "+opts.output)
	return nil
}

func (c *CLI) buildGraph(ctx context.Context, input string, opts parseOpts) (*flow.Graph, bool, error) {
	in, err := readFlow(input)
	if err != nil {
		return nil, false, err
	}

	if opts.raw {
		g, err := flowxml.Build(in.XML)
		if err != nil {
			return nil, false, err
		}
		if g.Metadata.APIName == "" {
			g.Metadata.APIName = flowxml.APINameFromFile(input)
		}
		for _, w := range g.Warnings {
			c.Logger.Warn(w, "source", in.Source)
		}
		return g, false, nil
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return nil, false, err
	}
	defer runner.Close()

	popts := c.baseOptions()
	popts.Source, popts.XML, popts.Refresh = in.Source, in.XML, opts.refresh
	return runner.ParseWithCacheInfo(ctx, popts)
}

func encodeGraph(g *flow.Graph, encoding string) ([]byte, error) {
	if encoding == encodingYAML {
		return flow.MarshalGraphYAML(g)
	}
	return flow.MarshalGraph(g)
}
