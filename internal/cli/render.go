package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file (single format) or base path (multiple)
	formats  string // comma-separated output formats
	detailed bool   // include element data in node labels
	labels   bool   // label edges with their connector text
	refresh  bool   // bypass cached graphs
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts renderOpts
		lf   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render <flow.xml|graph.json|layout.json>",
		Short: "Render a flow diagram to SVG, PNG, DOT or JSON",
		Long: `Render a flow diagram to SVG, PNG, DOT or JSON.

The input may be Flow metadata XML, a graph written by 'parse' or a layout
written by 'layout'. Nodes keep the positions computed by the layout engine;
Graphviz only routes the edges.

Examples:
  flowtower render Opportunity_Router.flow-meta.xml
  flowtower render Opportunity_Router.flow-meta.xml -f svg,png -o out/router
  flowtower render Opportunity_Router.layout.json -f dot --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := c.baseOptions()
			popts.Refresh = opts.refresh
			if cmd.Flags().Changed("format") || len(popts.Formats) == 0 {
				popts.Formats = parseFormats(opts.formats)
			}
			if cmd.Flags().Changed("detailed") {
				popts.Detailed = opts.detailed
			}
			if cmd.Flags().Changed("labels") {
				popts.Labels = opts.labels
			}
			if err := pipeline.ValidateFormats(popts.Formats); err != nil {
				return err
			}
			lf.apply(cmd, &popts.Layout)
			return c.runRender(cmd.Context(), args[0], opts.output, popts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include element details in node labels")
	cmd.Flags().BoolVar(&opts.labels, "labels", true, "label edges with their connector text")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached graphs")
	addLayoutFlags(cmd, &lf)

	return cmd
}

// isLayoutFile reports whether path names a layout written by 'layout'.
func isLayoutFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".layout.json")
}

// runRender produces every requested format for input and writes one file
// per format.
func (c *CLI) runRender(ctx context.Context, input, output string, opts pipeline.Options) error {
	prog := newProgress(c.Logger)

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, c.Out, "Rendering...")
	spinner.Start()
	artifacts, stats, err := c.renderInput(ctx, runner, input, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	printSuccess(c.Out, "Rendered %s", filepath.Base(input))
	for _, format := range opts.Formats {
		path := renderPath(output, input, format, len(opts.Formats) > 1)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(c.Out, path)
	}
	printStats(c.Out, stats)
	prog.done("render finished", "formats", opts.Formats)
	return nil
}

// renderInput runs as much of the pipeline as the input needs.
func (c *CLI) renderInput(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options) (map[string][]byte, flowStats, error) {
	if isFlowXML(input) {
		in, err := readFlow(input)
		if err != nil {
			return nil, flowStats{}, err
		}
		opts.Source, opts.XML = in.Source, in.XML
		res, err := runner.Execute(ctx, opts)
		if err != nil {
			return nil, flowStats{}, err
		}
		return res.Artifacts, flowStats{
			nodes:    res.Stats.NodeCount,
			edges:    res.Stats.EdgeCount,
			rows:     res.Stats.RowCount,
			warnings: res.Stats.Warnings,
			cached:   res.CacheInfo.RenderHit,
		}, nil
	}

	var (
		l   layout.Layout
		err error
	)
	if isLayoutFile(input) {
		l, err = layout.ReadLayoutFile(input)
		if err != nil {
			return nil, flowStats{}, fmt.Errorf("load layout %s: %w", input, err)
		}
	} else {
		g, _, err := c.loadGraph(ctx, runner, input, &opts)
		if err != nil {
			return nil, flowStats{}, err
		}
		if l, err = runner.Layout(ctx, g, opts); err != nil {
			return nil, flowStats{}, err
		}
	}

	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, flowStats{}, err
	}
	return artifacts, flowStats{nodes: len(l.Nodes), edges: len(l.Edges), rows: l.RowCount(), cached: hit}, nil
}

// renderPath picks the file for one format. A single format uses output
// as given; several formats treat output as a base path and append the
// format extension. Without output the name is derived from the input.
func renderPath(output, input, format string, multiple bool) string {
	if output == "" {
		return outputPath("", input, format)
	}
	if !multiple {
		return output
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		output = strings.TrimSuffix(output, ext)
	}
	return output + "." + format
}
