package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/pipeline"
)

// layoutFlags holds the spacing flags shared by layout, render and inspect.
// Only flags the user set override the config file.
type layoutFlags struct {
	columnWidth    float64
	rowHeight      float64
	originX        float64
	originY        float64
	faultOffset    float64
	fallbackColumn float64
}

func addLayoutFlags(cmd *cobra.Command, f *layoutFlags) {
	def := layout.DefaultOptions()
	flags := cmd.Flags()
	flags.Float64Var(&f.columnWidth, "column-width", def.ColumnWidth, "pixel width of one grid column")
	flags.Float64Var(&f.rowHeight, "row-height", def.RowHeight, "pixel height of one grid row")
	flags.Float64Var(&f.originX, "origin-x", def.OriginX, "pixel x of the Start node")
	flags.Float64Var(&f.originY, "origin-y", def.OriginY, "pixel y of the Start node")
	flags.Float64Var(&f.faultOffset, "fault-offset", def.FaultOffset, "columns between a node and its first fault lane")
	flags.Float64Var(&f.fallbackColumn, "fallback-column", def.FallbackColumn, "column for nodes unreachable from Start")
}

// apply copies the flags the user set onto o.
func (f *layoutFlags) apply(cmd *cobra.Command, o *layout.Options) {
	flags := cmd.Flags()
	set := func(name string, dst *float64, v float64) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("column-width", &o.ColumnWidth, f.columnWidth)
	set("row-height", &o.RowHeight, f.rowHeight)
	set("origin-x", &o.OriginX, f.originX)
	set("origin-y", &o.OriginY, f.originY)
	set("fault-offset", &o.FaultOffset, f.faultOffset)
	set("fallback-column", &o.FallbackColumn, f.fallbackColumn)
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		refresh bool
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout <flow.xml|graph.json>",
		Short: "Place every node of a flow on the layout grid",
		Long: `Place every node of a flow on the layout grid.

The input is either Flow metadata XML or a graph written by 'parse'. The
output is a layout.json file with pixel centers for every node, fault lane
assignments and the grid rows, which 'render' turns into SVG, PNG or DOT.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			opts.Refresh = refresh
			lf.apply(cmd, &opts.Layout)
			return c.runLayout(cmd.Context(), args[0], output, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <flow>.layout.json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached graphs")
	addLayoutFlags(cmd, &lf)

	return cmd
}

// runLayout loads or parses the graph, computes the layout and writes it.
func (c *CLI) runLayout(ctx context.Context, input, output string, opts pipeline.Options) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, _, err := c.loadGraph(ctx, runner, input, &opts)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, c.Out, "Computing layout...")
	spinner.Start()
	l, layoutHit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	path := outputPath(output, input, "layout.json")
	if err := layout.WriteLayoutFile(l, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	printSuccess(c.Out, "Layout complete")
	printFile(c.Out, path)
	printStats(c.Out, flowStats{
		nodes:    len(l.Nodes),
		edges:    len(l.Edges),
		rows:     l.RowCount(),
		warnings: len(g.Warnings),
		cached:   layoutHit,
	})
	for _, id := range l.Orphans {
		printWarning(c.Out, "%s is not reachable from Start", id)
	}
	printNewline(c.Out)
	printNextStep(c.Out, "Render", "flowtower render "+path)
	return nil
}
