package pipeline

import (
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/layout"
)

// GenerateLayout positions g using the layout options in opts.
// Layout never fails; unreachable nodes are reported in Layout.Orphans.
func GenerateLayout(g *flow.Graph, opts Options) layout.Layout {
	l := layout.Build(g, layout.WithOptions(opts.Layout))
	if len(l.Orphans) > 0 && opts.Logger != nil {
		opts.Logger.Warn("nodes unreachable from start", "orphans", l.Orphans)
	}
	return l
}
