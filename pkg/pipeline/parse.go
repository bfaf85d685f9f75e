package pipeline

import (
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/flowxml"
	"github.com/matzehuels/flowtower/pkg/transform"
)

// Parse builds a graph from opts.XML and closes every dangling path with an
// End node. Builder warnings are logged and kept on the graph.
func Parse(opts Options) (*flow.Graph, error) {
	g, err := flowxml.Build(opts.XML)
	if err != nil {
		return nil, err
	}
	if g.Metadata.APIName == "" && opts.Source != "" {
		g.Metadata.APIName = flowxml.APINameFromFile(opts.Source)
	}
	if opts.Logger != nil {
		for _, w := range g.Warnings {
			opts.Logger.Warn(w, "source", opts.Source)
		}
	}
	return transform.CloseTerminals(g), nil
}
