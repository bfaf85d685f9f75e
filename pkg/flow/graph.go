package flow

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrDuplicateNodeID is returned by [Graph.Validate] when two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is returned by [Graph.Validate] when two edges share an ID.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrStartCount is returned by [Graph.Validate] when the graph does not have
	// exactly one Start node.
	ErrStartCount = errors.New("graph must have exactly one start node")

	// ErrStartHasIncoming is returned by [Graph.Validate] when an edge targets Start.
	ErrStartHasIncoming = errors.New("start node must not have incoming edges")
)

// Graph is a parsed Flow: typed nodes, typed connectors and pass-through metadata.
//
// Nodes and Edges keep document order. A Graph is treated as an immutable value:
// every transform returns a new Graph and leaves its input untouched.
type Graph struct {
	Nodes    []Node   `json:"nodes" bson:"nodes" yaml:"nodes"`
	Edges    []Edge   `json:"edges" bson:"edges" yaml:"edges"`
	Metadata Metadata `json:"metadata" bson:"metadata" yaml:"metadata"`
	Warnings []string `json:"warnings,omitempty" bson:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Outgoing returns the edges leaving id in document order.
func (g *Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering id in document order.
func (g *Graph) Incoming(id string) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Clone returns a deep copy of the graph. Node data maps are copied shallowly.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes:    make([]Node, len(g.Nodes)),
		Edges:    slices.Clone(g.Edges),
		Metadata: g.Metadata,
		Warnings: slices.Clone(g.Warnings),
	}
	if g.Metadata.Trigger != nil {
		t := *g.Metadata.Trigger
		out.Metadata.Trigger = &t
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.clone()
	}
	return out
}

func (n Node) clone() Node {
	n.Data = maps.Clone(n.Data)
	n.Children = slices.Clone(n.Children)
	n.IncomingGoTo = slices.Clone(n.IncomingGoTo)
	n.ImplicitEnds = slices.Clone(n.ImplicitEnds)
	return n
}

// Validate checks the structural invariants every stage relies on: unique node
// and edge IDs and exactly one Start without incoming edges.
// Dangling edge targets are tolerated and not reported.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	starts := 0
	for _, n := range g.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		seen[n.ID] = true
		if n.Type == TypeStart {
			starts++
		}
	}
	if starts != 1 {
		return fmt.Errorf("%w: found %d", ErrStartCount, starts)
	}

	edges := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if edges[e.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateEdgeID, e.ID)
		}
		edges[e.ID] = true
		if e.Target == StartID {
			return fmt.Errorf("%w: %s", ErrStartHasIncoming, e.ID)
		}
	}
	return nil
}

// Index is a read-only adjacency view over a graph, built once per stage.
type Index struct {
	nodes    map[string]*Node
	outgoing map[string][]Edge
	incoming map[string][]Edge
}

// NewIndex builds adjacency lists for g. Edge order within each list follows
// document order.
func NewIndex(g *Graph) *Index {
	ix := &Index{
		nodes:    make(map[string]*Node, len(g.Nodes)),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
	}
	for i := range g.Nodes {
		if _, dup := ix.nodes[g.Nodes[i].ID]; !dup {
			ix.nodes[g.Nodes[i].ID] = &g.Nodes[i]
		}
	}
	for _, e := range g.Edges {
		ix.outgoing[e.Source] = append(ix.outgoing[e.Source], e)
		ix.incoming[e.Target] = append(ix.incoming[e.Target], e)
	}
	return ix
}

// Node returns the indexed node.
func (ix *Index) Node(id string) (*Node, bool) {
	n, ok := ix.nodes[id]
	return n, ok
}

// Has reports whether id names a node.
func (ix *Index) Has(id string) bool {
	_, ok := ix.nodes[id]
	return ok
}

// Outgoing returns the edges leaving id.
func (ix *Index) Outgoing(id string) []Edge { return ix.outgoing[id] }

// Incoming returns the edges entering id.
func (ix *Index) Incoming(id string) []Edge { return ix.incoming[id] }
