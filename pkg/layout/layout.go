package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/transform"
)

// =============================================================================
// Layout
// =============================================================================

// Layout is a positioned flow graph.
//
// Nodes are the normalized graph nodes with X and Y set to pixel centers.
// Edges are passed through unchanged; renderers draw goto and loop-back edges
// as lines between already known positions. FaultLanes maps each fault edge
// ID to its lane index beside the source node. Rows maps grid rows to the
// node IDs placed there, in placement order.
type Layout struct {
	Nodes    []flow.Node   `json:"nodes" bson:"nodes"`
	Edges    []flow.Edge   `json:"edges" bson:"edges"`
	Metadata flow.Metadata `json:"metadata" bson:"metadata"`

	FaultLanes map[string]int   `json:"fault_lanes,omitempty" bson:"fault_lanes,omitempty"`
	Rows       map[int][]string `json:"rows,omitempty" bson:"rows,omitempty"`
	Orphans    []string         `json:"orphans,omitempty" bson:"orphans,omitempty"`

	// Bounding box of all node rectangles in pixels.
	MinX   float64 `json:"min_x" bson:"min_x"`
	MinY   float64 `json:"min_y" bson:"min_y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	Options Options `json:"options" bson:"options"`
}

// Graph returns the positioned nodes and edges as a graph.
func (l *Layout) Graph() *flow.Graph {
	g := &flow.Graph{
		Nodes:    l.Nodes,
		Edges:    l.Edges,
		Metadata: l.Metadata,
	}
	return g.Clone()
}

// Node returns the positioned node with the given ID.
func (l *Layout) Node(id string) (*flow.Node, bool) {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i], true
		}
	}
	return nil, false
}

// RowCount returns the number of grid rows in use.
func (l *Layout) RowCount() int { return len(l.Rows) }

// =============================================================================
// Layout API
// =============================================================================

// Build lays out g top-down from its Start node.
//
// g is normalized first, so it may come straight from the terminal
// synthesizer. Placement is depth-first from Start at grid (0, 0); nodes only
// reachable through fault connectors are placed in lanes beside their
// source, and nodes not reachable at all are stacked below everything else
// in the fallback column. Build never fails and is deterministic: the same
// graph and options always produce the same coordinates.
func Build(g *flow.Graph, opts ...Option) Layout {
	o := buildOptions(opts)
	ng := transform.Normalize(g)
	e := newEngine(ng)

	lanes := make(map[string]int)
	e.place(flow.StartID, 0, 0, "")
	cursor := e.placeFaults(0, o.FaultOffset, lanes)
	orphans := e.placeOrphans(cursor, o, lanes)

	rows := make(map[int][]string)
	for _, id := range e.order {
		rows[e.row[id]] = append(rows[e.row[id]], id)
	}

	l := Layout{
		Nodes:      ng.Nodes,
		Edges:      ng.Edges,
		Metadata:   ng.Metadata,
		FaultLanes: lanes,
		Rows:       rows,
		Orphans:    orphans,
		Options:    o,
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range l.Nodes {
		n := &l.Nodes[i]
		if !e.placed[n.ID] {
			continue
		}
		n.X = o.OriginX + e.col[n.ID]*o.ColumnWidth
		n.Y = o.OriginY + float64(e.row[n.ID])*o.RowHeight
		n.Positioned = true

		minX = math.Min(minX, n.X-n.Width/2)
		maxX = math.Max(maxX, n.X+n.Width/2)
		minY = math.Min(minY, n.Y-n.Height/2)
		maxY = math.Max(maxY, n.Y+n.Height/2)
	}
	if len(e.order) > 0 {
		l.MinX, l.MinY = minX, minY
		l.Width, l.Height = maxX-minX, maxY-minY
	}
	return l
}

// Apply returns a copy of g with every node positioned. It is Build without
// the layout annotations.
func Apply(g *flow.Graph, opts ...Option) *flow.Graph {
	l := Build(g, opts...)
	out := l.Graph()
	out.Warnings = append(out.Warnings, g.Warnings...)
	return out
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if len(l.Nodes) == 0 {
		return Layout{}, fmt.Errorf("layout must contain nodes")
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
