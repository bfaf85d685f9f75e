package nodelink

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/layout"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the node type and element data to node labels.
	Detailed bool
	// Labels draws connector labels on edges.
	Labels bool
}

// nodeStyle is the Graphviz shape and fill for one node type.
type nodeStyle struct {
	shape string
	style string
	fill  string
}

var nodeStyles = map[flow.NodeType]nodeStyle{
	flow.TypeStart:          {"box", "rounded,filled", "#c8e6c9"},
	flow.TypeScreen:         {"box", "rounded,filled", "#bbdefb"},
	flow.TypeDecision:       {"diamond", "filled", "#ffe0b2"},
	flow.TypeAssignment:     {"box", "rounded,filled", "#ffccbc"},
	flow.TypeLoop:           {"hexagon", "filled", "#ffe0b2"},
	flow.TypeRecordCreate:   {"cylinder", "filled", "#f8bbd0"},
	flow.TypeRecordUpdate:   {"cylinder", "filled", "#f8bbd0"},
	flow.TypeRecordLookup:   {"cylinder", "filled", "#f8bbd0"},
	flow.TypeRecordDelete:   {"cylinder", "filled", "#f8bbd0"},
	flow.TypeAction:         {"component", "filled", "#d1c4e9"},
	flow.TypeApexAction:     {"component", "filled", "#d1c4e9"},
	flow.TypeEmailAction:    {"component", "filled", "#d1c4e9"},
	flow.TypeApprovalAction: {"component", "filled", "#d1c4e9"},
	flow.TypeQuickAction:    {"component", "filled", "#d1c4e9"},
	flow.TypeSubflow:        {"box3d", "filled", "#b2dfdb"},
	flow.TypeWait:           {"diamond", "filled", "#fff9c4"},
	flow.TypeCustomError:    {"octagon", "filled", "#ffcdd2"},
	flow.TypeEnd:            {"ellipse", "filled", "#e0e0e0"},
	flow.TypeOrphan:         {"box", "rounded,dashed", "white"},
}

// ToDOT converts a layout to Graphviz DOT with every node pinned at its
// layout position. Coordinates are pixels (inputscale=72) with the y axis
// flipped, since Graphviz grows upward.
//
// Fault edges are dashed red, goto edges dotted and loop-back edges to a
// Loop node drawn without constraint. Nodes the layout did not position
// are emitted without a pos attribute.
func ToDOT(l layout.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"Helvetica\", fontsize=12, fixedsize=true, penwidth=1.2];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10, arrowsize=0.7];\n")
	buf.WriteString("\n")

	orphans := make(map[string]bool, len(l.Orphans))
	for _, id := range l.Orphans {
		orphans[id] = true
	}
	for _, n := range l.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, orphans[n.ID], opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		attrs := edgeAttrs(e, opts.Labels)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n flow.Node, orphan, detailed bool) []string {
	st, ok := nodeStyles[n.Type]
	if !ok || orphan {
		st = nodeStyles[flow.TypeOrphan]
	}
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		"shape=" + st.shape,
		fmt.Sprintf("style=%q", st.style),
		fmt.Sprintf("fillcolor=%q", st.fill),
		"width=" + inches(n.Width),
		"height=" + inches(n.Height),
	}
	if n.Positioned {
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", num(n.X), num(-n.Y)))
	}
	if n.IsFaultPath {
		attrs = append(attrs, "color=\"#c62828\"")
	}
	return attrs
}

func fmtLabel(n flow.Node, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed {
		return label
	}
	parts := []string{label, "[" + string(n.Type) + "]"}
	for _, k := range slices.Sorted(maps.Keys(n.Data)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Data[k]))
	}
	return strings.Join(parts, "\n")
}

func edgeAttrs(e flow.Edge, labels bool) []string {
	var attrs []string
	if labels && e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	switch e.Type {
	case flow.EdgeFault, flow.EdgeFaultEnd:
		attrs = append(attrs, "style=dashed", "color=\"#c62828\"", "fontcolor=\"#c62828\"")
	case flow.EdgeGoTo:
		attrs = append(attrs, "style=dotted", "constraint=false")
	case flow.EdgeLoopNext:
		attrs = append(attrs, "color=\"#ef6c00\"")
	case flow.EdgeLoopEnd:
		attrs = append(attrs, "color=\"#ef6c00\"", "style=bold")
	case flow.EdgeNormal:
	}
	return attrs
}

// inches converts pixels to Graphviz inches at 72 points per inch.
func inches(px float64) string {
	return num(px / 72)
}

func num(f float64) string {
	if f == 0 {
		f = 0 // drop negative zero
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
