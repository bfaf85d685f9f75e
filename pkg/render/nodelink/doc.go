// Package nodelink draws a laid-out flow as a Graphviz node-link diagram.
//
// # Overview
//
// Positions come from [layout.Build]; Graphviz only routes edges and draws
// shapes. [ToDOT] pins every node with pos="x,-y!" and the neato engine
// honors the pins, so the picture matches the layout coordinates exactly.
//
// # Usage
//
//	l := layout.Build(g)
//	dot := nodelink.ToDOT(l, nodelink.Options{Labels: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Styling
//
// Each node type has its own shape: diamonds for Decision and Wait, a
// hexagon for Loop, cylinders for record operations, and so on. Fault
// connectors are dashed red, goto connectors dotted.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process, so no system installation is required.
package nodelink
