// Package layout computes a deterministic top-down layout for Flow graphs.
//
// # Overview
//
// Flows are drawn the way flow-design tools draw them: Start at the top, one
// row per step, branches fanned out under their decision and joined again
// where they reconverge. This is not a general graph-drawing solver; it
// relies on the structure the builder and the transforms guarantee.
//
//	g, _ := flowxml.Build(data)
//	l := layout.Build(transform.CloseTerminals(g))
//	for _, n := range l.Nodes {
//	    fmt.Println(n.ID, n.X, n.Y)
//	}
//
// # Algorithm
//
// Placement works on an integer row and fractional column grid:
//
//  1. [FindMerge] locates where a node's branches reconverge with one
//     breadth-first search per branch, picking the common node with the
//     smallest summed depth.
//  2. [Width] measures how many columns a subtree needs up to a stop node.
//     Loops always reserve a column for their body.
//  3. [Depth] measures how many rows a subtree needs, so merge points and
//     loop continuations land below the deepest branch.
//  4. Placement walks depth-first from Start. Linear nodes stack vertically,
//     branches are centered in spans proportional to their width. A loop
//     takes the left part of its span and its body the columns to the right,
//     so nothing spills into a sibling branch.
//
// Every traversal is bounded by a stop node and an on-path guard, and a node
// keeps the first position it is given, so loop-backs and goto edges never
// cause infinite recursion. They are simply drawn to existing positions.
//
// # Faults and Orphans
//
// Fault targets are not part of the grid walk. Each fault edge gets a lane
// index; its target sits on the source's row, offset to the right by
// (lane+1) lanes. A lane is only taken when the fault target and everything
// placed below it stay at least a column clear of existing nodes. Nodes that cannot be reached
// at all are stacked below the lowest row in a fallback column and listed in
// [Layout.Orphans].
//
// # Coordinates
//
// Grid positions become pixels via [Options]: x = OriginX + col*ColumnWidth,
// y = OriginY + row*RowHeight. X and Y are node centers.
package layout
