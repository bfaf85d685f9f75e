package transform

import (
	"slices"

	"github.com/matzehuels/flowtower/pkg/flow"
)

// Normalize returns a copy of g with the relational node fields filled in:
// Next, Children, Parent, ChildIndex, Prev, Fault, IncomingGoTo and
// IsTerminal. Edges are copied unchanged. Fields left over from an earlier
// run are recomputed, so Normalize is idempotent.
//
// Forward edges are the non-fault, non-goto edges. Decision, Wait and Loop
// nodes, and Start when it has more than one forward edge, get their forward
// targets as ordered Children (see [OrderBranches]); every other node gets its
// first forward target as Next.
func Normalize(g *flow.Graph) *flow.Graph {
	out := g.Clone()
	ix := flow.NewIndex(out)

	for i := range out.Nodes {
		n := &out.Nodes[i]
		resetRelations(n)

		var forward []flow.Edge
		nonFault := 0
		for _, e := range ix.Outgoing(n.ID) {
			if e.Type.IsFault() {
				if n.Fault == "" {
					n.Fault = e.Target
				}
				continue
			}
			nonFault++
			if e.Type.IsForward() {
				forward = append(forward, e)
			}
		}
		n.IsTerminal = nonFault == 0

		if branches(n, forward) {
			for _, e := range OrderBranches(n, forward) {
				if !slices.Contains(n.Children, e.Target) {
					n.Children = append(n.Children, e.Target)
				}
			}
		} else if len(forward) > 0 {
			n.Next = forward[0].Target
		}
	}

	for i := range out.Nodes {
		n := &out.Nodes[i]
		for idx, child := range n.Children {
			c, ok := ix.Node(child)
			if !ok || c.Parent != "" || c.ID == n.ID {
				continue
			}
			c.Parent = n.ID
			c.ChildIndex = idx
		}

		var prev []string
		for _, e := range ix.Incoming(n.ID) {
			if e.IsGoTo && !slices.Contains(n.IncomingGoTo, e.Source) {
				n.IncomingGoTo = append(n.IncomingGoTo, e.Source)
			}
			if !e.Type.IsFault() {
				prev = append(prev, e.Source)
			}
		}
		if len(prev) == 1 {
			n.Prev = prev[0]
		}
	}
	return out
}

func branches(n *flow.Node, forward []flow.Edge) bool {
	if n.Type == flow.TypeStart {
		return len(forward) > 1
	}
	return n.Type.IsBranching()
}

func resetRelations(n *flow.Node) {
	n.Next = ""
	n.Children = nil
	n.Parent = ""
	n.ChildIndex = 0
	n.Prev = ""
	n.Fault = ""
	n.IncomingGoTo = nil
	n.IsTerminal = false
}
