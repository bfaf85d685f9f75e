package layout

import (
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/transform"
)

// Width returns the number of grid columns the subtree rooted at id needs
// before it reaches stopAt. See [Depth] for the row count.
//
//   - a linear node takes max(1, width of its next node)
//   - a decision or wait takes the sum of its branch widths (each at least 1)
//     up to their merge point, or the width after the merge if that is larger
//   - a loop takes max(body+1, after, 2) so its body always has its own column
//
// Width returns 0 for stopAt, for unknown IDs, and for nodes already on the
// current recursion path, so loop-backs and goto cycles terminate.
func Width(g *flow.Graph, id, stopAt string) int {
	e := newEngine(transform.Normalize(g))
	return e.width(id, stopAt, make(map[string]bool))
}

// Depth returns the number of grid rows the subtree rooted at id occupies
// before it reaches stopAt. A branching node reserves its deepest branch and
// then the continuation below the merge point.
func Depth(g *flow.Graph, id, stopAt string) int {
	e := newEngine(transform.Normalize(g))
	return e.depth(id, stopAt, make(map[string]bool))
}

func (e *engine) width(id, stopAt string, stack map[string]bool) int {
	n, ok := e.node(id)
	if !ok || id == stopAt || stack[id] {
		return 0
	}
	stack[id] = true
	defer delete(stack, id)

	switch {
	case n.Type == flow.TypeLoop:
		body, after := e.loopBranches(n)
		bodyW := e.width(body, n.ID, stack)
		afterW := e.width(after, stopAt, stack)
		return max(bodyW+1, afterW, 2)

	case len(n.Children) > 0:
		m, hasMerge := e.merge(n, stopAt)
		local := stopAt
		if hasMerge {
			local = m
		}
		sum := 0
		for _, c := range n.Children {
			sum += max(1, e.width(c, local, stack))
		}
		if hasMerge && m != stopAt {
			sum = max(sum, e.width(m, stopAt, stack))
		}
		return sum

	default:
		return max(1, e.width(n.Next, stopAt, stack))
	}
}

func (e *engine) depth(id, stopAt string, stack map[string]bool) int {
	n, ok := e.node(id)
	if !ok || id == stopAt || stack[id] {
		return 0
	}
	stack[id] = true
	defer delete(stack, id)

	switch {
	case n.Type == flow.TypeLoop:
		body, after := e.loopBranches(n)
		return 1 + e.depth(body, n.ID, stack) + e.depth(after, stopAt, stack)

	case len(n.Children) > 0:
		m, hasMerge := e.merge(n, stopAt)
		local := stopAt
		if hasMerge {
			local = m
		}
		deepest := 0
		for _, c := range n.Children {
			deepest = max(deepest, e.depth(c, local, stack))
		}
		d := 1 + deepest
		if hasMerge && m != stopAt {
			d += e.depth(m, stopAt, stack)
		}
		return d

	default:
		return 1 + e.depth(n.Next, stopAt, stack)
	}
}
