package layout

import (
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/transform"
)

// FindMerge returns the node where the branches starting at targets
// reconverge.
//
// One breadth-first search runs per branch over non-fault edges, recording
// the depth at which each node is first seen. Among the nodes every branch
// reaches, the one with the smallest sum of depths wins; ties go to the node
// the first branch discovered first. Fewer than two targets, or branches
// that never meet, yield ok == false.
func FindMerge(g *flow.Graph, targets []string) (id string, ok bool) {
	e := newEngine(transform.Normalize(g))
	return e.findMerge(targets, "")
}

// findMerge is FindMerge bounded by stopAt: the stop node may itself be the
// merge, but the searches never expand past it.
func (e *engine) findMerge(targets []string, stopAt string) (string, bool) {
	if len(targets) < 2 {
		return "", false
	}

	var first []string
	depths := make([]map[string]int, len(targets))
	for i, t := range targets {
		order, d := e.bfs(t, stopAt)
		depths[i] = d
		if i == 0 {
			first = order
		}
	}

	best, bestSum := "", -1
	for _, id := range first {
		if !e.ix.Has(id) {
			continue
		}
		sum := 0
		common := true
		for _, d := range depths {
			v, ok := d[id]
			if !ok {
				common = false
				break
			}
			sum += v
		}
		if common && (bestSum < 0 || sum < bestSum) {
			best, bestSum = id, sum
		}
	}
	return best, bestSum >= 0
}

// bfs returns nodes reachable from start in discovery order together with
// their depth. stopAt is recorded when reached but not expanded.
func (e *engine) bfs(start, stopAt string) ([]string, map[string]int) {
	depth := map[string]int{start: 0}
	order := []string{start}
	for i := 0; i < len(order); i++ {
		id := order[i]
		if id == stopAt {
			continue
		}
		for _, next := range e.successors(id) {
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[id] + 1
			order = append(order, next)
		}
	}
	return order, depth
}

// merge returns the memoized merge point of a branching node's children
// within stopAt.
func (e *engine) merge(n *flow.Node, stopAt string) (string, bool) {
	key := n.ID + "\x00" + stopAt
	if r, ok := e.merges[key]; ok {
		return r.id, r.ok
	}
	id, ok := e.findMerge(n.Children, stopAt)
	e.merges[key] = mergeResult{id: id, ok: ok}
	return id, ok
}
