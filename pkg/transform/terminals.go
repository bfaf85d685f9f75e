package transform

import (
	"strconv"

	"github.com/matzehuels/flowtower/pkg/flow"
)

// EndPrefix prefixes the ID of every synthesized End node.
const EndPrefix = "END_"

// CloseTerminals returns a copy of g in which every path ends in an End node.
//
// Outcomes recorded as implicit ends (a label without a connector) each get
// their own End node END_<node>_<discriminator>. Afterwards every node other
// than Start and End that still has no non-fault outgoing edge gets a single
// End node END_<node>. Ends closing a fault path are flagged IsFaultPath and
// reached by a fault-end edge.
//
// CloseTerminals is idempotent and never fails.
func CloseTerminals(g *flow.Graph) *flow.Graph {
	out := g.Clone()
	faultPath := FaultPathNodes(g)

	ids := make(map[string]bool, len(out.Nodes))
	for _, n := range out.Nodes {
		ids[n.ID] = true
	}
	isEnd := make(map[string]bool)
	for _, n := range out.Nodes {
		if n.Type == flow.TypeEnd {
			isEnd[n.ID] = true
		}
	}
	edgeIDs := make(map[string]bool, len(out.Edges))
	closed := make(map[endKey]int)
	hasForward := make(map[string]bool)
	for _, e := range out.Edges {
		edgeIDs[e.ID] = true
		if !e.Type.IsFault() {
			hasForward[e.Source] = true
		}
		if isEnd[e.Target] {
			closed[endKey{e.Source, e.Kind, e.Label}]++
		}
	}

	var ends []flow.Node
	synth := make(map[string][]flow.Edge)

	// An outcome already closed by an earlier run is matched by source, kind
	// and label, since its End may have been renamed to dodge a taken ID.
	closeWith := func(src *flow.Node, endID, kind, label string) {
		if k := (endKey{src.ID, kind, label}); closed[k] > 0 {
			closed[k]--
			return
		}
		endID = uniqueID(endID, ids)
		edgeID := uniqueID(flow.EdgeID(src.ID, endID, flow.KindEnd), edgeIDs)
		ids[endID] = true
		edgeIDs[edgeID] = true
		hasForward[src.ID] = true

		onFault := faultPath[src.ID]
		w, h := flow.TypeEnd.Size(false)
		ends = append(ends, flow.Node{
			ID:          endID,
			Type:        flow.TypeEnd,
			Label:       flow.LabelEnd,
			Width:       w,
			Height:      h,
			IsFaultPath: onFault,
		})
		typ := flow.EdgeNormal
		if onFault {
			typ = flow.EdgeFaultEnd
		}
		synth[src.ID] = append(synth[src.ID], flow.Edge{
			ID:     edgeID,
			Source: src.ID,
			Target: endID,
			Type:   typ,
			Label:  label,
			Kind:   kind,
		})
	}

	for i := range out.Nodes {
		n := &out.Nodes[i]
		for _, ie := range n.ImplicitEnds {
			kind := flow.KindEnd
			if ie.Default {
				kind = flow.KindDefault
			}
			closeWith(n, EndPrefix+n.ID+"_"+ie.Discriminator, kind, ie.Label)
		}
	}
	for i := range out.Nodes {
		n := &out.Nodes[i]
		if n.Type == flow.TypeStart || n.Type == flow.TypeEnd || hasForward[n.ID] {
			continue
		}
		closeWith(n, EndPrefix+n.ID, flow.KindEnd, "")
	}

	if len(ends) == 0 {
		return out
	}
	out.Nodes = append(out.Nodes, ends...)
	out.Edges = spliceEdges(out.Edges, out.Nodes, synth)
	return out
}

type endKey struct {
	source, kind, label string
}

// spliceEdges inserts each node's synthesized edges directly after its last
// existing outgoing edge, so a node's connectors stay contiguous.
func spliceEdges(edges []flow.Edge, nodes []flow.Node, synth map[string][]flow.Edge) []flow.Edge {
	last := make(map[string]int)
	for i, e := range edges {
		last[e.Source] = i
	}

	res := make([]flow.Edge, 0, len(edges)+len(synth))
	for i, e := range edges {
		res = append(res, e)
		if last[e.Source] == i {
			res = append(res, synth[e.Source]...)
			delete(synth, e.Source)
		}
	}
	for _, n := range nodes {
		if s, ok := synth[n.ID]; ok {
			res = append(res, s...)
			delete(synth, n.ID)
		}
	}
	return res
}

func uniqueID(id string, taken map[string]bool) string {
	if !taken[id] {
		return id
	}
	for i := 2; ; i++ {
		candidate := id + "_" + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
}

// FaultPathNodes returns the nodes that lie only on fault paths: reachable
// over non-fault edges from the target of some fault edge, but not reachable
// from Start without crossing a fault edge.
//
// A normal incoming edge only takes a node off the fault path when its
// source is itself reachable from Start. An edge from an orphan does not.
func FaultPathNodes(g *flow.Graph) map[string]bool {
	ix := flow.NewIndex(g)

	main := reach(ix, []string{flow.StartID})

	var roots []string
	for _, e := range g.Edges {
		if e.Type.IsFault() {
			roots = append(roots, e.Target)
		}
	}
	faulty := reach(ix, roots)

	res := make(map[string]bool)
	for id := range faulty {
		if !main[id] {
			res[id] = true
		}
	}
	return res
}

// reach returns every node reachable from roots over non-fault edges,
// roots included.
func reach(ix *flow.Index, roots []string) map[string]bool {
	seen := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for _, r := range roots {
		seen[r] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range ix.Outgoing(id) {
			if e.Type.IsFault() || seen[e.Target] {
				continue
			}
			seen[e.Target] = true
			queue = append(queue, e.Target)
		}
	}
	return seen
}
