package layout

import (
	"github.com/matzehuels/flowtower/pkg/flow"
)

// engine holds one layout run over a normalized graph. Grid columns are
// fractional so branches can be centered under their parent; rows are whole.
type engine struct {
	g  *flow.Graph
	ix *flow.Index

	merges map[string]mergeResult

	placed map[string]bool
	col    map[string]float64
	row    map[string]int
	order  []string
	cells  map[int][]string
	maxRow int
}

type mergeResult struct {
	id string
	ok bool
}

func newEngine(g *flow.Graph) *engine {
	return &engine{
		g:      g,
		ix:     flow.NewIndex(g),
		merges: make(map[string]mergeResult),
		placed: make(map[string]bool),
		col:    make(map[string]float64),
		row:    make(map[string]int),
		cells:  make(map[int][]string),
	}
}

func (e *engine) node(id string) (*flow.Node, bool) {
	if id == "" {
		return nil, false
	}
	return e.ix.Node(id)
}

// successors returns the targets of id's non-fault edges that name a node,
// in edge order. Goto edges are included; merge discovery follows them.
func (e *engine) successors(id string) []string {
	var out []string
	for _, ed := range e.ix.Outgoing(id) {
		if ed.Type.IsFault() || !e.ix.Has(ed.Target) {
			continue
		}
		out = append(out, ed.Target)
	}
	return out
}

// loopBranches returns the For Each and After Last targets of a loop node.
// A loop without a typed loop-end edge continues through any other forward
// child.
func (e *engine) loopBranches(n *flow.Node) (body, after string) {
	for _, ed := range e.ix.Outgoing(n.ID) {
		switch ed.Type {
		case flow.EdgeLoopNext:
			if body == "" {
				body = ed.Target
			}
		case flow.EdgeLoopEnd:
			if after == "" {
				after = ed.Target
			}
		}
	}
	if after == "" {
		for _, c := range n.Children {
			if c != body {
				after = c
				break
			}
		}
	}
	if after == "" && n.Next != body {
		after = n.Next
	}
	return body, after
}

func (e *engine) set(id string, col float64, row int) {
	e.placed[id] = true
	e.col[id] = col
	e.row[id] = row
	e.order = append(e.order, id)
	e.cells[row] = append(e.cells[row], id)
	if row > e.maxRow {
		e.maxRow = row
	}
}

// collides reports whether a node placed at or after order index from sits
// less than one column away from a node placed before it on the same row.
func (e *engine) collides(from int) bool {
	fresh := make(map[string]bool, len(e.order)-from)
	for _, id := range e.order[from:] {
		fresh[id] = true
	}
	for _, id := range e.order[from:] {
		col := e.col[id]
		for _, other := range e.cells[e.row[id]] {
			if fresh[other] {
				continue
			}
			if d := e.col[other] - col; d > -1 && d < 1 {
				return true
			}
		}
	}
	return false
}

// rollback undoes every placement made at or after order index from and
// restores maxRow.
func (e *engine) rollback(from, maxRow int) {
	for i := len(e.order) - 1; i >= from; i-- {
		id := e.order[i]
		row := e.row[id]
		e.cells[row] = e.cells[row][:len(e.cells[row])-1]
		delete(e.placed, id)
		delete(e.col, id)
		delete(e.row, id)
	}
	e.order = e.order[:from]
	e.maxRow = maxRow
}
