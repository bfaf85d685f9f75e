package layout

import (
	"github.com/matzehuels/flowtower/pkg/flow"
)

// place positions id at (col, row) and lays out everything it leads to
// before stopAt. The first position written for a node is final, which is
// what makes loop-backs and goto targets safe: they are already placed when
// the traversal meets them again.
func (e *engine) place(id string, col float64, row int, stopAt string) {
	n, ok := e.node(id)
	if !ok || id == stopAt || e.placed[id] {
		return
	}
	if n.Type == flow.TypeLoop {
		e.placeLoop(n, col, row, stopAt)
		return
	}
	e.set(id, col, row)

	if len(n.Children) > 0 {
		e.placeBranches(n, col, row, stopAt)
		return
	}
	e.place(n.Next, col, row+1, stopAt)
}

// placeLoop lays out a loop inside the span of Width(loop) columns centered
// on col. The loop sits as far left as its After Last subtree allows and the
// For Each body takes the columns to its right, one row down, bounded by the
// loop itself. The After Last continuation goes below the body in the loop's
// column, or in the middle of the span when it is too wide for that.
func (e *engine) placeLoop(n *flow.Node, col float64, row int, stopAt string) {
	body, after := e.loopBranches(n)

	stack := map[string]bool{n.ID: true}
	bodyW := max(1, e.width(body, n.ID, stack))
	afterW := e.width(after, stopAt, stack)
	span := float64(max(bodyW+1, afterW, 2))
	left := col - span/2
	half := float64(afterW) / 2

	loopCol := min(left+max(0.5, half), left+span-0.5-float64(bodyW))
	e.set(n.ID, loopCol, row)

	bodyDepth := e.depth(body, n.ID, make(map[string]bool))
	e.place(body, loopCol+0.5+float64(bodyW)/2, row+1, n.ID)

	afterCol := loopCol
	if loopCol-half < left {
		afterCol = col
	}
	e.place(after, afterCol, row+1+bodyDepth, stopAt)
}

// placeBranches spreads the children of a decision, wait or multi-path
// start left to right under col, each centered in a span as wide as its
// subtree, and then places the merge point below the deepest branch.
func (e *engine) placeBranches(n *flow.Node, col float64, row int, stopAt string) {
	m, hasMerge := e.merge(n, stopAt)
	local := stopAt
	if hasMerge {
		local = m
	}

	widths := make([]int, len(n.Children))
	total := 0
	for i, c := range n.Children {
		widths[i] = max(1, e.width(c, local, make(map[string]bool)))
		total += widths[i]
	}

	start := col - float64(total)/2
	cum := 0
	deepest := 0
	for i, c := range n.Children {
		center := start + float64(cum) + float64(widths[i])/2
		cum += widths[i]
		deepest = max(deepest, e.depth(c, local, make(map[string]bool)))
		e.place(c, center, row+1, local)
	}

	if hasMerge && m != stopAt {
		e.place(m, col, row+1+deepest, stopAt)
	}
}

// placeFaults walks placed nodes from cursor onward and puts each unplaced
// fault target in a lane beside its source, on the source's row. Lanes are
// numbered per source in edge order. The fault target is placed together
// with its own subtree; when any of those nodes would come within a column
// of a node already placed, the attempt is undone and the next lane tried.
// It returns the new cursor.
func (e *engine) placeFaults(cursor int, offset float64, lanes map[string]int) int {
	if offset <= 0 {
		offset = DefaultFaultOffset
	}
	maxLane := int(float64(2*len(e.g.Nodes)+2)/offset) + 1

	for ; cursor < len(e.order); cursor++ {
		src := e.order[cursor]
		srcCol, srcRow := e.col[src], e.row[src]

		lane := 0
		for _, ed := range e.ix.Outgoing(src) {
			if !ed.Type.IsFault() {
				continue
			}
			if e.ix.Has(ed.Target) && !e.placed[ed.Target] {
				for {
					mark, maxRow := len(e.order), e.maxRow
					e.place(ed.Target, srcCol+offset*float64(lane+1), srcRow, "")
					if !e.collides(mark) || lane >= maxLane {
						break
					}
					e.rollback(mark, maxRow)
					lane++
				}
			}
			lanes[ed.ID] = lane
			lane++
		}
	}
	return cursor
}

// placeOrphans stacks every node the traversal never reached below the
// lowest used row, in node order, and returns their IDs. Each orphan's own
// subtree and fault lanes are placed with it.
func (e *engine) placeOrphans(cursor int, opts Options, lanes map[string]int) []string {
	var orphans []string
	for _, n := range e.g.Nodes {
		if e.placed[n.ID] {
			continue
		}
		orphans = append(orphans, n.ID)
		row := e.maxRow + 1
		if len(e.order) == 0 {
			row = 0
		}
		e.place(n.ID, opts.FallbackColumn, row, "")
		cursor = e.placeFaults(cursor, opts.FaultOffset, lanes)
	}
	return orphans
}
