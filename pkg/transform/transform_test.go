package transform

import (
	"slices"
	"testing"

	"github.com/matzehuels/flowtower/pkg/flow"
)

func node(id string, typ flow.NodeType) flow.Node {
	w, h := typ.Size(false)
	return flow.Node{ID: id, Type: typ, Label: id, Width: w, Height: h}
}

func edge(src, dst, disc string, typ flow.EdgeType, label string) flow.Edge {
	kind := disc
	switch {
	case len(disc) > 5 && disc[:5] == "rule-":
		kind = flow.KindRule
	case len(disc) > 5 && disc[:5] == "path-":
		kind = flow.KindPath
	}
	return flow.Edge{ID: flow.EdgeID(src, dst, disc), Source: src, Target: dst, Type: typ, Label: label, Kind: kind}
}

// mergeless is the two-branch decision whose branches never reconverge.
func mergeless() *flow.Graph {
	return &flow.Graph{
		Nodes: []flow.Node{
			node(flow.StartID, flow.TypeStart),
			node("Decision", flow.TypeDecision),
			node("Create_Record", flow.TypeRecordCreate),
			node("Update_Record", flow.TypeRecordUpdate),
		},
		Edges: []flow.Edge{
			edge(flow.StartID, "Decision", "next", flow.EdgeNormal, ""),
			edge("Decision", "Create_Record", "rule-0", flow.EdgeNormal, "Big"),
			edge("Decision", "Update_Record", "default", flow.EdgeNormal, flow.LabelDefaultOutcome),
		},
	}
}

func TestCloseTerminals(t *testing.T) {
	g := CloseTerminals(mergeless())

	for _, id := range []string{"END_Create_Record", "END_Update_Record"} {
		n, ok := g.Node(id)
		if !ok {
			t.Fatalf("missing %s", id)
		}
		if n.Type != flow.TypeEnd || n.IsFaultPath {
			t.Errorf("%s = %+v", id, n)
		}
	}

	for _, n := range g.Nodes {
		if n.Type == flow.TypeEnd || n.Type == flow.TypeStart {
			continue
		}
		if len(g.Outgoing(n.ID)) == 0 {
			t.Errorf("%s has no outgoing edge", n.ID)
		}
	}

	e := g.Outgoing("Create_Record")
	if len(e) != 1 || e[0].ID != "Create_Record-END_Create_Record-end" || e[0].Type != flow.EdgeNormal {
		t.Errorf("Create_Record outgoing = %+v", e)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestCloseTerminalsDoesNotMutate(t *testing.T) {
	in := mergeless()
	_ = CloseTerminals(in)
	if in.NodeCount() != 4 || in.EdgeCount() != 3 {
		t.Errorf("input mutated: %d nodes, %d edges", in.NodeCount(), in.EdgeCount())
	}
}

func TestCloseTerminalsIdempotent(t *testing.T) {
	g := mergeless()
	g.Nodes[1].ImplicitEnds = []flow.ImplicitEnd{{Discriminator: "rule-1", Label: "Small"}}

	once := CloseTerminals(g)
	twice := CloseTerminals(once)
	if once.NodeCount() != twice.NodeCount() || once.EdgeCount() != twice.EdgeCount() {
		t.Errorf("second pass changed graph: %d/%d -> %d/%d nodes/edges",
			once.NodeCount(), once.EdgeCount(), twice.NodeCount(), twice.EdgeCount())
	}
}

func TestCloseTerminalsImplicitDefault(t *testing.T) {
	g := &flow.Graph{
		Nodes: []flow.Node{
			node(flow.StartID, flow.TypeStart),
			node("D", flow.TypeDecision),
			node("A", flow.TypeAssignment),
		},
		Edges: []flow.Edge{
			edge(flow.StartID, "D", "next", flow.EdgeNormal, ""),
			edge("D", "A", "rule-0", flow.EdgeNormal, "Yes"),
			edge("A", "D", "next", flow.EdgeNormal, ""),
		},
	}
	g.Nodes[1].ImplicitEnds = []flow.ImplicitEnd{{Discriminator: "default", Label: "Otherwise", Default: true}}

	out := CloseTerminals(g)
	end, ok := out.Node("END_D_default")
	if !ok {
		t.Fatalf("missing END_D_default in %v", out.Nodes)
	}
	if end.Type != flow.TypeEnd {
		t.Errorf("type = %s", end.Type)
	}

	got := out.Outgoing("D")
	want := []string{"D-A-rule-0", "D-END_D_default-end"}
	if len(got) != 2 || got[0].ID != want[0] || got[1].ID != want[1] {
		t.Fatalf("D outgoing = %+v, want %v", got, want)
	}
	if got[1].Label != "Otherwise" || got[1].Kind != flow.KindDefault {
		t.Errorf("implicit edge = %+v", got[1])
	}
	if _, ok := out.Node("END_A"); ok {
		t.Error("A has an outgoing edge and must not be closed")
	}
}

func TestCloseTerminalsFaultPath(t *testing.T) {
	g := &flow.Graph{
		Nodes: []flow.Node{
			node(flow.StartID, flow.TypeStart),
			node("Call", flow.TypeApexAction),
			node("Log", flow.TypeCustomError),
			node("Shared", flow.TypeAssignment),
			node("Update", flow.TypeRecordUpdate),
		},
		Edges: []flow.Edge{
			edge(flow.StartID, "Call", "next", flow.EdgeNormal, ""),
			edge("Call", "Update", "next", flow.EdgeNormal, ""),
			edge("Call", "Log", "fault", flow.EdgeFault, flow.LabelFault),
			edge("Update", "Shared", "next", flow.EdgeNormal, ""),
			edge("Update", "Shared", "fault", flow.EdgeFault, flow.LabelFault),
		},
	}

	out := CloseTerminals(g)

	tests := []struct {
		end   string
		fault bool
		typ   flow.EdgeType
	}{
		{"END_Log", true, flow.EdgeFaultEnd},
		{"END_Shared", false, flow.EdgeNormal},
	}
	for _, tt := range tests {
		t.Run(tt.end, func(t *testing.T) {
			n, ok := out.Node(tt.end)
			if !ok {
				t.Fatalf("missing %s", tt.end)
			}
			if n.IsFaultPath != tt.fault {
				t.Errorf("IsFaultPath = %v, want %v", n.IsFaultPath, tt.fault)
			}
			in := out.Incoming(tt.end)
			if len(in) != 1 || in[0].Type != tt.typ {
				t.Errorf("incoming = %+v, want type %s", in, tt.typ)
			}
		})
	}

	fp := FaultPathNodes(g)
	if !fp["Log"] || fp["Shared"] || fp["Call"] {
		t.Errorf("FaultPathNodes = %v", fp)
	}
}

func TestCloseTerminalsIDCollision(t *testing.T) {
	g := &flow.Graph{
		Nodes: []flow.Node{
			node(flow.StartID, flow.TypeStart),
			node("A", flow.TypeAssignment),
			node("END_A", flow.TypeAssignment),
		},
		Edges: []flow.Edge{
			edge(flow.StartID, "A", "next", flow.EdgeNormal, ""),
			edge("END_A", "A", "next", flow.EdgeNormal, ""),
		},
	}
	out := CloseTerminals(g)
	if _, ok := out.Node("END_A_2"); !ok {
		t.Errorf("expected END_A_2, nodes: %v", out.Nodes)
	}
	if err := out.Validate(); err != nil {
		t.Error(err)
	}
}

func TestCloseTerminalsIdempotentWithTakenIDs(t *testing.T) {
	tests := []struct {
		name    string
		g       func() *flow.Graph
		renamed string
	}{
		{"dangling node", func() *flow.Graph {
			return &flow.Graph{
				Nodes: []flow.Node{
					node(flow.StartID, flow.TypeStart),
					node("A", flow.TypeAssignment),
					node("END_A", flow.TypeAssignment),
				},
				Edges: []flow.Edge{
					edge(flow.StartID, "A", "next", flow.EdgeNormal, ""),
					edge("END_A", "A", "next", flow.EdgeNormal, ""),
				},
			}
		}, "END_A_2"},
		{"implicit outcome", func() *flow.Graph {
			g := &flow.Graph{
				Nodes: []flow.Node{
					node(flow.StartID, flow.TypeStart),
					node("D", flow.TypeDecision),
					node("END_D_rule-1", flow.TypeAssignment),
				},
				Edges: []flow.Edge{
					edge(flow.StartID, "D", "next", flow.EdgeNormal, ""),
					edge("D", "END_D_rule-1", "rule-0", flow.EdgeNormal, "Yes"),
					edge("END_D_rule-1", "D", "next", flow.EdgeNormal, ""),
				},
			}
			g.Nodes[1].ImplicitEnds = []flow.ImplicitEnd{{Discriminator: "rule-1", Label: "No"}}
			return g
		}, "END_D_rule-1_2"},
		{"implicit outcomes sharing a label", func() *flow.Graph {
			g := &flow.Graph{
				Nodes: []flow.Node{
					node(flow.StartID, flow.TypeStart),
					node("D", flow.TypeDecision),
					node("END_D_rule-0", flow.TypeAssignment),
				},
				Edges: []flow.Edge{
					edge(flow.StartID, "D", "next", flow.EdgeNormal, ""),
					edge("END_D_rule-0", "D", "next", flow.EdgeNormal, ""),
				},
			}
			g.Nodes[1].ImplicitEnds = []flow.ImplicitEnd{
				{Discriminator: "rule-0", Label: "Skip"},
				{Discriminator: "rule-1", Label: "Skip"},
			}
			return g
		}, "END_D_rule-0_2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := CloseTerminals(tt.g())
			if _, ok := once.Node(tt.renamed); !ok {
				t.Fatalf("missing %s in %v", tt.renamed, once.Nodes)
			}
			for i, g := range []*flow.Graph{CloseTerminals(once), CloseTerminals(CloseTerminals(once))} {
				if g.NodeCount() != once.NodeCount() || g.EdgeCount() != once.EdgeCount() {
					t.Errorf("pass %d changed graph: %d/%d -> %d/%d nodes/edges", i+2,
						once.NodeCount(), once.EdgeCount(), g.NodeCount(), g.EdgeCount())
				}
				if err := g.Validate(); err != nil {
					t.Errorf("pass %d: %v", i+2, err)
				}
			}
		})
	}
}

func TestFaultPathNodes(t *testing.T) {
	g := &flow.Graph{
		Nodes: []flow.Node{
			node(flow.StartID, flow.TypeStart),
			node("Call", flow.TypeApexAction),
			node("Handler", flow.TypeAssignment),
			node("Notify", flow.TypeEmailAction),
			node("Stray", flow.TypeAssignment),
			node("Next", flow.TypeAssignment),
			node("Rejoin", flow.TypeAssignment),
		},
		Edges: []flow.Edge{
			edge(flow.StartID, "Call", "next", flow.EdgeNormal, ""),
			edge("Call", "Next", "next", flow.EdgeNormal, ""),
			edge("Call", "Handler", "fault", flow.EdgeFault, flow.LabelFault),
			edge("Handler", "Notify", "next", flow.EdgeNormal, ""),
			edge("Handler", "Rejoin", "rejoin", flow.EdgeNormal, ""),
			edge("Stray", "Handler", "next", flow.EdgeNormal, ""),
			edge("Next", "Rejoin", "next", flow.EdgeNormal, ""),
		},
	}
	fp := FaultPathNodes(g)

	tests := []struct {
		id    string
		fault bool
	}{
		{"Handler", true}, // normal edge from an unreachable node does not count
		{"Notify", true},
		{"Rejoin", false},
		{"Stray", false},
		{"Call", false},
		{"Next", false},
	}
	for _, tt := range tests {
		if fp[tt.id] != tt.fault {
			t.Errorf("FaultPathNodes()[%s] = %v, want %v", tt.id, fp[tt.id], tt.fault)
		}
	}
}

func TestNormalizeBranchOrder(t *testing.T) {
	g := &flow.Graph{
		Nodes: []flow.Node{
			node(flow.StartID, flow.TypeStart),
			node("D", flow.TypeDecision),
			node("Def", flow.TypeScreen),
			node("A", flow.TypeScreen),
			node("B", flow.TypeScreen),
		},
		Edges: []flow.Edge{
			edge(flow.StartID, "D", "next", flow.EdgeNormal, ""),
			edge("D", "Def", "default", flow.EdgeNormal, flow.LabelDefaultOutcome),
			edge("D", "A", "rule-0", flow.EdgeNormal, "Rule A"),
			edge("D", "B", "rule-1", flow.EdgeNormal, "Rule B"),
		},
	}

	out := Normalize(g)
	d, _ := out.Node("D")
	if want := []string{"A", "B", "Def"}; !slices.Equal(d.Children, want) {
		t.Errorf("Children = %v, want %v", d.Children, want)
	}
	if d.Next != "" {
		t.Errorf("branching node has Next = %q", d.Next)
	}
	for i, id := range []string{"A", "B", "Def"} {
		c, _ := out.Node(id)
		if c.Parent != "D" || c.ChildIndex != i {
			t.Errorf("%s parent=%q index=%d, want D %d", id, c.Parent, c.ChildIndex, i)
		}
		if c.Prev != "D" || !c.IsTerminal {
			t.Errorf("%s prev=%q terminal=%v", id, c.Prev, c.IsTerminal)
		}
	}
	start, _ := out.Node(flow.StartID)
	if start.Next != "D" || len(start.Children) != 0 {
		t.Errorf("start next=%q children=%v", start.Next, start.Children)
	}
}

func TestNormalizeLoopAndGoTo(t *testing.T) {
	g := &flow.Graph{
		Nodes: []flow.Node{
			node(flow.StartID, flow.TypeStart),
			node("L", flow.TypeLoop),
			node("Body", flow.TypeAssignment),
			node("After", flow.TypeScreen),
			node("Err", flow.TypeCustomError),
		},
		Edges: []flow.Edge{
			edge(flow.StartID, "L", "next", flow.EdgeNormal, ""),
			edge("L", "After", "loop-end", flow.EdgeLoopEnd, flow.LabelAfterLast),
			edge("L", "Body", "loop-next", flow.EdgeLoopNext, flow.LabelForEach),
			edge("Body", "L", "next", flow.EdgeNormal, ""),
			edge("Body", "Err", "fault", flow.EdgeFault, flow.LabelFault),
			{ID: "After-Body-next", Source: "After", Target: "Body", Type: flow.EdgeGoTo, IsGoTo: true, Kind: flow.KindNext},
		},
	}

	out := Normalize(g)

	l, _ := out.Node("L")
	if want := []string{"Body", "After"}; !slices.Equal(l.Children, want) {
		t.Errorf("loop children = %v, want %v", l.Children, want)
	}
	if l.Prev != "" {
		t.Errorf("loop has two incoming edges, Prev = %q", l.Prev)
	}

	body, _ := out.Node("Body")
	if body.Next != "L" || body.Fault != "Err" {
		t.Errorf("body next=%q fault=%q", body.Next, body.Fault)
	}
	if !slices.Equal(body.IncomingGoTo, []string{"After"}) {
		t.Errorf("IncomingGoTo = %v", body.IncomingGoTo)
	}
	if body.Prev != "" {
		t.Errorf("goto counts as incoming; Prev = %q", body.Prev)
	}

	after, _ := out.Node("After")
	if after.Next != "" || after.IsTerminal {
		t.Errorf("after next=%q terminal=%v; goto must not become Next", after.Next, after.IsTerminal)
	}

	errNode, _ := out.Node("Err")
	if errNode.Prev != "" || !errNode.IsTerminal {
		t.Errorf("fault target prev=%q terminal=%v", errNode.Prev, errNode.IsTerminal)
	}
}

func TestNormalizeScheduledStart(t *testing.T) {
	g := &flow.Graph{
		Nodes: []flow.Node{
			node(flow.StartID, flow.TypeStart),
			node("Later", flow.TypeAssignment),
			node("Now", flow.TypeAssignment),
		},
		Edges: []flow.Edge{
			edge(flow.StartID, "Later", "path-0", flow.EdgeNormal, flow.LabelRunAsync),
			edge(flow.StartID, "Now", "next", flow.EdgeNormal, flow.LabelRunImmediately),
		},
	}
	out := Normalize(g)
	start, _ := out.Node(flow.StartID)
	if want := []string{"Now", "Later"}; !slices.Equal(start.Children, want) {
		t.Errorf("start children = %v, want %v", start.Children, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize(CloseTerminals(mergeless()))
	twice := Normalize(once)
	for i := range once.Nodes {
		a, b := once.Nodes[i], twice.Nodes[i]
		if a.Next != b.Next || !slices.Equal(a.Children, b.Children) || a.Parent != b.Parent || a.Prev != b.Prev {
			t.Errorf("node %s changed on second pass: %+v -> %+v", a.ID, a, b)
		}
	}
}

func TestOrderBranches(t *testing.T) {
	dec := node("D", flow.TypeDecision)
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{"default label last", []string{"Default Outcome", "Rule A", "Rule B"}, []string{"Rule A", "Rule B", "Default Outcome"}},
		{"else", []string{"Else", "Yes"}, []string{"Yes", "Else"}},
		{"otherwise", []string{"otherwise_path", "Yes"}, []string{"Yes", "otherwise_path"}},
		{"substring is not a word", []string{"Defaulted Accounts", "Yes"}, []string{"Defaulted Accounts", "Yes"}},
		{"stable", []string{"C", "A", "B"}, []string{"C", "A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var edges []flow.Edge
			for i, l := range tt.labels {
				edges = append(edges, flow.Edge{ID: l, Label: l, Kind: flow.KindRule, Source: "D", Target: string(rune('a' + i))})
			}
			var got []string
			for _, e := range OrderBranches(&dec, edges) {
				got = append(got, e.Label)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("OrderBranches = %v, want %v", got, tt.want)
			}
		})
	}
}
