package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/transform"
)

func testLayout() layout.Layout {
	g := &flow.Graph{
		Nodes: []flow.Node{
			{ID: flow.StartID, Type: flow.TypeStart, Label: "Start", Width: 240, Height: 64},
			{ID: "Check", Type: flow.TypeDecision, Label: "Check", Width: 240, Height: 80},
			{ID: "Save", Type: flow.TypeRecordCreate, Label: "Save", Width: 240, Height: 72},
			{ID: "Log", Type: flow.TypeAssignment, Label: "Log", Width: 240, Height: 72},
		},
		Edges: []flow.Edge{
			{ID: "START-Check-next", Source: flow.StartID, Target: "Check", Type: flow.EdgeNormal, Kind: flow.KindNext},
			{ID: "Check-Save-rule-0", Source: "Check", Target: "Save", Type: flow.EdgeNormal, Label: "Yes", Kind: flow.KindRule},
			{ID: "Save-Log-fault", Source: "Save", Target: "Log", Type: flow.EdgeFault, Label: flow.LabelFault, Kind: flow.KindFault},
		},
	}
	return layout.Build(transform.CloseTerminals(g))
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testLayout(), Options{Labels: true})

	for _, want := range []string{
		"digraph G {",
		"inputscale=72;",
		`"START" [label="Start", shape=box`,
		`pos="0,0!"`,
		`"Check" [label="Check", shape=diamond`,
		`pos="0,-160!"`,
		`"Save" [label="Save", shape=cylinder`,
		`"Check" -> "Save" [label="Yes"]`,
		`"Save" -> "Log" [label="Fault", style=dashed`,
		"width=3.3333333333333335",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTWithoutLabels(t *testing.T) {
	dot := ToDOT(testLayout(), Options{})
	if strings.Contains(dot, `label="Yes"`) {
		t.Error("edge labels should be omitted")
	}
	if !strings.Contains(dot, `"START" -> "Check";`) {
		t.Errorf("plain edge not emitted:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	l := testLayout()
	for i := range l.Nodes {
		if l.Nodes[i].ID == "Save" {
			l.Nodes[i].Data = map[string]any{"object": "Account"}
		}
	}
	dot := ToDOT(l, Options{Detailed: true})
	if !strings.Contains(dot, `label="Save\n[recordCreate]\nobject: Account"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	l := testLayout()
	if ToDOT(l, Options{Labels: true}) != ToDOT(l, Options{Labels: true}) {
		t.Error("ToDOT should be deterministic")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testLayout(), Options{Labels: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Error("viewBox not normalized")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if out != want {
		t.Errorf("got %s\nwant %s", out, want)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(noBox)) != string(noBox) {
		t.Error("svg without viewBox should be unchanged")
	}
}
