package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/layout"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "png", []string{"png"}},
		{"multiple formats", "svg,dot,json", []string{"svg", "dot", "json"}},
		{"spaces and empties", " svg, ,dot ", []string{"svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderPath(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		input    string
		format   string
		multiple bool
		want     string
	}{
		{"derived from flow", "", "flows/Opportunity_Router.flow-meta.xml", "svg", false, "flows/Opportunity_Router.svg"},
		{"derived from layout", "", "Opportunity_Router.layout.json", "png", false, "Opportunity_Router.png"},
		{"single output as given", "diagram.svg", "x.flow-meta.xml", "svg", false, "diagram.svg"},
		{"multiple strips format ext", "out/router.svg", "x.flow-meta.xml", "dot", true, "out/router.dot"},
		{"multiple keeps base", "out/router", "x.flow-meta.xml", "json", true, "out/router.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filepath.ToSlash(renderPath(tt.output, tt.input, tt.format, tt.multiple))
			if got != tt.want {
				t.Errorf("renderPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		suffix string
		want   string
	}{
		{"Opportunity_Router.flow-meta.xml", "layout.json", "Opportunity_Router.layout.json"},
		{"dir/Opportunity_Router.graph.json", "layout.json", "dir/Opportunity_Router.layout.json"},
		{"dir/Opportunity_Router.graph.yaml", "svg", "dir/Opportunity_Router.svg"},
	}

	for _, tt := range tests {
		if got := filepath.ToSlash(outputPath("", tt.input, tt.suffix)); got != tt.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tt.input, tt.suffix, got, tt.want)
		}
	}
	if got := outputPath("explicit.json", "a.flow-meta.xml", "layout.json"); got != "explicit.json" {
		t.Errorf("explicit output ignored: %q", got)
	}
}

func TestRenderCommand(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "router")
	out, err := runCLI(t, "render", fixture, "-f", "dot,json", "-o", base, "--detailed")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Rendered Opportunity_Router.flow-meta.xml") {
		t.Errorf("output = %q", out)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(dot), "digraph G {") {
		t.Errorf("dot = %.40q", dot)
	}
	if !strings.Contains(string(dot), "[decision]") {
		t.Error("--detailed should add node types to labels")
	}

	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := layout.UnmarshalLayout(data); err != nil {
		t.Errorf("json artifact: %v", err)
	}
}

func TestRenderFromLayoutFile(t *testing.T) {
	dir := t.TempDir()
	layoutPath := filepath.Join(dir, "Opportunity_Router.layout.json")
	if _, err := runCLI(t, "layout", fixture, "-o", layoutPath); err != nil {
		t.Fatalf("layout: %v", err)
	}
	if _, err := runCLI(t, "render", layoutPath, "-f", "dot"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Opportunity_Router.dot")); err != nil {
		t.Errorf("dot output missing: %v", err)
	}
}

func TestRenderInvalidFormat(t *testing.T) {
	_, err := runCLI(t, "render", fixture, "-f", "pdf")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}
