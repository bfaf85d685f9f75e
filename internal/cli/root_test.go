package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/flowtower/pkg/buildinfo"
	"github.com/matzehuels/flowtower/pkg/config"
	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/layout"
)

const fixture = "../../pkg/flowxml/testdata/Opportunity_Router.flow-meta.xml"

// runCLI executes the command tree with an isolated config and cache
// directory and returns what the commands wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return execCLI(t, args...)
}

// execCLI is runCLI without a fresh cache directory.
func execCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvRedisURL, "")
	t.Setenv(config.EnvMongoURI, "")
	t.Setenv(config.EnvAddr, "")

	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.Out = &out
	cfg := filepath.Join(t.TempDir(), "config.toml")
	err := c.Execute(context.Background(), append([]string{"--config", cfg}, args...)...)
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	for _, name := range []string{"parse", "layout", "render", "inspect", "serve", "cache", "version", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"verbose", "config", "no-cache"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info buildinfo.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if info != buildinfo.Get() {
		t.Errorf("info = %+v, want %+v", info, buildinfo.Get())
	}
}

func TestConfigFileApplies(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cacheDir := filepath.Join(dir, "cache")
	if err := os.WriteFile(cfgPath, []byte("[cache]\ndir = \""+filepath.ToSlash(cacheDir)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	c := New(&bytes.Buffer{}, LogInfo)
	c.Out = &out
	if err := c.Execute(context.Background(), "--config", cfgPath, "cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.ToSlash(cacheDir) && got != cacheDir {
		t.Errorf("cache path = %q, want %q", got, cacheDir)
	}
	if c.Config().Cache.Dir == "" {
		t.Error("config not loaded")
	}
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte("[store]\nbackend = \"postgres\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(&bytes.Buffer{}, LogInfo)
	c.Out = &bytes.Buffer{}
	err := c.Execute(context.Background(), "--config", cfgPath, "version")
	if !errors.Is(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidOptions)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"json", []string{"parse", fixture}, `"id": "START"`},
		{"yaml", []string{"parse", fixture, "--encoding", "yaml"}, "id: START"},
		{"no cache", []string{"--no-cache", "parse", fixture}, `"END_Update_Opportunity"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q", tt.want)
			}
		})
	}
}

func TestParseRaw(t *testing.T) {
	closedOut, err := runCLI(t, "parse", fixture)
	if err != nil {
		t.Fatal(err)
	}
	rawOut, err := runCLI(t, "parse", fixture, "--raw")
	if err != nil {
		t.Fatal(err)
	}

	closed, err := flow.UnmarshalGraph([]byte(closedOut))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := flow.UnmarshalGraph([]byte(rawOut))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := raw.Node("END_Update_Opportunity"); ok {
		t.Error("raw graph should not contain synthesized End nodes")
	}
	if raw.NodeCount() >= closed.NodeCount() {
		t.Errorf("raw nodes = %d, closed nodes = %d", raw.NodeCount(), closed.NodeCount())
	}
	if raw.Metadata.APIName != "Opportunity_Router" {
		t.Errorf("APIName = %q", raw.Metadata.APIName)
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "Broken.flow-meta.xml")
	if err := os.WriteFile(malformed, []byte("<Flow><decisions>"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing file", []string{"parse", filepath.Join(dir, "Missing.flow-meta.xml")}, errors.ErrCodeFileNotFound},
		{"not xml", []string{"parse", filepath.Join(dir, "flow.txt")}, errors.ErrCodeInvalidInput},
		{"malformed", []string{"parse", malformed}, errors.ErrCodeParse},
		{"bad encoding", []string{"parse", fixture, "--encoding", "toml"}, errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q (%v), want %q", got, err, tt.code)
			}
		})
	}
}

func TestParseToFileThenLayout(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "Opportunity_Router.graph.json")

	out, err := runCLI(t, "parse", fixture, "-o", graphPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "Parsed Opportunity_Router") {
		t.Errorf("parse output = %q", out)
	}

	if _, err := runCLI(t, "layout", graphPath, "--row-height", "200"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	l, err := layout.ReadLayoutFile(filepath.Join(dir, "Opportunity_Router.layout.json"))
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if l.Options.RowHeight != 200 {
		t.Errorf("RowHeight = %v, want 200", l.Options.RowHeight)
	}
	start, ok := l.Node(flow.StartID)
	if !ok || !start.Positioned {
		t.Fatal("START not positioned")
	}
}

func TestLayoutCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.layout.json")
	out, err := runCLI(t, "layout", fixture, "-o", path)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if !strings.Contains(out, "Layout complete") || !strings.Contains(out, path) {
		t.Errorf("output = %q", out)
	}

	l, err := layout.ReadLayoutFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range l.Nodes {
		if !n.Positioned {
			t.Errorf("node %s not positioned", n.ID)
		}
	}
	if l.RowCount() == 0 {
		t.Error("no rows")
	}
}
