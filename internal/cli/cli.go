// Package cli implements the flowtower command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowtower/pkg/buildinfo"
	"github.com/matzehuels/flowtower/pkg/cache"
	"github.com/matzehuels/flowtower/pkg/config"
	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/flowxml"
	"github.com/matzehuels/flowtower/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowtower"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output; status lines go to Logger.
	Out io.Writer

	configPath string
	noCache    bool
	verbose    bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration.
func (c *CLI) Config() config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flowtower lays out Salesforce Flows as diagrams",
		Long: `Flowtower reads Salesforce Flow metadata XML, builds a typed graph,
closes every dangling path with an End node and places each element on a
grid so the flow reads top-down the way Flow Builder draws it.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/flowtower/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable caching")

	root.AddCommand(c.parseCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "store", cfg.Store.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.cfg.Cache.Prefix)
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// newCache picks the cache backend: none when disabled, Redis when a URL is
// configured, otherwise the file cache. An unusable cache directory falls
// back to no caching.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	switch {
	case c.noCache || c.cfg.Cache.Disabled:
		return cache.NewNullCache(), nil
	case c.cfg.Cache.RedisURL != "":
		rc, err := cache.NewRedisCache(ctx, c.cfg.Cache.RedisURL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis")
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or the user cache default.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// outputPath derives an output file from the input when none is given:
// "Opportunity_Router.flow-meta.xml" and "Opportunity_Router.graph.json"
// both become "Opportunity_Router.<suffix>" next to the input.
func outputPath(output, input, suffix string) string {
	if output != "" {
		return output
	}
	name := flowxml.APINameFromFile(input)
	for _, ext := range []string{".json", ".yaml", ".graph", ".layout"} {
		name = strings.TrimSuffix(name, ext)
	}
	return filepath.Join(filepath.Dir(input), name+"."+suffix)
}

// =============================================================================
// Input Loading
// =============================================================================

// isFlowXML reports whether path names Flow metadata rather than a graph or
// layout JSON file.
func isFlowXML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

// readFlow reads a Flow XML file into pipeline options.
func readFlow(path string) (pipeline.Options, error) {
	if err := errors.ValidateFlowFilename(filepath.Base(path)); err != nil {
		return pipeline.Options{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pipeline.Options{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return pipeline.Options{Source: filepath.Base(path), XML: data}, nil
}

// loadGraph returns the closed graph for a Flow XML file, or reads a graph
// JSON file written by "flowtower parse". The boolean reports a cache hit.
func (c *CLI) loadGraph(ctx context.Context, runner *pipeline.Runner, path string, opts *pipeline.Options) (*flow.Graph, bool, error) {
	if !isFlowXML(path) {
		g, err := readGraphFile(path)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "load graph %s", path)
		}
		return g, false, nil
	}
	in, err := readFlow(path)
	if err != nil {
		return nil, false, err
	}
	opts.Source, opts.XML = in.Source, in.XML
	return runner.ParseWithCacheInfo(ctx, *opts)
}

// readGraphFile reads a JSON or YAML graph, chosen by extension.
func readGraphFile(path string) (*flow.Graph, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return flow.UnmarshalGraphYAML(data)
	default:
		return flow.ReadGraphFile(path)
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions returns pipeline options seeded from the config file.
func (c *CLI) baseOptions() pipeline.Options {
	return pipeline.Options{
		Layout:   c.cfg.Layout,
		Formats:  append([]string(nil), c.cfg.Render.Formats...),
		Labels:   c.cfg.Render.Labels,
		Detailed: c.cfg.Render.Detailed,
		Logger:   c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
