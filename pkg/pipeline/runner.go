package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowtower/pkg/cache"
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/observability"
)

// Runner runs pipeline stages with caching.
// Both the CLI and the HTTP server use it so caching behaves the same way.
//
// A Runner keeps no results between calls; multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// A nil keyer means DefaultKeyer, a nil cache means NullCache.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Parse
	parseStart := time.Now()
	g, parseHit, err := r.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.GraphHash = GraphHash(g)
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.Warnings = len(g.Warnings)
	result.CacheInfo.ParseHit = parseHit

	r.Logger.Info("parsed flow",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", parseHit,
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.RowCount = l.RowCount()
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"rows", l.RowCount(),
		"orphans", len(l.Orphans),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo builds the closed graph for opts.XML and reports whether
// it came from the cache.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) (g *flow.Graph, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForParse(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, opts.Source)
	start := time.Now()
	defer func() {
		n := 0
		if g != nil {
			n = g.NodeCount()
		}
		hooks.OnParseComplete(ctx, opts.Source, n, time.Since(start), err)
	}()

	// The source name feeds APIName, so it is part of the key.
	key := r.Keyer.GraphKey(cache.Hash(append([]byte(opts.Source+"\x00"), opts.XML...)))

	if !opts.Refresh {
		if data, ok := r.get(ctx, cache.KeyTypeGraph, key); ok {
			if cached, err := flow.UnmarshalGraph(data); err == nil {
				return cached, true, nil
			}
		}
	}

	g, err = Parse(opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := flow.MarshalGraph(g); err == nil {
		r.set(ctx, cache.KeyTypeGraph, key, data, cache.TTLGraph)
	}
	return g, false, nil
}

// Parse is ParseWithCacheInfo without the cache hit info.
func (r *Runner) Parse(ctx context.Context, opts Options) (*flow.Graph, error) {
	g, _, err := r.ParseWithCacheInfo(ctx, opts)
	return g, err
}

// LayoutWithCacheInfo positions g and reports whether the layout came from
// the cache. It only fails if ctx is done.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *flow.Graph, opts Options) (l layout.Layout, hit bool, err error) {
	if err := ctx.Err(); err != nil {
		return layout.Layout{}, false, err
	}
	r.applyLogger(&opts)
	opts.SetLayoutDefaults()

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.NodeCount())
	start := time.Now()
	defer func() {
		hooks.OnLayoutComplete(ctx, l.RowCount(), time.Since(start), err)
	}()

	key := r.Keyer.LayoutKey(GraphHash(g), opts.LayoutKeyOpts())

	if data, ok := r.get(ctx, cache.KeyTypeLayout, key); ok {
		if cached, err := layout.UnmarshalLayout(data); err == nil {
			return cached, true, nil
		}
	}

	l = GenerateLayout(g, opts)

	if data, err := layout.MarshalLayout(l); err == nil {
		r.set(ctx, cache.KeyTypeLayout, key, data, cache.TTLLayout)
	}
	return l, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit info.
func (r *Runner) Layout(ctx context.Context, g *flow.Graph, opts Options) (layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, g, opts)
	return l, err
}

// RenderWithCacheInfo renders every requested format and reports whether all
// of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l layout.Layout, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	layoutData, err := layout.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, ok := r.get(ctx, cache.KeyTypeArtifact, key)
		if !ok {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := RenderFromLayout(ctx, l, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		r.set(ctx, cache.KeyTypeArtifact, key, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, l layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// get reads key from the cache. Backend errors count as misses so a broken
// cache never fails a request.
func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "err", err)
	}
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// GraphHash returns the content hash of g's JSON form.
func GraphHash(g *flow.Graph) string {
	data, err := flow.MarshalGraph(g)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
