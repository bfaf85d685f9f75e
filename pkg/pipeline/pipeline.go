// Package pipeline provides the parse → layout → render pipeline for flowtower.
//
// The CLI and the HTTP server both run flows through this package so they
// share defaults, validation and caching.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: build a graph from Flow XML and close it with End nodes
//  2. Layout: place every node on the grid and convert to pixels
//  3. Render: produce SVG, PNG, DOT or JSON from the layout
//
// Each stage can be run on its own or through [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "Opportunity_Router.flow-meta.xml",
//	    XML:     data,
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, err := runner.Parse(ctx, opts)
//	l, err := runner.Layout(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, l, opts)
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowtower/pkg/cache"
	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/flow"
	"github.com/matzehuels/flowtower/pkg/layout"
)

// =============================================================================
// Formats
// =============================================================================

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ContentTypes maps each output format to its MIME type.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatDOT:  "text/vnd.graphviz",
	FormatJSON: "application/json",
}

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = FormatSVG

// =============================================================================
// Options
// =============================================================================

// Options contains all configuration for a pipeline run.
// It is JSON-serializable so the HTTP API can accept it in request bodies.
type Options struct {
	// Parse options
	Source  string `json:"source,omitempty"` // file name or label used for APIName and logs
	XML     []byte `json:"xml,omitempty"`
	Refresh bool   `json:"refresh,omitempty"` // bypass cached graphs

	// Layout options
	Layout layout.Options `json:"layout"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Labels   bool     `json:"labels,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the closed graph produced by the parse stage.
	Graph *flow.Graph

	// GraphHash is the content hash of the graph JSON.
	GraphHash string

	// Layout is the positioned graph.
	Layout layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	RowCount   int
	Warnings   int
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool
	LayoutHit bool
	RenderHit bool // all requested artifacts came from cache
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is supported. Formats are case-sensitive.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format %q (must be one of: %s)", format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks every format in the list.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// FormatNames returns the supported formats in sorted order.
func FormatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks that there is a document to parse.
func (o *Options) ValidateForParse() error {
	if len(o.XML) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "flow XML is required")
	}
	o.setLoggerDefault()
	return nil
}

// SetLayoutDefaults fills unset layout spacing with the layout defaults.
func (o *Options) SetLayoutDefaults() {
	def := layout.DefaultOptions()
	if o.Layout.ColumnWidth <= 0 {
		o.Layout.ColumnWidth = def.ColumnWidth
	}
	if o.Layout.RowHeight <= 0 {
		o.Layout.RowHeight = def.RowHeight
	}
	if o.Layout.FaultOffset <= 0 {
		o.Layout.FaultOffset = def.FaultOffset
	}
	o.setLoggerDefault()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.setLoggerDefault()
}

// ValidateForRender applies layout and render defaults and checks formats.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ColumnWidth:    o.Layout.ColumnWidth,
		RowHeight:      o.Layout.RowHeight,
		OriginX:        o.Layout.OriginX,
		OriginY:        o.Layout.OriginY,
		FaultOffset:    o.Layout.FaultOffset,
		FallbackColumn: o.Layout.FallbackColumn,
	}
}

// ArtifactKeyOpts returns cache key options for rendering one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Labels:   o.Labels,
	}
}
