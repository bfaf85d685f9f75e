// Package cache provides the caching layer for flowtower's pipeline.
//
// Every pipeline stage is a pure function of its input, so results can be
// cached by content hash:
//
//	flow XML  --GraphKey(hash(xml))-->          closed graph JSON
//	graph     --LayoutKey(hash(graph), opts)--> layout JSON
//	layout    --ArtifactKey(hash(layout), opts)--> rendered bytes
//
// # Backends
//
//   - [FileCache]: JSON entries under the user cache directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP API
//   - [NullCache]: caching disabled
//
// # Keys
//
// A [Keyer] turns stage inputs into keys. [DefaultKeyer] hashes options with
// SHA-256 so any option change produces a new key; [ScopedKeyer] adds a
// prefix for isolating tenants or environments on a shared backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLs per pipeline stage. Layouts and artifacts are cheap to rebuild, graphs
// depend only on the XML bytes and never go stale.
const (
	TTLGraph    = 7 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Key types, reported to cache hooks.
const (
	KeyTypeGraph    = "graph"
	KeyTypeLayout   = "layout"
	KeyTypeArtifact = "artifact"
)

// =============================================================================
// Keyer
// =============================================================================

// LayoutKeyOpts are the layout options that change placement.
type LayoutKeyOpts struct {
	ColumnWidth    float64 `json:"column_width"`
	RowHeight      float64 `json:"row_height"`
	OriginX        float64 `json:"origin_x"`
	OriginY        float64 `json:"origin_y"`
	FaultOffset    float64 `json:"fault_offset"`
	FallbackColumn float64 `json:"fallback_column"`
}

// ArtifactKeyOpts are the render options that change output bytes.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
	Labels   bool   `json:"labels"`
}

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	GraphKey(xmlHash string) string
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form "<stage>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey returns the key for a closed graph built from XML with the given hash.
func (k *DefaultKeyer) GraphKey(xmlHash string) string {
	return hashKey(KeyTypeGraph, xmlHash)
}

// LayoutKey returns the key for the layout of a graph.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey(KeyTypeLayout, graphHash, opts)
}

// ArtifactKey returns the key for one rendered format of a layout.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
