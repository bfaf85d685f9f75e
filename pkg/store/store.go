// Package store persists flows submitted to the HTTP API.
//
// A [Record] keeps the original Flow XML together with the closed graph built
// from it, so a stored flow can be laid out again with different options
// without re-parsing. Layouts are not stored; they are cheap to recompute and
// cached separately.
//
// # Backends
//
//   - [MongoStore]: MongoDB, for deployments
//   - [FileStore]: one JSON file per record, for the CLI and single-node servers
//   - [MemoryStore]: in-process, for tests and the default server mode
//
// # Usage
//
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{URI: "mongodb://localhost:27017"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	id, err := st.SaveFlow(ctx, store.NewRecord(source, xml, g))
//	rec, err := st.GetFlow(ctx, id)
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/flow"
)

// DefaultListLimit caps ListFlows when no limit is given.
const DefaultListLimit = 50

// Record is one stored flow.
type Record struct {
	ID        string      `json:"id" bson:"_id"`
	APIName   string      `json:"api_name,omitempty" bson:"api_name,omitempty"`
	Label     string      `json:"label,omitempty" bson:"label,omitempty"`
	Source    string      `json:"source,omitempty" bson:"source,omitempty"`
	XML       string      `json:"xml,omitempty" bson:"xml,omitempty"`
	Graph     *flow.Graph `json:"graph,omitempty" bson:"graph,omitempty"`
	GraphHash string      `json:"graph_hash,omitempty" bson:"graph_hash,omitempty"`
	NodeCount int         `json:"node_count" bson:"node_count"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}

// Summary is the listing view of a Record, without the XML and graph.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	APIName   string    `json:"api_name,omitempty" bson:"api_name,omitempty"`
	Label     string    `json:"label,omitempty" bson:"label,omitempty"`
	NodeCount int       `json:"node_count" bson:"node_count"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Summary returns the listing view of r.
func (r *Record) Summary() Summary {
	return Summary{ID: r.ID, APIName: r.APIName, Label: r.Label, NodeCount: r.NodeCount, CreatedAt: r.CreatedAt}
}

// NewRecord builds a record for g, which was parsed from xml.
func NewRecord(source string, xml []byte, g *flow.Graph) *Record {
	r := &Record{Source: source, XML: string(xml), Graph: g}
	if g != nil {
		r.APIName = g.Metadata.APIName
		r.Label = g.Metadata.Label
		r.NodeCount = g.NodeCount()
	}
	return r
}

// Store is the interface for flow storage backends.
type Store interface {
	// SaveFlow stores r and returns its ID. An empty ID is filled with a new
	// UUID and a zero CreatedAt with the current time.
	SaveFlow(ctx context.Context, r *Record) (string, error)

	// GetFlow returns the record with the given ID, or an error with code
	// FLOW_NOT_FOUND.
	GetFlow(ctx context.Context, id string) (*Record, error)

	// ListFlows returns up to limit summaries, newest first. A non-positive
	// limit means DefaultListLimit.
	ListFlows(ctx context.Context, limit int) ([]Summary, error)

	// DeleteFlow removes a record. Deleting a missing ID returns FLOW_NOT_FOUND.
	DeleteFlow(ctx context.Context, id string) error

	Close() error
}

// prepare assigns the ID and creation time of a new record.
func prepare(r *Record) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

// ValidateID reports whether id is a well-formed record ID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid flow id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeFlowNotFound, "flow %s not found", id)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
