// Package graph maps parsed elements and resolved references into node
// and edge writes against a graph store. All writes are idempotent
// upserts: nodes are keyed by element identifier, edges by the ordered
// (source, relationship, target) triple, so re-ingesting a document
// never duplicates graph state.
package graph

import (
	"context"

	"github.com/brunobiangulo/ethicagraph/element"
)

// Sink is the persistence collaborator. Implementations must make every
// call idempotent: repeating an upsert leaves the store unchanged apart
// from refreshed node properties.
type Sink interface {
	// EnsureSchema creates uniqueness constraints per node kind and the
	// supporting lookup indexes.
	EnsureSchema(ctx context.Context) error

	// UpsertNode creates or updates a node keyed by id, replacing its
	// properties.
	UpsertNode(ctx context.Context, kind element.Kind, id string, props map[string]any) error

	// UpsertEdge creates the directed edge if it does not already exist.
	UpsertEdge(ctx context.Context, sourceID, rel, targetID string) error
}

// Counter is implemented by sinks that can report stored totals, used
// for post-ingest validation summaries.
type Counter interface {
	NodeCounts(ctx context.Context) (map[string]int64, error)
	EdgeCounts(ctx context.Context) (map[string]int64, error)
}
