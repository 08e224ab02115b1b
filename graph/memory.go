package graph

import (
	"context"
	"sync"

	"github.com/brunobiangulo/ethicagraph/element"
)

// MemorySink is an in-memory Sink used for dry runs and tests. It
// mirrors the upsert semantics of the Neo4j sink: nodes are keyed by id,
// edges by the ordered (source, relationship, target) triple.
type MemorySink struct {
	mu    sync.Mutex
	nodes map[string]MemoryNode
	edges map[MemoryEdge]struct{}
}

// MemoryNode is a stored node.
type MemoryNode struct {
	Kind  element.Kind
	Props map[string]any
}

// MemoryEdge is a stored edge identity.
type MemoryEdge struct {
	SourceID string
	Rel      string
	TargetID string
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		nodes: make(map[string]MemoryNode),
		edges: make(map[MemoryEdge]struct{}),
	}
}

func (m *MemorySink) EnsureSchema(ctx context.Context) error { return nil }

func (m *MemorySink) UpsertNode(ctx context.Context, kind element.Kind, id string, props map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[id] = MemoryNode{Kind: kind, Props: props}
	return nil
}

func (m *MemorySink) UpsertEdge(ctx context.Context, sourceID, rel, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[MemoryEdge{SourceID: sourceID, Rel: rel, TargetID: targetID}] = struct{}{}
	return nil
}

// Node returns the stored node for an id.
func (m *MemorySink) Node(id string) (MemoryNode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	return n, ok
}

// HasEdge reports whether the edge triple is stored.
func (m *MemorySink) HasEdge(sourceID, rel, targetID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[MemoryEdge{SourceID: sourceID, Rel: rel, TargetID: targetID}]
	return ok
}

// NodeCounts returns stored node totals per kind.
func (m *MemorySink) NodeCounts(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, n := range m.nodes {
		counts[string(n.Kind)]++
	}
	return counts, nil
}

// EdgeCounts returns stored edge totals per relationship type.
func (m *MemorySink) EdgeCounts(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for e := range m.edges {
		counts[e.Rel]++
	}
	return counts, nil
}
