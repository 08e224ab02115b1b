package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/brunobiangulo/ethicagraph/element"
)

// WriteReport summarises the outcome of a build: how many nodes and
// edges were written versus skipped due to write failures or missing
// endpoints.
type WriteReport struct {
	NodesWritten int `json:"nodes_written"`
	NodesSkipped int `json:"nodes_skipped"`
	EdgesWritten int `json:"edges_written"`
	EdgesSkipped int `json:"edges_skipped"`
}

// Builder turns an element sequence into graph writes. Node writes are
// independent of each other: a failure writing one node is logged and
// skipped, and edges are attempted only between nodes confirmed written.
type Builder struct {
	sink Sink
}

// NewBuilder creates a builder over a sink.
func NewBuilder(sink Sink) *Builder {
	return &Builder{sink: sink}
}

// Build upserts all element nodes, then the containment edges implied by
// element identity, then the reference edges populated by the resolver.
// runID tags every node write so operators can tell which ingestion run
// last touched it.
func (b *Builder) Build(ctx context.Context, elements []*element.Element, runID string) (*WriteReport, error) {
	report := &WriteReport{}
	start := time.Now()

	if err := b.sink.EnsureSchema(ctx); err != nil {
		// Schema setup can fail for restricted users; writes may still
		// succeed against an already-initialised store.
		slog.Warn("graph schema setup failed (continuing)", "error", err)
	}

	written := make(map[string]bool, len(elements))
	for _, el := range elements {
		id := el.ID()
		if err := b.sink.UpsertNode(ctx, el.Kind, id, nodeProps(el, runID)); err != nil {
			slog.Warn("node upsert failed, skipping",
				"id", id, "kind", string(el.Kind), "error", err)
			report.NodesSkipped++
			continue
		}
		written[id] = true
		report.NodesWritten++
	}

	// Containment edges: Part -CONTAINS-> primary elements, Proposition
	// -HAS-> its dependents.
	for _, el := range elements {
		parentID, rel, ok := el.ParentID()
		if !ok {
			continue
		}
		b.upsertEdge(ctx, report, written, parentID, rel, el.ID())
	}

	// Reference edges from the resolver's populated lists. Cycles are
	// valid here (mutually supporting propositions); only self-loops are
	// excluded, and the resolver has already dropped those.
	for _, el := range elements {
		sourceID := el.ID()
		for _, targetID := range el.References {
			if targetID == sourceID {
				continue
			}
			b.upsertEdge(ctx, report, written, sourceID, element.RelReferences, targetID)
		}
	}

	slog.Info("graph build complete",
		"nodes_written", report.NodesWritten,
		"nodes_skipped", report.NodesSkipped,
		"edges_written", report.EdgesWritten,
		"edges_skipped", report.EdgesSkipped,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return report, nil
}

// Validate reports stored totals per node label and relationship type
// when the sink supports counting.
func (b *Builder) Validate(ctx context.Context) (nodes, edges map[string]int64, err error) {
	counter, ok := b.sink.(Counter)
	if !ok {
		return nil, nil, nil
	}
	nodes, err = counter.NodeCounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	edges, err = counter.EdgeCounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

func (b *Builder) upsertEdge(ctx context.Context, report *WriteReport, written map[string]bool, sourceID, rel, targetID string) {
	if !written[sourceID] || !written[targetID] {
		slog.Debug("edge endpoint not written, skipping",
			"source", sourceID, "rel", rel, "target", targetID)
		report.EdgesSkipped++
		return
	}
	if err := b.sink.UpsertEdge(ctx, sourceID, rel, targetID); err != nil {
		slog.Warn("edge upsert failed, skipping",
			"source", sourceID, "rel", rel, "target", targetID, "error", err)
		report.EdgesSkipped++
		return
	}
	report.EdgesWritten++
}

// nodeProps maps an element to its persisted properties.
func nodeProps(el *element.Element, runID string) map[string]any {
	props := map[string]any{
		"part_number": int64(el.Part),
		"text":        el.Text,
		"run_id":      runID,
		"synced_at":   time.Now().UTC().Format(time.RFC3339),
	}
	switch {
	case el.Kind == element.KindPart:
		// identity is the part number itself
	case el.Kind.Primary():
		props["number"] = int64(el.Sequence)
		if el.PrintedOrdinal != 0 {
			props["printed_ordinal"] = int64(el.PrintedOrdinal)
		}
	default:
		props["parent_number"] = int64(el.ParentSeq)
		props["occurrence"] = int64(el.Occurrence)
	}
	return props
}
