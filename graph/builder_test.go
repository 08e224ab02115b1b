package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/brunobiangulo/ethicagraph/element"
)

func testElements() []*element.Element {
	return []*element.Element{
		{Kind: element.KindPart, Part: 1, Sequence: 1, Text: "PART I"},
		{Kind: element.KindDefinition, Part: 1, Sequence: 1, Text: "DEFINITION I"},
		{Kind: element.KindProposition, Part: 1, Sequence: 1, Text: "PROPOSITION I"},
		{Kind: element.KindDemonstration, Part: 1, ParentSeq: 1, Occurrence: 1, Text: "PROOF",
			References: []string{"definition_1_1"}},
		{Kind: element.KindProposition, Part: 1, Sequence: 2, Text: "PROPOSITION II",
			References: []string{"proposition_1_1"}},
	}
}

func TestBuildWritesNodesAndEdges(t *testing.T) {
	sink := NewMemorySink()
	b := NewBuilder(sink)

	report, err := b.Build(context.Background(), testElements(), "run-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.NodesWritten != 5 || report.NodesSkipped != 0 {
		t.Errorf("nodes written=%d skipped=%d, want 5/0", report.NodesWritten, report.NodesSkipped)
	}
	// 4 containment edges plus 2 reference edges.
	if report.EdgesWritten != 6 || report.EdgesSkipped != 0 {
		t.Errorf("edges written=%d skipped=%d, want 6/0", report.EdgesWritten, report.EdgesSkipped)
	}

	if !sink.HasEdge("part_1", element.RelContains, "definition_1_1") {
		t.Error("missing CONTAINS edge to definition")
	}
	if !sink.HasEdge("proposition_1_1", element.RelHas, "demonstration_1_1_1") {
		t.Error("missing HAS edge to demonstration")
	}
	if !sink.HasEdge("demonstration_1_1_1", element.RelReferences, "definition_1_1") {
		t.Error("missing REFERENCES edge from demonstration")
	}
	if !sink.HasEdge("proposition_1_2", element.RelReferences, "proposition_1_1") {
		t.Error("missing REFERENCES edge between propositions")
	}
}

func TestBuildNodeProps(t *testing.T) {
	sink := NewMemorySink()
	b := NewBuilder(sink)

	elements := []*element.Element{
		{Kind: element.KindPart, Part: 1, Sequence: 1, Text: "PART I"},
		{Kind: element.KindProposition, Part: 1, Sequence: 2, PrintedOrdinal: 2, Text: "PROPOSITION II"},
		{Kind: element.KindScholium, Part: 1, ParentSeq: 2, Occurrence: 1, Text: "NOTE"},
	}
	if _, err := b.Build(context.Background(), elements, "run-9"); err != nil {
		t.Fatalf("Build: %v", err)
	}

	prop, ok := sink.Node("proposition_1_2")
	if !ok {
		t.Fatal("proposition node not stored")
	}
	if prop.Props["number"] != int64(2) || prop.Props["printed_ordinal"] != int64(2) {
		t.Errorf("unexpected proposition props: %v", prop.Props)
	}
	if prop.Props["run_id"] != "run-9" {
		t.Errorf("run_id = %v", prop.Props["run_id"])
	}

	sch, ok := sink.Node("scholium_1_2_1")
	if !ok {
		t.Fatal("scholium node not stored")
	}
	if sch.Props["parent_number"] != int64(2) || sch.Props["occurrence"] != int64(1) {
		t.Errorf("unexpected scholium props: %v", sch.Props)
	}
}

func TestBuildIdempotent(t *testing.T) {
	sink := NewMemorySink()
	b := NewBuilder(sink)
	ctx := context.Background()

	if _, err := b.Build(ctx, testElements(), "run-1"); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	report, err := b.Build(ctx, testElements(), "run-2")
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if report.NodesWritten != 5 || report.EdgesWritten != 6 {
		t.Errorf("second build report: %+v", report)
	}

	nodes, _ := sink.NodeCounts(ctx)
	edges, _ := sink.EdgeCounts(ctx)
	var nodeTotal, edgeTotal int64
	for _, n := range nodes {
		nodeTotal += n
	}
	for _, n := range edges {
		edgeTotal += n
	}
	if nodeTotal != 5 {
		t.Errorf("stored nodes = %d after re-build, want 5", nodeTotal)
	}
	if edgeTotal != 6 {
		t.Errorf("stored edges = %d after re-build, want 6", edgeTotal)
	}
}

// failSink fails node upserts for a single id, passing everything else
// through to the wrapped sink.
type failSink struct {
	*MemorySink
	failID string
}

func (f *failSink) UpsertNode(ctx context.Context, kind element.Kind, id string, props map[string]any) error {
	if id == f.failID {
		return errors.New("write refused")
	}
	return f.MemorySink.UpsertNode(ctx, kind, id, props)
}

func TestBuildSkipsEdgesOfFailedNode(t *testing.T) {
	sink := &failSink{MemorySink: NewMemorySink(), failID: "proposition_1_1"}
	b := NewBuilder(sink)

	report, err := b.Build(context.Background(), testElements(), "run-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.NodesWritten != 4 || report.NodesSkipped != 1 {
		t.Errorf("nodes written=%d skipped=%d, want 4/1", report.NodesWritten, report.NodesSkipped)
	}
	// Lost edges: part CONTAINS prop1, prop1 HAS demonstration, prop2
	// REFERENCES prop1.
	if report.EdgesWritten != 3 || report.EdgesSkipped != 3 {
		t.Errorf("edges written=%d skipped=%d, want 3/3", report.EdgesWritten, report.EdgesSkipped)
	}
	if sink.HasEdge("part_1", element.RelContains, "proposition_1_1") {
		t.Error("edge to unwritten node must not exist")
	}
	if !sink.HasEdge("part_1", element.RelContains, "definition_1_1") {
		t.Error("unrelated edge should still be written")
	}
}

func TestValidateCounts(t *testing.T) {
	sink := NewMemorySink()
	b := NewBuilder(sink)
	ctx := context.Background()

	if _, err := b.Build(ctx, testElements(), "run-1"); err != nil {
		t.Fatalf("Build: %v", err)
	}

	nodes, edges, err := b.Validate(ctx)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if nodes["Proposition"] != 2 || nodes["Part"] != 1 {
		t.Errorf("unexpected node counts: %v", nodes)
	}
	if edges[element.RelContains] != 2 || edges[element.RelHas] != 1 || edges[element.RelReferences] != 2 {
		t.Errorf("unexpected edge counts: %v", edges)
	}
}
