package ethicagraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/ethicagraph/element"
	"github.com/brunobiangulo/ethicagraph/graph"
)

const sampleEthics = `PART I
CONCERNING GOD

DEFINITION I
By cause of itself I mean that whose essence involves existence.
AXIOM I
Everything which is, is either in itself or in another.
PROPOSITION I
Substance is by nature prior to its modifications.
PROOF
This is evident from Definition 1.
PROPOSITION II
Two substances having different attributes have nothing in common.
PROOF
This follows from Proposition 1 and Axiom 1.
NOTE
Compare also Axiom 9 which appears in no part.
`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ethics.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing sample: %v", err)
	}
	return path
}

func newTestPipeline(t *testing.T, cfg Config, sink graph.Sink) *Pipeline {
	t.Helper()
	p, err := New(context.Background(), cfg, WithSink(sink))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close(context.Background()) })
	return p
}

func TestIngestEndToEnd(t *testing.T) {
	path := writeSample(t, sampleEthics)
	sink := graph.NewMemorySink()
	p := newTestPipeline(t, DefaultConfig(), sink)

	report, err := p.Ingest(context.Background(), path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if report.Skipped {
		t.Fatal("first ingest must not be skipped")
	}

	wantElements := map[element.Kind]int{
		element.KindPart:          1,
		element.KindDefinition:    1,
		element.KindAxiom:         1,
		element.KindProposition:   2,
		element.KindDemonstration: 2,
		element.KindScholium:      1,
	}
	for kind, want := range wantElements {
		if got := report.Elements[kind]; got != want {
			t.Errorf("%s count = %d, want %d", kind, got, want)
		}
	}
	if report.Resolved != 3 {
		t.Errorf("resolved = %d, want 3", report.Resolved)
	}
	if len(report.Unresolved) != 1 {
		t.Errorf("unresolved = %d, want 1: %+v", len(report.Unresolved), report.Unresolved)
	}
	if report.Write == nil || report.Write.NodesWritten != 8 {
		t.Fatalf("unexpected write report: %+v", report.Write)
	}

	if !sink.HasEdge("part_1", element.RelContains, "proposition_1_1") {
		t.Error("missing containment edge")
	}
	if !sink.HasEdge("proposition_1_2", element.RelHas, "demonstration_1_2_1") {
		t.Error("missing HAS edge")
	}
	if !sink.HasEdge("demonstration_1_2_1", element.RelReferences, "proposition_1_1") {
		t.Error("missing reference edge")
	}
}

func TestIngestRepeatIsIdempotent(t *testing.T) {
	path := writeSample(t, sampleEthics)
	sink := graph.NewMemorySink()
	p := newTestPipeline(t, DefaultConfig(), sink)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, path); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	nodes1, _ := sink.NodeCounts(ctx)
	edges1, _ := sink.EdgeCounts(ctx)

	if _, err := p.Ingest(ctx, path); err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	nodes2, _ := sink.NodeCounts(ctx)
	edges2, _ := sink.EdgeCounts(ctx)

	for k, v := range nodes1 {
		if nodes2[k] != v {
			t.Errorf("node count for %s changed: %d -> %d", k, v, nodes2[k])
		}
	}
	for k, v := range edges1 {
		if edges2[k] != v {
			t.Errorf("edge count for %s changed: %d -> %d", k, v, edges2[k])
		}
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethics.docx")
	if err := os.WriteFile(path, []byte("not really a docx"), 0644); err != nil {
		t.Fatal(err)
	}
	p := newTestPipeline(t, DefaultConfig(), graph.NewMemorySink())

	_, err := p.Ingest(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	path := writeSample(t, "")
	p := newTestPipeline(t, DefaultConfig(), graph.NewMemorySink())

	_, err := p.Ingest(context.Background(), path)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestIngestNoElements(t *testing.T) {
	path := writeSample(t, "Nothing in this text looks like a structural marker.\n")
	p := newTestPipeline(t, DefaultConfig(), graph.NewMemorySink())

	_, err := p.Ingest(context.Background(), path)
	if !errors.Is(err, ErrNoElements) {
		t.Errorf("err = %v, want ErrNoElements", err)
	}
}

func TestIngestAllContinuesPastFailure(t *testing.T) {
	good := writeSample(t, sampleEthics)
	missing := filepath.Join(t.TempDir(), "missing.txt")
	p := newTestPipeline(t, DefaultConfig(), graph.NewMemorySink())

	batch, err := p.IngestAll(context.Background(), []string{missing, good})
	if err != nil {
		t.Fatalf("IngestAll: %v", err)
	}
	if batch.RunID == "" {
		t.Error("batch must carry a run id")
	}
	if len(batch.Documents) != 2 {
		t.Fatalf("got %d reports, want 2", len(batch.Documents))
	}
	if batch.Documents[0].Error == nil {
		t.Error("missing document should report an error")
	}
	if batch.Documents[1].Error != nil {
		t.Errorf("good document failed: %v", batch.Documents[1].Error)
	}
}

func TestIngestSkipsUnchangedContent(t *testing.T) {
	path := writeSample(t, sampleEthics)
	cfg := DefaultConfig()
	cfg.RegistryPath = filepath.Join(t.TempDir(), "registry.db")
	p := newTestPipeline(t, cfg, graph.NewMemorySink())
	ctx := context.Background()

	first, err := p.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	if first.Skipped {
		t.Fatal("first ingest must not be skipped")
	}

	second, err := p.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if !second.Skipped {
		t.Error("unchanged content should be skipped")
	}

	forced, err := p.Ingest(ctx, path, WithForceReingest())
	if err != nil {
		t.Fatalf("forced Ingest: %v", err)
	}
	if forced.Skipped {
		t.Error("forced ingest must not be skipped")
	}
}

func TestIngestReingestsChangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ethics.txt")
	if err := os.WriteFile(path, []byte(sampleEthics), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.RegistryPath = filepath.Join(dir, "registry.db")
	p := newTestPipeline(t, cfg, graph.NewMemorySink())
	ctx := context.Background()

	if _, err := p.Ingest(ctx, path); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	if err := os.WriteFile(path, []byte(sampleEthics+"PROPOSITION III\nA third claim.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	report, err := p.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if report.Skipped {
		t.Error("changed content must be re-ingested")
	}
	if report.Elements[element.KindProposition] != 3 {
		t.Errorf("proposition count = %d, want 3", report.Elements[element.KindProposition])
	}
}

func TestNewRejectsUnknownLanguage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Language = "klingon"

	_, err := New(context.Background(), cfg, WithSink(graph.NewMemorySink()))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
neo4j:
  uri: bolt://graph:7687
  username: writer
  password: secret
  database: ethics
registry_path: /var/lib/ethica/registry.db
language: latin
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Neo4j.URI != "bolt://graph:7687" || cfg.Neo4j.Database != "ethics" {
		t.Errorf("neo4j config not loaded: %+v", cfg.Neo4j)
	}
	if cfg.RegistryPath != "/var/lib/ethica/registry.db" || cfg.Language != "latin" {
		t.Errorf("config fields not loaded: %+v", cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
