// Package ethicagraph ingests transcripts of Spinoza's Ethics into a
// typed, cross-referenced graph. A document flows through four stages in
// strict order: text extraction, structural parsing, reference
// resolution, and graph persistence. Resolution needs the complete
// element index (citations may point forward), so no stage starts before
// the previous one finishes.
package ethicagraph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/ethicagraph/element"
	"github.com/brunobiangulo/ethicagraph/extractor"
	"github.com/brunobiangulo/ethicagraph/graph"
	"github.com/brunobiangulo/ethicagraph/parser"
	"github.com/brunobiangulo/ethicagraph/resolver"
	"github.com/brunobiangulo/ethicagraph/store"
)

// Report describes the outcome of ingesting a single document: element
// counts per kind, reference resolution totals, write totals, and any
// parse anomalies. Error is set when the document's ingestion aborted.
type Report struct {
	Path       string                `json:"path"`
	Filename   string                `json:"filename"`
	Language   string                `json:"language"`
	Skipped    bool                  `json:"skipped"` // content unchanged since last run
	Elements   map[element.Kind]int  `json:"elements,omitempty"`
	Anomalies  []parser.Anomaly      `json:"anomalies,omitempty"`
	Resolved   int                   `json:"resolved"`
	Unresolved []resolver.Unresolved `json:"unresolved,omitempty"`
	Write      *graph.WriteReport    `json:"write,omitempty"`
	Elapsed    time.Duration         `json:"elapsed"`
	Error      error                 `json:"error,omitempty"`
}

// BatchReport aggregates the reports of one ingestion run over a set of
// documents.
type BatchReport struct {
	RunID     string    `json:"run_id"`
	Documents []*Report `json:"documents"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink injects a graph sink, bypassing the Neo4j connection the
// pipeline would otherwise open from config. Used for dry runs and
// tests.
func WithSink(sink graph.Sink) Option {
	return func(p *Pipeline) { p.sink = sink }
}

// IngestOption configures a single ingest.
type IngestOption func(*ingestOptions)

type ingestOptions struct {
	force    bool
	language string
}

// WithForceReingest re-ingests even when the content hash is unchanged.
func WithForceReingest() IngestOption {
	return func(o *ingestOptions) { o.force = true }
}

// WithLanguage overrides the configured marker-table language for this
// ingest.
func WithLanguage(language string) IngestOption {
	return func(o *ingestOptions) { o.language = language }
}

// Pipeline sequences extraction, parsing, resolution, and persistence
// for one or more source documents. A pipeline holds no shared mutable
// state across documents beyond the sink and registry, so independent
// pipelines may run concurrently against the same store.
type Pipeline struct {
	cfg        config
	extractors *extractor.Registry
	sink       graph.Sink
	builder    *graph.Builder
	registry   *store.Store // nil when disabled
	ownsSink   bool
}

// config is the resolved pipeline configuration.
type config struct {
	language string
}

// New creates a pipeline from config. Without WithSink it connects to
// Neo4j using cfg.Neo4j.
func New(ctx context.Context, cfg Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:        config{language: cfg.Language},
		extractors: extractor.NewRegistry(),
	}
	for _, o := range opts {
		o(p)
	}

	// Validate the language eagerly so misconfiguration fails at
	// construction, not mid-batch.
	if _, err := parser.New(cfg.Language); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if p.sink == nil {
		sink, err := graph.NewNeo4jSink(ctx, cfg.Neo4j)
		if err != nil {
			return nil, fmt.Errorf("connecting graph sink: %w", err)
		}
		p.sink = sink
		p.ownsSink = true
	}
	p.builder = graph.NewBuilder(p.sink)

	if cfg.RegistryPath != "" {
		reg, err := store.New(cfg.RegistryPath)
		if err != nil {
			p.closeSink(ctx)
			return nil, fmt.Errorf("opening document registry: %w", err)
		}
		p.registry = reg
	}

	return p, nil
}

// Close releases the registry and, when the pipeline opened it, the
// graph sink.
func (p *Pipeline) Close(ctx context.Context) error {
	var first error
	if p.registry != nil {
		if err := p.registry.Close(); err != nil {
			first = err
		}
	}
	if err := p.closeSink(ctx); err != nil && first == nil {
		first = err
	}
	return first
}

func (p *Pipeline) closeSink(ctx context.Context) error {
	if !p.ownsSink {
		return nil
	}
	if c, ok := p.sink.(*graph.Neo4jSink); ok {
		return c.Close(ctx)
	}
	return nil
}

// Ingest runs the full pipeline for one document. Only extraction
// failures abort the document; parse anomalies and per-write persistence
// failures are collected into the report and the run continues.
func (p *Pipeline) Ingest(ctx context.Context, path string, opts ...IngestOption) (*Report, error) {
	return p.ingest(ctx, path, uuid.NewString(), opts...)
}

func (p *Pipeline) ingest(ctx context.Context, path, runID string, opts ...IngestOption) (*Report, error) {
	options := &ingestOptions{language: p.cfg.language}
	for _, o := range opts {
		o(options)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	filename := filepath.Base(absPath)
	report := &Report{Path: absPath, Filename: filename, Language: options.language}
	start := time.Now()

	hash, err := fileHash(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	// Unchanged content is a no-op unless forced.
	var docID int64
	if p.registry != nil {
		if !options.force {
			existing, err := p.registry.GetByPath(ctx, absPath)
			if err == nil && existing.ContentHash == hash && existing.Status == "ready" {
				slog.Info("ingest: content unchanged, skipping", "file", filename)
				report.Skipped = true
				report.Elapsed = time.Since(start)
				return report, nil
			}
		}
		docID, err = p.registry.Upsert(ctx, store.Document{
			Path:        absPath,
			Filename:    filename,
			Language:    options.language,
			ContentHash: hash,
			Status:      "processing",
		})
		if err != nil {
			return nil, fmt.Errorf("registering document: %w", err)
		}
	}

	fail := func(cause error) (*Report, error) {
		if p.registry != nil {
			_ = p.registry.UpdateStatus(ctx, docID, "error")
		}
		report.Error = cause
		report.Elapsed = time.Since(start)
		return report, cause
	}

	// Stage 1: extraction.
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(absPath), "."))
	ext, err := p.extractors.Get(format)
	if err != nil {
		return fail(fmt.Errorf("%w: %s", ErrUnsupportedFormat, format))
	}

	slog.Info("ingest: extracting text", "file", filename, "format", format)
	extractStart := time.Now()
	text, err := ext.Extract(ctx, absPath)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrExtractionFailed, err))
	}
	if strings.TrimSpace(text) == "" {
		return fail(fmt.Errorf("%w: %s", ErrEmptyDocument, absPath))
	}
	slog.Info("ingest: extraction complete",
		"file", filename, "chars", len(text),
		"elapsed", time.Since(extractStart).Round(time.Millisecond))

	// Stage 2: structural parsing over the complete text.
	prs, err := parser.New(options.language)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	parseStart := time.Now()
	parsed := prs.Parse(text)
	if len(parsed.Elements) == 0 {
		return fail(fmt.Errorf("%w: %s", ErrNoElements, absPath))
	}
	report.Elements = element.CountByKind(parsed.Elements)
	report.Anomalies = parsed.Anomalies
	slog.Info("ingest: parsing complete",
		"file", filename,
		"elements", len(parsed.Elements),
		"anomalies", len(parsed.Anomalies),
		"elapsed", time.Since(parseStart).Round(time.Millisecond))

	// Stage 3: reference resolution against the full element index.
	resolution := resolver.Resolve(parsed.Elements)
	report.Resolved = len(resolution.Edges)
	report.Unresolved = resolution.Unresolved

	// Stage 4: graph persistence.
	writeStart := time.Now()
	write, err := p.builder.Build(ctx, parsed.Elements, runID)
	if err != nil {
		return fail(fmt.Errorf("building graph: %w", err))
	}
	report.Write = write
	slog.Info("ingest: graph writes complete",
		"file", filename,
		"nodes", write.NodesWritten, "edges", write.EdgesWritten,
		"elapsed", time.Since(writeStart).Round(time.Millisecond))

	if p.registry != nil {
		_ = p.registry.UpdateCounts(ctx, docID, len(parsed.Elements),
			report.Resolved, len(report.Unresolved))
		_ = p.registry.UpdateStatus(ctx, docID, "ready")
	}

	report.Elapsed = time.Since(start)
	slog.Info("ingest: document ready",
		"file", filename, "elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// IngestAll ingests a batch of documents. A failure in one document
// aborts only that document; the rest of the batch continues. The batch
// stops early only when ctx is cancelled between documents.
func (p *Pipeline) IngestAll(ctx context.Context, paths []string, opts ...IngestOption) (*BatchReport, error) {
	batch := &BatchReport{RunID: uuid.NewString()}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		report, err := p.ingest(ctx, path, batch.RunID, opts...)
		if err != nil {
			if report == nil {
				report = &Report{Path: path, Filename: filepath.Base(path), Error: err}
			}
			slog.Error("ingest: document failed", "file", report.Filename, "error", err)
		}
		batch.Documents = append(batch.Documents, report)
	}

	return batch, nil
}

// Validate reports stored totals per node label and relationship type.
func (p *Pipeline) Validate(ctx context.Context) (nodes, edges map[string]int64, err error) {
	return p.builder.Validate(ctx)
}

// Registry returns the document registry, nil when disabled.
func (p *Pipeline) Registry() *store.Store { return p.registry }

// fileHash computes the SHA-256 hash of a file's content.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
