// ethicactl is the operator CLI for the Ethics ingestion pipeline.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	ethicagraph "github.com/brunobiangulo/ethicagraph"
	"github.com/brunobiangulo/ethicagraph/graph"
)

var (
	cfgFile  string
	language string
	registry string
	neo4jURI string
	force    bool
	dryRun   bool
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "ethicactl",
	Short: "Ingest transcripts of Spinoza's Ethics into a Neo4j graph",
	Long: `ethicactl converts PDF or plain-text transcripts of the Ethics into a
typed graph of parts, definitions, axioms, propositions, and their
subordinate units, with cross-references resolved into directed edges.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <document>...",
	Short: "Ingest one or more documents",
	Long: `Ingest runs the full pipeline for each document: text extraction,
structural parsing, reference resolution, and graph persistence.
A failing document aborts only itself; the rest of the batch continues.

Example:
  ethicactl ingest ethics_elwes.pdf
  ethicactl ingest --language latin ethica.pdf
  ethicactl ingest --dry-run ethics.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered documents",
	RunE:  runList,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&registry, "registry", "", "SQLite document registry path (empty disables)")

	ingestCmd.Flags().StringVar(&language, "language", "", "marker table language (english, latin)")
	ingestCmd.Flags().StringVar(&neo4jURI, "neo4j-uri", "", "Neo4j bolt URI (overrides config)")
	ingestCmd.Flags().BoolVar(&force, "force", false, "re-ingest even when content is unchanged")
	ingestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run against an in-memory sink, write nothing to Neo4j")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (ethicagraph.Config, error) {
	cfg := ethicagraph.DefaultConfig()
	if cfgFile != "" {
		var err error
		cfg, err = ethicagraph.LoadConfig(cfgFile)
		if err != nil {
			return cfg, err
		}
	}

	// Environment overrides, matching the conventional variable names.
	if v := os.Getenv("NEO4J_URI"); v != "" {
		cfg.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		cfg.Neo4j.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		cfg.Neo4j.Password = v
	}
	if v := os.Getenv("NEO4J_DATABASE"); v != "" {
		cfg.Neo4j.Database = v
	}

	if neo4jURI != "" {
		cfg.Neo4j.URI = neo4jURI
	}
	if registry != "" {
		cfg.RegistryPath = registry
	}
	if language != "" {
		cfg.Language = language
	}
	return cfg, nil
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func runIngest(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var opts []ethicagraph.Option
	if dryRun {
		opts = append(opts, ethicagraph.WithSink(graph.NewMemorySink()))
	}

	pipeline, err := ethicagraph.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer pipeline.Close(ctx)

	var ingestOpts []ethicagraph.IngestOption
	if force {
		ingestOpts = append(ingestOpts, ethicagraph.WithForceReingest())
	}

	batch, err := pipeline.IngestAll(ctx, args, ingestOpts...)
	if err != nil {
		return err
	}

	printBatch(batch)

	nodes, edges, err := pipeline.Validate(ctx)
	if err != nil {
		slog.Warn("graph validation failed", "error", err)
	} else if nodes != nil {
		printCounts("Nodes in store:", nodes)
		printCounts("Edges in store:", edges)
	}

	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.RegistryPath == "" {
		return fmt.Errorf("no registry configured (set --registry or registry_path)")
	}

	// The list command only needs the registry, never the graph store.
	pipeline, err := ethicagraph.New(cmd.Context(), cfg,
		ethicagraph.WithSink(graph.NewMemorySink()))
	if err != nil {
		return err
	}
	defer pipeline.Close(cmd.Context())

	docs, err := pipeline.Registry().List(cmd.Context())
	if err != nil {
		return err
	}
	for _, d := range docs {
		fmt.Printf("%-40s %-10s %-8s elements=%d refs=%d unresolved=%d\n",
			d.Filename, d.Status, d.Language, d.Elements, d.References, d.Unresolved)
	}
	return nil
}

func printBatch(batch *ethicagraph.BatchReport) {
	fmt.Printf("Run %s\n", batch.RunID)
	for _, r := range batch.Documents {
		if r.Error != nil {
			fmt.Printf("  %s: FAILED: %v\n", r.Filename, r.Error)
			continue
		}
		if r.Skipped {
			fmt.Printf("  %s: unchanged, skipped\n", r.Filename)
			continue
		}
		total := 0
		for _, n := range r.Elements {
			total += n
		}
		fmt.Printf("  %s: %d elements, %d references resolved, %d unresolved, %d anomalies (%s)\n",
			r.Filename, total, r.Resolved, len(r.Unresolved), len(r.Anomalies),
			r.Elapsed.Round(time.Millisecond))
		if r.Write != nil {
			fmt.Printf("    nodes written=%d skipped=%d, edges written=%d skipped=%d\n",
				r.Write.NodesWritten, r.Write.NodesSkipped,
				r.Write.EdgesWritten, r.Write.EdgesSkipped)
		}
	}
}

func printCounts(header string, counts map[string]int64) {
	fmt.Println(header)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-15s %d\n", k, counts[k])
	}
}
