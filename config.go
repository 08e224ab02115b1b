package ethicagraph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/ethicagraph/graph"
)

// Config holds all configuration for the ingestion pipeline.
type Config struct {
	// Neo4j is the graph store connection. Ignored when a sink is
	// injected via WithSink.
	Neo4j graph.Neo4jConfig `json:"neo4j" yaml:"neo4j"`

	// RegistryPath is the SQLite file tracking ingested documents by
	// content hash. Empty disables the registry (every ingest re-runs).
	RegistryPath string `json:"registry_path" yaml:"registry_path"`

	// Language selects the marker table for structural parsing
	// ("english" or "latin"). Individual ingests may override it.
	Language string `json:"language" yaml:"language"`
}

// DefaultConfig returns a Config with local-development defaults.
func DefaultConfig() Config {
	return Config{
		Neo4j: graph.Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Password: "password",
		},
		Language: "english",
	}
}

// LoadConfig reads a YAML config file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}
