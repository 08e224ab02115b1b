package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/brunobiangulo/ethicagraph/element"
)

// Neo4jConfig holds connection settings for a Neo4j sink.
type Neo4jConfig struct {
	URI      string `json:"uri" yaml:"uri"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
}

// Neo4jSink persists nodes and edges into Neo4j using MERGE-based
// upserts.
type Neo4jSink struct {
	driver   neo4j.DriverWithContext
	database string
}

const connectTimeout = 10 * time.Second

// NewNeo4jSink connects to Neo4j and verifies connectivity.
func NewNeo4jSink(ctx context.Context, cfg Neo4jConfig) (*Neo4jSink, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		c.SocketConnectTimeout = connectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Neo4jSink{driver: driver, database: cfg.Database}, nil
}

// Close releases the underlying driver.
func (s *Neo4jSink) Close(ctx context.Context) error {
	if s == nil || s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// schemaStatements create one uniqueness constraint per node label plus
// lookup indexes on the (part_number, number) tuples.
var schemaStatements = []string{
	`CREATE CONSTRAINT part_id IF NOT EXISTS FOR (p:Part) REQUIRE p.id IS UNIQUE`,
	`CREATE CONSTRAINT definition_id IF NOT EXISTS FOR (d:Definition) REQUIRE d.id IS UNIQUE`,
	`CREATE CONSTRAINT axiom_id IF NOT EXISTS FOR (a:Axiom) REQUIRE a.id IS UNIQUE`,
	`CREATE CONSTRAINT proposition_id IF NOT EXISTS FOR (p:Proposition) REQUIRE p.id IS UNIQUE`,
	`CREATE CONSTRAINT demonstration_id IF NOT EXISTS FOR (d:Demonstration) REQUIRE d.id IS UNIQUE`,
	`CREATE CONSTRAINT scholium_id IF NOT EXISTS FOR (s:Scholium) REQUIRE s.id IS UNIQUE`,
	`CREATE CONSTRAINT corollary_id IF NOT EXISTS FOR (c:Corollary) REQUIRE c.id IS UNIQUE`,
	`CREATE INDEX part_number_idx IF NOT EXISTS FOR (p:Part) ON (p.part_number)`,
	`CREATE INDEX definition_lookup_idx IF NOT EXISTS FOR (d:Definition) ON (d.part_number, d.number)`,
	`CREATE INDEX axiom_lookup_idx IF NOT EXISTS FOR (a:Axiom) ON (a.part_number, a.number)`,
	`CREATE INDEX proposition_lookup_idx IF NOT EXISTS FOR (p:Proposition) ON (p.part_number, p.number)`,
}

// EnsureSchema creates constraints and indexes. Statements are
// idempotent (IF NOT EXISTS); the first failure is returned.
func (s *Neo4jSink) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// UpsertNode merges the node by id and replaces its properties.
func (s *Neo4jSink) UpsertNode(ctx context.Context, kind element.Kind, id string, props map[string]any) error {
	label, err := labelFor(kind)
	if err != nil {
		return err
	}
	cypher := fmt.Sprintf(`MERGE (n:%s {id: $id}) SET n += $props`, label)
	return s.write(ctx, cypher, map[string]any{"id": id, "props": props})
}

// UpsertEdge merges the directed edge between two existing nodes. Both
// endpoints must already be present; a missing endpoint makes the MERGE
// a no-op rather than an error, which the builder guards against by
// only writing edges between confirmed nodes.
func (s *Neo4jSink) UpsertEdge(ctx context.Context, sourceID, rel, targetID string) error {
	if err := validRel(rel); err != nil {
		return err
	}
	cypher := fmt.Sprintf(`
MATCH (a {id: $source})
MATCH (b {id: $target})
MERGE (a)-[:%s]->(b)`, rel)
	return s.write(ctx, cypher, map[string]any{"source": sourceID, "target": targetID})
}

// NodeCounts returns stored node totals per label.
func (s *Neo4jSink) NodeCounts(ctx context.Context) (map[string]int64, error) {
	return s.counts(ctx, `MATCH (n) RETURN labels(n)[0] AS key, count(*) AS count`)
}

// EdgeCounts returns stored edge totals per relationship type.
func (s *Neo4jSink) EdgeCounts(ctx context.Context) (map[string]int64, error) {
	return s.counts(ctx, `MATCH ()-[r]->() RETURN type(r) AS key, count(*) AS count`)
}

func (s *Neo4jSink) write(ctx context.Context, cypher string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

func (s *Neo4jSink) counts(ctx context.Context, cypher string) (map[string]int64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int64)
		for res.Next(ctx) {
			rec := res.Record()
			key, _ := rec.Get("key")
			count, _ := rec.Get("count")
			name, ok := key.(string)
			if !ok {
				continue
			}
			n, ok := count.(int64)
			if !ok {
				continue
			}
			counts[name] = n
		}
		return counts, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.(map[string]int64), nil
}

// labelFor validates the kind and returns the node label interpolated
// into MERGE statements. Labels cannot be query parameters in Cypher, so
// only members of the fixed kind set are accepted.
func labelFor(kind element.Kind) (string, error) {
	for _, k := range element.Kinds {
		if k == kind {
			return string(k), nil
		}
	}
	return "", fmt.Errorf("unknown node kind: %s", kind)
}

func validRel(rel string) error {
	switch rel {
	case element.RelContains, element.RelHas, element.RelReferences:
		return nil
	}
	return fmt.Errorf("unknown relationship type: %s", rel)
}
