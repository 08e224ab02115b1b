// Package store keeps a local registry of ingested documents so that
// re-running ingestion can skip documents whose content has not changed.
// It records per-document outcome counts for operator inspection.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a document path is not registered.
var ErrNotFound = errors.New("store: document not found")

// Document represents a row in the documents table.
type Document struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	Language    string `json:"language"`
	ContentHash string `json:"content_hash"`
	Status      string `json:"status"` // "processing", "ready", "error"
	Elements    int    `json:"elements"`
	References  int    `json:"references"`
	Unresolved  int    `json:"unresolved"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	language TEXT NOT NULL DEFAULT 'english',
	content_hash TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'processing',
	elements INTEGER NOT NULL DEFAULT 0,
	refs INTEGER NOT NULL DEFAULT 0,
	unresolved INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
`

// Store wraps the SQLite registry database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the registry database at the given path.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or updates a document record keyed by path. Returns
// the document ID.
func (s *Store) Upsert(ctx context.Context, doc Document) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (path, filename, language, content_hash, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			language = excluded.language,
			content_hash = excluded.content_hash,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`, doc.Path, doc.Filename, doc.Language, doc.ContentHash, doc.Status)
	if err != nil {
		return 0, err
	}

	var id int64
	row := s.db.QueryRowContext(ctx, "SELECT id FROM documents WHERE path = ?", doc.Path)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// GetByPath returns the registered document for a path.
func (s *Store) GetByPath(ctx context.Context, path string) (Document, error) {
	var doc Document
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, language, content_hash, status,
		       elements, refs, unresolved, created_at, updated_at
		FROM documents WHERE path = ?
	`, path)
	err := row.Scan(&doc.ID, &doc.Path, &doc.Filename, &doc.Language,
		&doc.ContentHash, &doc.Status, &doc.Elements, &doc.References,
		&doc.Unresolved, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// UpdateStatus sets the status of a document.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
	return err
}

// UpdateCounts records the outcome counts for a document.
func (s *Store) UpdateCounts(ctx context.Context, id int64, elements, references, unresolved int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE documents SET elements = ?, refs = ?, unresolved = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, elements, references, unresolved, id)
	return err
}

// List returns all registered documents ordered by path.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, filename, language, content_hash, status,
		       elements, refs, unresolved, created_at, updated_at
		FROM documents ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Path, &doc.Filename, &doc.Language,
			&doc.ContentHash, &doc.Status, &doc.Elements, &doc.References,
			&doc.Unresolved, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
