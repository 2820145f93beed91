package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/policyradar/policyradar/internal/domain/document"
)

// SQLiteStore persists the corpus in a SQLite documents table. Save replaces
// the table content inside one transaction so readers of the file never see
// a partial corpus.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		summary    TEXT NOT NULL DEFAULT '',
		body_text  TEXT NOT NULL DEFAULT '',
		source     TEXT NOT NULL DEFAULT '',
		doc_type   TEXT NOT NULL DEFAULT '',
		topic      TEXT NOT NULL DEFAULT '',
		url        TEXT NOT NULL DEFAULT '',
		language   TEXT NOT NULL DEFAULT '',
		published  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_published ON documents(published DESC);
	CREATE INDEX IF NOT EXISTS idx_documents_topic ON documents(topic);
	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads all documents. An empty table is an empty corpus.
func (s *SQLiteStore) Load(ctx context.Context) ([]document.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, summary, body_text, source, doc_type, topic, url, language, published
		FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		var d document.Document
		var published string
		if err := rows.Scan(
			&d.ID, &d.Title, &d.Summary, &d.Body, &d.Source,
			&d.DocType, &d.Topic, &d.URL, &d.Language, &published,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, published)
		if err != nil {
			return nil, fmt.Errorf("parse published for %s: %w", d.ID, err)
		}
		d.Published = ts
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Save replaces the stored corpus in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, docs []document.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, title, summary, body_text, source, doc_type, topic, url, language, published)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.Title, d.Summary, d.Body, d.Source,
			d.DocType, d.Topic, d.URL, d.Language,
			d.Published.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
