// Package snapshot persists the document corpus across restarts. Three
// drivers share one contract: Load returns the stored corpus (empty when
// nothing was persisted yet) and Save replaces it wholesale, mirroring the
// in-memory atomic snapshot swap.
package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/policyradar/policyradar/internal/domain/document"
)

// FileStore persists the corpus as a JSONL file, one document per line
// (the format the original ingestion job produced). Save writes a temp file
// and renames it so a crash never leaves a half-written corpus.
type FileStore struct {
	path string
}

// NewFileStore creates a JSONL-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads all documents. A missing file is an empty corpus, not an error.
func (f *FileStore) Load(ctx context.Context) ([]document.Document, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open corpus file %s: %w", f.path, err)
	}
	defer file.Close()

	var docs []document.Document
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var d document.Document
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("parse corpus file %s line %d: %w", f.path, line, err)
		}
		docs = append(docs, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus file %s: %w", f.path, err)
	}
	return docs, nil
}

// Save writes the full corpus, replacing any previous content atomically.
func (f *FileStore) Save(ctx context.Context, docs []document.Document) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create corpus dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp corpus file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			tmp.Close()
			return fmt.Errorf("encode document %s: %w", d.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush corpus file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close corpus file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("install corpus file %s: %w", f.path, err)
	}
	return nil
}
