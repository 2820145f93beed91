// Package document defines the policy document record served by the API.
package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/policyradar/policyradar/internal/domain"
)

// Document is a single policy document ingested from an EU source.
// ID is unique across the corpus and immutable once assigned.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body_text,omitempty"`
	Source    string    `json:"source"`
	DocType   string    `json:"doc_type"`
	Topic     string    `json:"topic"`
	URL       string    `json:"url,omitempty"`
	Language  string    `json:"language,omitempty"`
	Published time.Time `json:"published"`
}

// Validate checks the corpus invariants: non-empty ID and a non-zero
// publication timestamp (required for recency filtering and ordering).
func (d Document) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("document id is required: %w", domain.ErrInvalidDocument)
	}
	if d.Published.IsZero() {
		return fmt.Errorf("document %q has no publication time: %w", d.ID, domain.ErrInvalidDocument)
	}
	return nil
}

// Less orders documents for output: published descending, ID ascending on
// equal timestamps so results are deterministic.
func Less(a, b Document) bool {
	if !a.Published.Equal(b.Published) {
		return a.Published.After(b.Published)
	}
	return a.ID < b.ID
}
