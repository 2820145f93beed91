package rag

import (
	"context"

	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/store"
)

// SnapshotProvider yields the current corpus snapshot.
type SnapshotProvider interface {
	Snapshot() (*store.Snapshot, error)
}

// Completer generates a natural-language answer from a question and its
// supporting documents.
type Completer interface {
	Complete(ctx context.Context, question string, docs []document.Document) (string, error)
}
