package ingest

import (
	"context"

	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/store"
)

// Source fetches documents for a topic from one EU publisher.
type Source interface {
	Name() string
	Fetch(ctx context.Context, topic string, days, limit int) ([]document.Document, error)
}

// Corpus is the writable side of the document store.
type Corpus interface {
	Snapshot() (*store.Snapshot, error)
	Replace(docs []document.Document) *store.Snapshot
}

// Saver persists the corpus so it survives restarts.
type Saver interface {
	Save(ctx context.Context, docs []document.Document) error
}
