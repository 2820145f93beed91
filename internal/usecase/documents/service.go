// Package documents implements filtered document listing over the corpus.
package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/domain/filter"
	"github.com/policyradar/policyradar/internal/store"
)

// Service selects and orders documents matching filter criteria.
// All operations are pure reads against a single snapshot per call.
type Service struct {
	snapshots SnapshotProvider
	now       func() time.Time
}

// New creates a document query service.
func New(snapshots SnapshotProvider) *Service {
	return &Service{snapshots: snapshots, now: time.Now}
}

// WithClock overrides the clock used for recency cutoffs.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Query returns documents matching the criteria, ordered by published
// descending (ID ascending on ties), at most criteria.Limit() entries.
// No match yields an empty slice, not an error.
func (s *Service) Query(ctx context.Context, c filter.Criteria) ([]document.Document, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	now := s.now()
	matched := make([]document.Document, 0, c.Limit())
	for _, d := range snap.Documents() {
		if !c.Matches(d, now) {
			continue
		}
		matched = append(matched, d)
		// Snapshot order is already the output order.
		if len(matched) == c.Limit() {
			break
		}
	}
	return matched, nil
}

// Get returns a single document by ID.
func (s *Service) Get(ctx context.Context, id string) (document.Document, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return document.Document{}, fmt.Errorf("get document: %w", err)
	}
	d, ok := snap.Get(id)
	if !ok {
		return document.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrDocumentNotFound)
	}
	return d, nil
}

// Count returns the total document count of the current snapshot.
func (s *Service) Count(ctx context.Context) (int, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return snap.Len(), nil
}

var _ SnapshotProvider = (*store.Store)(nil)
