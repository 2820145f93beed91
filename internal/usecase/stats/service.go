// Package stats computes summary views over the corpus: dashboard totals,
// per-topic and per-source counts. Results are a pure function of the
// snapshot and are memoized per snapshot version.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/policyradar/policyradar/internal/store"
)

// procedureDocType marks documents counted as active legislative procedures.
const procedureDocType = "procedure"

// SnapshotProvider yields the current corpus snapshot.
type SnapshotProvider interface {
	Snapshot() (*store.Snapshot, error)
}

// NameCount is a labelled count, ordered by count descending and name
// ascending on ties wherever it appears.
type NameCount struct {
	Name  string
	Count int
}

// Report is the dashboard aggregate.
type Report struct {
	TotalDocuments   int
	ActiveProcedures int
	RecentCount      int // documents within the recent-days window
	RecentDays       int
	Sources          []NameCount
	Topics           []NameCount
	DocTypes         []NameCount
}

// Service aggregates corpus statistics.
type Service struct {
	snapshots  SnapshotProvider
	now        func() time.Time
	recentDays int

	mu      sync.Mutex
	version uint64
	cached  *aggregates
}

// aggregates is the time-independent part of a report, cacheable per
// snapshot version. The recent count depends on the clock and is computed
// fresh on every call (a binary search on the sorted snapshot).
type aggregates struct {
	total      int
	procedures int
	sources    []NameCount
	topics     []NameCount
	docTypes   []NameCount
}

// New creates a stats service with the given recent-count window in days.
func New(snapshots SnapshotProvider, recentDays int) *Service {
	if recentDays <= 0 {
		recentDays = 7
	}
	return &Service{snapshots: snapshots, now: time.Now, recentDays: recentDays}
}

// WithClock overrides the clock used for the recent count.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Stats returns the dashboard aggregate for the current snapshot.
func (s *Service) Stats(ctx context.Context) (Report, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return Report{}, fmt.Errorf("stats: %w", err)
	}

	agg := s.forSnapshot(snap)
	cutoff := s.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -s.recentDays)

	return Report{
		TotalDocuments:   agg.total,
		ActiveProcedures: agg.procedures,
		RecentCount:      snap.CountSince(cutoff),
		RecentDays:       s.recentDays,
		Sources:          agg.sources,
		Topics:           agg.topics,
		DocTypes:         agg.docTypes,
	}, nil
}

// Topics returns per-topic document counts, count descending, ties broken
// alphabetically.
func (s *Service) Topics(ctx context.Context) ([]NameCount, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("topics: %w", err)
	}
	return s.forSnapshot(snap).topics, nil
}

// Sources returns per-source document counts with the same ordering rule.
func (s *Service) Sources(ctx context.Context) ([]NameCount, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	return s.forSnapshot(snap).sources, nil
}

// forSnapshot returns the memoized aggregates for the snapshot, computing
// them once per snapshot version. The cache is invalidated exactly when the
// snapshot reference changes.
func (s *Service) forSnapshot(snap *store.Snapshot) *aggregates {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.version == snap.Version() {
		return s.cached
	}

	bySource := make(map[string]int)
	byTopic := make(map[string]int)
	byType := make(map[string]int)
	procedures := 0
	for _, d := range snap.Documents() {
		bySource[orUnknown(d.Source)]++
		byTopic[orUnknown(d.Topic)]++
		byType[orUnknown(d.DocType)]++
		// Same case-insensitive comparison rule as doc_type filtering.
		if strings.EqualFold(d.DocType, procedureDocType) {
			procedures++
		}
	}

	s.cached = &aggregates{
		total:      snap.Len(),
		procedures: procedures,
		sources:    sortedCounts(bySource),
		topics:     sortedCounts(byTopic),
		docTypes:   sortedCounts(byType),
	}
	s.version = snap.Version()
	return s.cached
}

// orUnknown keeps unlabelled documents countable so per-group counts always
// sum to the corpus total.
func orUnknown(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}

func sortedCounts(m map[string]int) []NameCount {
	out := make([]NameCount, 0, len(m))
	for name, count := range m {
		out = append(out, NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
