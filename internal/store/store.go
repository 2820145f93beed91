// Package store holds the in-process document corpus behind an atomically
// swappable snapshot. Readers take a snapshot reference once per request and
// never observe a partially updated corpus; ingestion is the sole writer and
// installs a fully built replacement with a single pointer swap.
package store

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/document"
)

// Snapshot is an immutable view of the corpus at a point in time.
// Documents are pre-sorted by published descending, ID ascending on ties.
type Snapshot struct {
	version uint64
	docs    []document.Document
	byID    map[string]int
}

// Version identifies the snapshot; strictly increasing across installs.
// Used as a memoization key by the aggregation service.
func (s *Snapshot) Version() uint64 { return s.version }

// Documents returns the sorted document slice. Callers must treat it as
// read-only.
func (s *Snapshot) Documents() []document.Document { return s.docs }

// Len returns the number of documents in the snapshot.
func (s *Snapshot) Len() int { return len(s.docs) }

// Get returns the document with the given ID.
func (s *Snapshot) Get(id string) (document.Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return document.Document{}, false
	}
	return s.docs[i], true
}

// Contains reports whether a document with the given ID exists.
func (s *Snapshot) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// CountSince counts documents published at or after the cutoff. The sorted
// order makes this a binary search rather than a scan.
func (s *Snapshot) CountSince(cutoff time.Time) int {
	return sort.Search(len(s.docs), func(i int) bool {
		return s.docs[i].Published.Before(cutoff)
	})
}

// Store is the process-wide corpus holder. The zero Store (via New) has no
// snapshot; Snapshot returns ErrStoreUnavailable until the first Replace.
type Store struct {
	current atomic.Pointer[Snapshot]
	nextVer atomic.Uint64
}

// New creates an empty, uninitialized Store.
func New() *Store {
	return &Store{}
}

// Replace builds and atomically installs a new snapshot from the given
// documents. Duplicated IDs keep the first occurrence. The input slice is
// copied; callers may reuse it. Returns the installed snapshot.
func (st *Store) Replace(docs []document.Document) *Snapshot {
	deduped := make([]document.Document, 0, len(docs))
	byID := make(map[string]int, len(docs))
	for _, d := range docs {
		if _, dup := byID[d.ID]; dup {
			continue
		}
		byID[d.ID] = -1 // index fixed up after sorting
		deduped = append(deduped, d)
	}

	sort.Slice(deduped, func(i, j int) bool {
		return document.Less(deduped[i], deduped[j])
	})
	for i, d := range deduped {
		byID[d.ID] = i
	}

	snap := &Snapshot{
		version: st.nextVer.Add(1),
		docs:    deduped,
		byID:    byID,
	}
	st.current.Store(snap)
	return snap
}

// Snapshot returns the current corpus view, or ErrStoreUnavailable before
// the first Replace. Two reads from the returned snapshot are always
// mutually consistent regardless of concurrent swaps.
func (st *Store) Snapshot() (*Snapshot, error) {
	snap := st.current.Load()
	if snap == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return snap, nil
}

// Size returns the document count of the current snapshot, 0 when
// uninitialized.
func (st *Store) Size() int {
	if snap := st.current.Load(); snap != nil {
		return snap.Len()
	}
	return 0
}
