package documents

import "github.com/policyradar/policyradar/internal/store"

// SnapshotProvider yields the current corpus snapshot.
type SnapshotProvider interface {
	Snapshot() (*store.Snapshot, error)
}
