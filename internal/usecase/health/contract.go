package health

import (
	"context"

	"github.com/policyradar/policyradar/internal/store"
)

// CorpusReader reports corpus availability and size.
type CorpusReader interface {
	Snapshot() (*store.Snapshot, error)
}

// ProviderChecker verifies that the answer-generation provider is reachable.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
