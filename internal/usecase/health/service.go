// Package health reports service readiness.
package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates the service is serving a corpus snapshot.
	Healthy Status = "healthy"
	// Starting indicates the corpus has not been initialized yet.
	Starting Status = "starting"
)

// RAG provider states reported in Report.RAGProvider.
const (
	ProviderOK       = "ok"
	ProviderError    = "error"
	ProviderDisabled = "disabled"
)

// Report aggregates health check results.
type Report struct {
	Status      Status
	Ready       bool
	Documents   int
	RAGProvider string
	Timestamp   time.Time
}

// Service coordinates health checks.
type Service struct {
	corpus CorpusReader
	rag    ProviderChecker // nil = generation disabled
	now    func() time.Time
}

// New creates a Service.
func New(corpus CorpusReader) *Service {
	return &Service{corpus: corpus, now: time.Now}
}

// WithRAGProvider adds the answer-generation provider to the check.
func (s *Service) WithRAGProvider(p ProviderChecker) *Service {
	s.rag = p
	return s
}

// Check reports whether a corpus snapshot is installed and its size, plus
// the reachability of the answer-generation provider when one is wired.
// An empty-but-installed snapshot is healthy; only the pre-initialization
// state reports Starting. A failing provider does not flip readiness, the
// RAG endpoint still answers with its extractive fallback path.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Ready: true, Timestamp: s.now().UTC()}

	r.RAGProvider = ProviderDisabled
	if s.rag != nil {
		r.RAGProvider = ProviderOK
		if err := s.rag.HealthCheck(ctx); err != nil {
			r.RAGProvider = ProviderError
		}
	}

	snap, err := s.corpus.Snapshot()
	if err != nil {
		r.Status = Starting
		r.Ready = false
		return r
	}

	r.Documents = snap.Len()
	return r
}
