// Package ingest pulls policy documents from the registered EU sources and
// installs the merged result as a new corpus snapshot. Ingestion is the sole
// corpus writer; per-source failures are collected, not fatal.
package ingest

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/metrics"
)

// Request describes one ingestion run.
type Request struct {
	Topic   string
	Days    int      // 0 = service default
	Sources []string // empty = all registered sources
	Limit   int      // total budget, split across sources; 0 = default
}

// Report summarizes an ingestion run.
type Report struct {
	Topic            string         `json:"topic"`
	Days             int            `json:"days"`
	SourcesRequested []string       `json:"sources_requested"`
	IngestedBySource map[string]int `json:"ingested_by_source"`
	NewDocuments     int            `json:"new_documents"`
	TotalDocuments   int            `json:"total_documents"`
	Errors           []string       `json:"errors,omitempty"`
}

// Service orchestrates the ingestion pipeline.
type Service struct {
	sources      map[string]Source
	order        []string
	corpus       Corpus
	saver        Saver
	logger       *zap.Logger
	defaultDays  int
	defaultLimit int

	mu      sync.Mutex // serializes runs; Replace must see its own merge base
	entropy *rand.Rand
	now     func() time.Time
}

// New creates an ingestion service with the given sources.
func New(corpus Corpus, saver Saver, logger *zap.Logger, sources ...Source) *Service {
	s := &Service{
		sources:      make(map[string]Source, len(sources)),
		corpus:       corpus,
		saver:        saver,
		logger:       logger,
		defaultDays:  30,
		defaultLimit: 50,
		entropy:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
	for _, src := range sources {
		s.sources[src.Name()] = src
		s.order = append(s.order, src.Name())
	}
	return s
}

// WithDefaults configures the default recency window and document budget.
func (s *Service) WithDefaults(days, limit int) *Service {
	if days > 0 {
		s.defaultDays = days
	}
	if limit > 0 {
		s.defaultLimit = limit
	}
	return s
}

// WithClock overrides the clock used for fallback publication times.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run executes one ingestion pass: fetch from each requested source, dedupe
// against the existing corpus, install the merged snapshot, persist it.
// Only a fully failed run (no usable sources) returns an error.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	if req.Topic == "" {
		return Report{}, fmt.Errorf("topic is required: %w", domain.ErrInvalidParameter)
	}
	if req.Days <= 0 {
		req.Days = s.defaultDays
	}
	if req.Limit <= 0 {
		req.Limit = s.defaultLimit
	}
	if len(req.Sources) == 0 {
		req.Sources = append([]string(nil), s.order...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := Report{
		Topic:            req.Topic,
		Days:             req.Days,
		SourcesRequested: req.Sources,
		IngestedBySource: make(map[string]int, len(req.Sources)),
	}

	var fetched []document.Document
	known := 0
	perSource := req.Limit / len(req.Sources)
	if perSource < 1 {
		perSource = 1
	}

	for _, name := range req.Sources {
		src, ok := s.sources[name]
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, domain.ErrUnknownSource))
			continue
		}
		known++

		docs, err := src.Fetch(ctx, req.Topic, req.Days, perSource)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", name, err))
			s.logger.Warn("source fetch failed", zap.String("source", name), zap.Error(err))
			continue
		}

		accepted := 0
		for _, d := range docs {
			d = s.normalize(d, req.Topic)
			if err := d.Validate(); err != nil {
				s.logger.Debug("dropping invalid document", zap.Error(err))
				continue
			}
			fetched = append(fetched, d)
			accepted++
		}
		report.IngestedBySource[name] = accepted
		metrics.IngestedDocumentsTotal.WithLabelValues(name).Add(float64(accepted))
		s.logger.Info("source ingested",
			zap.String("source", name),
			zap.Int("documents", accepted),
		)
	}

	if known == 0 {
		metrics.IngestRunsTotal.WithLabelValues("error").Inc()
		return report, fmt.Errorf("no usable sources in %v: %w", req.Sources, domain.ErrUnknownSource)
	}

	merged, added := s.merge(fetched)
	report.NewDocuments = added

	snap := s.corpus.Replace(merged)
	report.TotalDocuments = snap.Len()

	if s.saver != nil {
		if err := s.saver.Save(ctx, snap.Documents()); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("persist: %v", err))
			s.logger.Error("failed to persist corpus", zap.Error(err))
		}
	}

	outcome := "ok"
	if len(report.Errors) > 0 {
		outcome = "partial"
	}
	metrics.IngestRunsTotal.WithLabelValues(outcome).Inc()

	s.logger.Info("ingestion run complete",
		zap.String("topic", req.Topic),
		zap.Int("new_documents", added),
		zap.Int("total_documents", report.TotalDocuments),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

// normalize fills derivable fields: missing IDs get a ULID, missing topics
// inherit the requested ingestion topic, missing publication times default
// to now (feeds occasionally omit them).
func (s *Service) normalize(d document.Document, topic string) document.Document {
	if d.ID == "" {
		d.ID = ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
	}
	if d.Topic == "" {
		d.Topic = topic
	}
	if d.Published.IsZero() {
		d.Published = s.now().UTC()
	}
	return d
}

// merge appends fetched documents that are not already in the corpus.
// Existing documents win on ID collision (IDs are immutable once assigned).
func (s *Service) merge(fetched []document.Document) ([]document.Document, int) {
	var existing []document.Document
	contains := func(string) bool { return false }
	if snap, err := s.corpus.Snapshot(); err == nil {
		existing = snap.Documents()
		contains = snap.Contains
	}

	merged := make([]document.Document, 0, len(existing)+len(fetched))
	merged = append(merged, existing...)

	seen := make(map[string]struct{}, len(fetched))
	added := 0
	for _, d := range fetched {
		if contains(d.ID) {
			continue
		}
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		merged = append(merged, d)
		added++
	}
	return merged, added
}
