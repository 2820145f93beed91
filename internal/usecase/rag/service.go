// Package rag answers natural-language questions over the corpus: keyword
// retrieval of supporting documents, then answer generation through an
// OpenAI-compatible provider. Without a provider the service degrades to an
// extractive summary so the endpoint stays functional offline.
package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/metrics"
)

// DefaultTopK is the number of documents retrieved per query.
const DefaultTopK = 5

// SourceRef identifies a document used to ground an answer.
type SourceRef struct {
	ID    string
	Title string
	Score float64
}

// Answer is the result of a RAG query.
type Answer struct {
	Response string
	Sources  []SourceRef
}

// Service forwards questions to the answer-generation collaborator, grounded
// on documents retrieved from the current snapshot.
type Service struct {
	snapshots SnapshotProvider
	completer Completer // nil = extractive fallback only
	topK      int
	logger    *zap.Logger
}

// New creates a RAG service. completer may be nil.
func New(snapshots SnapshotProvider, completer Completer, logger *zap.Logger) *Service {
	return &Service{
		snapshots: snapshots,
		completer: completer,
		topK:      DefaultTopK,
		logger:    logger,
	}
}

// WithTopK configures how many documents ground each answer.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// Query answers a question using the corpus. contextIDs optionally restricts
// retrieval to the given document IDs (unknown IDs are ignored).
func (s *Service) Query(ctx context.Context, question string, contextIDs []string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("query is required: %w", domain.ErrInvalidParameter)
	}

	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return Answer{}, fmt.Errorf("rag query: %w", err)
	}

	candidates := snap.Documents()
	if len(contextIDs) > 0 {
		scoped := make([]document.Document, 0, len(contextIDs))
		for _, id := range contextIDs {
			if d, ok := snap.Get(id); ok {
				scoped = append(scoped, d)
			}
		}
		candidates = scoped
	}

	hits := retrieve(question, candidates, s.topK)
	docs := make([]document.Document, len(hits))
	refs := make([]SourceRef, len(hits))
	for i, h := range hits {
		docs[i] = h.doc
		refs[i] = SourceRef{ID: h.doc.ID, Title: h.doc.Title, Score: h.score}
	}

	if s.completer == nil {
		metrics.RAGRequestsTotal.WithLabelValues("fallback").Inc()
		return Answer{Response: extractiveSummary(question, docs), Sources: refs}, nil
	}

	response, err := s.completer.Complete(ctx, question, docs)
	if err != nil {
		metrics.RAGRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("answer generation failed", zap.Error(err))
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	metrics.RAGRequestsTotal.WithLabelValues("ok").Inc()
	return Answer{Response: response, Sources: refs}, nil
}

// extractiveSummary builds an answer from retrieved documents alone.
func extractiveSummary(question string, docs []document.Document) string {
	if len(docs) == 0 {
		return "No documents in the corpus matched the question."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant documents:\n", len(docs))
	for _, d := range docs {
		fmt.Fprintf(&b, "\n- %s (%s, %s)", d.Title, d.Source, d.Published.Format("2006-01-02"))
		if d.Summary != "" {
			fmt.Fprintf(&b, "\n  %s", d.Summary)
		}
	}
	return b.String()
}
