package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and RAG pipeline metrics. Registered explicitly from the
// composition root (no init()) so one-off CLI commands can opt out.
var (
	// IngestedDocumentsTotal counts documents accepted into the corpus, by source.
	IngestedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyradar",
			Name:      "ingested_documents_total",
			Help:      "Documents accepted into the corpus",
		},
		[]string{"source"},
	)

	// IngestRunsTotal counts ingestion runs by outcome (ok, partial, error).
	IngestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyradar",
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by outcome",
		},
		[]string{"outcome"},
	)

	// RAGRequestsTotal counts RAG queries by outcome (ok, fallback, error).
	RAGRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyradar",
			Name:      "rag_requests_total",
			Help:      "RAG queries by outcome",
		},
		[]string{"outcome"},
	)
)

// RegisterPipelineMetrics registers ingestion and RAG metrics.
func RegisterPipelineMetrics() {
	prometheus.MustRegister(IngestedDocumentsTotal)
	prometheus.MustRegister(IngestRunsTotal)
	prometheus.MustRegister(RAGRequestsTotal)
}
