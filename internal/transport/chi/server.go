// Package chi wires the Policy Radar use cases to HTTP handlers.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain"
	"github.com/policyradar/policyradar/internal/domain/filter"
	"github.com/policyradar/policyradar/internal/usecase/documents"
	"github.com/policyradar/policyradar/internal/usecase/health"
	"github.com/policyradar/policyradar/internal/usecase/ingest"
	"github.com/policyradar/policyradar/internal/usecase/rag"
	"github.com/policyradar/policyradar/internal/usecase/stats"
	"github.com/policyradar/policyradar/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the document, stats, RAG and ingestion use cases over HTTP.
type Server struct {
	documents     *documents.Service
	stats         *stats.Service
	rag           *rag.Service
	ingest        *ingest.Service
	health        *health.Service
	apiKeys       []string
	limits        filter.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	docs *documents.Service,
	statsSvc *stats.Service,
	ragSvc *rag.Service,
	ingestSvc *ingest.Service,
	healthSvc *health.Service,
	apiKeys []string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents: docs,
		stats:     statsSvc,
		rag:       ragSvc,
		ingest:    ingestSvc,
		health:    healthSvc,
		apiKeys:   apiKeys,
		limits:    filter.DefaultLimits,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidParameter, http.StatusBadRequest, codeInvalidParameter),
		sentinelHandler(domain.ErrUnknownSource, http.StatusBadRequest, codeUnknownSource),
		sentinelHandler(domain.ErrRAGProviderError, http.StatusBadGateway, codeRAGProvider),
	}
	return s
}

// WithQueryLimits configures the default and maximum document list sizes.
func (s *Server) WithQueryLimits(defaultLimit, maxLimit int) *Server {
	s.limits = filter.Limits{Default: defaultLimit, Max: maxLimit}
	return s
}

// Routes mounts all endpoints on a new router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", s.Root)
	r.Get("/health", s.Liveness)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.APIHealth)
		r.Get("/status", s.APIStatus)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Get("/stats", s.GetStats)
		r.Get("/topics", s.GetTopics)
		r.Get("/sources", s.GetSources)
		r.Post("/rag/query", s.RAGQuery)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(s.apiKeys))
			r.Post("/ingest", s.Ingest)
		})
	})

	return r
}

// Root handles GET / with the service directory.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	docCount := 0
	if report := s.health.Check(r.Context()); report.Ready {
		docCount = report.Documents
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":      "Policy Radar API",
		"version":   version.Version,
		"status":    "running",
		"documents": docCount,
		"message":   "Brussels public affairs platform with AI-enhanced document tracking",
		"endpoints": map[string]string{
			"health":    "/api/health",
			"documents": "/api/documents",
			"stats":     "/api/stats",
			"topics":    "/api/topics",
			"sources":   "/api/sources",
			"rag":       "/api/rag/query",
			"ingest":    "/api/ingest",
			"metrics":   "/metrics",
		},
	})
}

// Liveness handles GET /health.
func (s *Server) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// APIHealth handles GET /api/health (readiness with corpus size).
func (s *Server) APIHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:      string(report.Status),
		Documents:   report.Documents,
		RAGProvider: report.RAGProvider,
		Timestamp:   report.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		Version:     version.Version,
	})
}

// APIStatus handles GET /api/status.
func (s *Server) APIStatus(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	state := "operational"
	if !report.Ready {
		state = "starting"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    state,
		"service":   "Policy Radar API",
		"documents": report.Documents,
		"version":   version.Version,
	})
}

// ListDocuments handles GET /api/documents with filter query parameters.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	days, err := optionalIntParam(q.Get("days"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidParameter, "days must be an integer")
		return
	}

	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidParameter, "limit must be an integer")
			return
		}
	}

	criteria, err := filter.NewWithLimits(
		q.Get("topic"), q.Get("source"), q.Get("doc_type"), q.Get("search"),
		days, limit, s.limits,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	docs, err := s.documents.Query(r.Context(), criteria)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentDTO, len(docs))
	for i, d := range docs {
		items[i] = documentToDTO(d)
	}
	writeJSON(w, http.StatusOK, documentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /api/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(doc))
}

// GetStats handles GET /api/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.stats.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToDTO(report))
}

// GetTopics handles GET /api/topics.
func (s *Server) GetTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.stats.Topics(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: nameCountsToDTO(topics)})
}

// GetSources handles GET /api/sources.
func (s *Server) GetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.stats.Sources(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sourcesResponse{Sources: nameCountsToDTO(sources)})
}

// RAGQuery handles POST /api/rag/query.
func (s *Server) RAGQuery(w http.ResponseWriter, r *http.Request) {
	var req ragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	answer, err := s.rag.Query(r.Context(), req.Query, req.ContextDocuments)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ragAnswerToDTO(answer))
}

// Ingest handles POST /api/ingest.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	report, err := s.ingest.Run(r.Context(), ingest.Request{
		Topic:   req.Topic,
		Days:    req.Days,
		Sources: req.Sources,
		Limit:   req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingestReportToDTO(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// optionalIntParam parses a query parameter that may be absent.
func optionalIntParam(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// handleDomainError maps a use case error onto an HTTP response.
func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, handle := range s.errorHandlers {
		if handle(w, err) {
			return
		}
	}
	s.logger.Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// sentinelHandler builds an errorHandler for one sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
