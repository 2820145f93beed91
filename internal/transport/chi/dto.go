package chi

import (
	"time"

	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/usecase/ingest"
	"github.com/policyradar/policyradar/internal/usecase/rag"
	"github.com/policyradar/policyradar/internal/usecase/stats"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeInvalidParameter = "invalid_parameter"
	codeNotFound         = "document_not_found"
	codeStoreUnavailable = "store_unavailable"
	codeUnknownSource    = "unknown_source"
	codeRAGProvider      = "rag_provider_error"
	codeUnauthorized     = "unauthorized"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type documentDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	BodyText  string `json:"body_text,omitempty"`
	Source    string `json:"source"`
	DocType   string `json:"doc_type"`
	Topic     string `json:"topic"`
	URL       string `json:"url,omitempty"`
	Language  string `json:"language,omitempty"`
	Published string `json:"published"`
}

func documentToDTO(d document.Document) documentDTO {
	return documentDTO{
		ID:        d.ID,
		Title:     d.Title,
		Summary:   d.Summary,
		BodyText:  d.Body,
		Source:    d.Source,
		DocType:   d.DocType,
		Topic:     d.Topic,
		URL:       d.URL,
		Language:  d.Language,
		Published: d.Published.UTC().Format(time.RFC3339),
	}
}

type documentListResponse struct {
	Documents []documentDTO `json:"documents"`
	Total     int           `json:"total"`
}

type nameCountDTO struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func nameCountsToDTO(in []stats.NameCount) []nameCountDTO {
	out := make([]nameCountDTO, len(in))
	for i, nc := range in {
		out[i] = nameCountDTO{Name: nc.Name, Count: nc.Count}
	}
	return out
}

type statsResponse struct {
	TotalDocuments   int            `json:"total_documents"`
	ActiveProcedures int            `json:"active_procedures"`
	ThisWeek         int            `json:"this_week"`
	RecentDays       int            `json:"recent_days"`
	Sources          []nameCountDTO `json:"sources"`
	Topics           []nameCountDTO `json:"topics"`
	DocumentTypes    []nameCountDTO `json:"document_types"`
}

func statsToDTO(r stats.Report) statsResponse {
	return statsResponse{
		TotalDocuments:   r.TotalDocuments,
		ActiveProcedures: r.ActiveProcedures,
		ThisWeek:         r.RecentCount,
		RecentDays:       r.RecentDays,
		Sources:          nameCountsToDTO(r.Sources),
		Topics:           nameCountsToDTO(r.Topics),
		DocumentTypes:    nameCountsToDTO(r.DocTypes),
	}
}

type topicsResponse struct {
	Topics []nameCountDTO `json:"topics"`
}

type sourcesResponse struct {
	Sources []nameCountDTO `json:"sources"`
}

type ragRequest struct {
	Query            string   `json:"query"`
	ContextDocuments []string `json:"context_documents,omitempty"`
}

type ragSourceDTO struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score"`
}

type ragResponse struct {
	Response string         `json:"response"`
	Sources  []ragSourceDTO `json:"sources"`
}

func ragAnswerToDTO(a rag.Answer) ragResponse {
	srcs := make([]ragSourceDTO, len(a.Sources))
	for i, s := range a.Sources {
		srcs[i] = ragSourceDTO{ID: s.ID, Title: s.Title, RelevanceScore: s.Score}
	}
	return ragResponse{Response: a.Response, Sources: srcs}
}

type ingestRequest struct {
	Topic   string   `json:"topic"`
	Days    int      `json:"days,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

type ingestResultsDTO struct {
	Topic             string         `json:"topic"`
	Days              int            `json:"days"`
	SourcesRequested  []string       `json:"sources_requested"`
	IngestedBySource  map[string]int `json:"ingested_by_source"`
	TotalNewDocuments int            `json:"total_new_documents"`
	Errors            []string       `json:"errors"`
}

type ingestResponse struct {
	Status            string           `json:"status"`
	Message           string           `json:"message"`
	Results           ingestResultsDTO `json:"results"`
	TotalDocumentsNow int              `json:"total_documents_now"`
}

func ingestReportToDTO(r ingest.Report) ingestResponse {
	status := "success"
	if len(r.Errors) > 0 {
		status = "partial"
	}
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return ingestResponse{
		Status:  status,
		Message: "ingested documents for topic: " + r.Topic,
		Results: ingestResultsDTO{
			Topic:             r.Topic,
			Days:              r.Days,
			SourcesRequested:  r.SourcesRequested,
			IngestedBySource:  r.IngestedBySource,
			TotalNewDocuments: r.NewDocuments,
			Errors:            errs,
		},
		TotalDocumentsNow: r.TotalDocuments,
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Documents   int    `json:"documents"`
	RAGProvider string `json:"rag_provider"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
}
