package policyradar

import "time"

// Document is a policy document as returned by the API.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	BodyText  string    `json:"body_text,omitempty"`
	Source    string    `json:"source"`
	DocType   string    `json:"doc_type"`
	Topic     string    `json:"topic"`
	URL       string    `json:"url,omitempty"`
	Language  string    `json:"language,omitempty"`
	Published time.Time `json:"published"`
}

// DocumentList is the /api/documents response.
type DocumentList struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// DocumentsParams are the /api/documents filter parameters.
// Zero values mean "unfiltered"; Days is a pointer because 0 is meaningful
// (documents published today).
type DocumentsParams struct {
	Topic   string
	Source  string
	DocType string
	Search  string
	Days    *int
	Limit   int
}

// NameCount is a labelled count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats is the /api/stats response.
type Stats struct {
	TotalDocuments   int         `json:"total_documents"`
	ActiveProcedures int         `json:"active_procedures"`
	ThisWeek         int         `json:"this_week"`
	RecentDays       int         `json:"recent_days"`
	Sources          []NameCount `json:"sources"`
	Topics           []NameCount `json:"topics"`
	DocumentTypes    []NameCount `json:"document_types"`
}

// RAGSource identifies a document grounding an answer.
type RAGSource struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RAGAnswer is the /api/rag/query response.
type RAGAnswer struct {
	Response string      `json:"response"`
	Sources  []RAGSource `json:"sources"`
}

// IngestRequest triggers an ingestion run.
type IngestRequest struct {
	Topic   string   `json:"topic"`
	Days    int      `json:"days,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// IngestResults summarizes an ingestion run.
type IngestResults struct {
	Topic             string         `json:"topic"`
	Days              int            `json:"days"`
	SourcesRequested  []string       `json:"sources_requested"`
	IngestedBySource  map[string]int `json:"ingested_by_source"`
	TotalNewDocuments int            `json:"total_new_documents"`
	Errors            []string       `json:"errors"`
}

// IngestReport is the /api/ingest response.
type IngestReport struct {
	Status            string        `json:"status"`
	Message           string        `json:"message"`
	Results           IngestResults `json:"results"`
	TotalDocumentsNow int           `json:"total_documents_now"`
}

// Health is the /api/health response.
type Health struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
