package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/domain/document"
	"github.com/policyradar/policyradar/internal/store"
	"github.com/policyradar/policyradar/internal/usecase/documents"
	"github.com/policyradar/policyradar/internal/usecase/health"
	"github.com/policyradar/policyradar/internal/usecase/ingest"
	"github.com/policyradar/policyradar/internal/usecase/rag"
	"github.com/policyradar/policyradar/internal/usecase/stats"
)

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

type stubSource struct {
	docs []document.Document
}

func (s *stubSource) Name() string { return "euractiv" }

func (s *stubSource) Fetch(context.Context, string, int, int) ([]document.Document, error) {
	return s.docs, nil
}

// newTestServer wires a full server over the given store. apiKeys and the
// ingest source are optional.
func newTestServer(st *store.Store, apiKeys []string, src *stubSource) *Server {
	logger := zap.NewNop()
	clock := func() time.Time { return testNow }

	var sources []ingest.Source
	if src != nil {
		sources = append(sources, src)
	}
	ingestSvc := ingest.New(st, nil, logger, sources...).WithClock(clock)

	return NewServer(
		documents.New(st).WithClock(clock),
		stats.New(st, 7).WithClock(clock),
		rag.New(st, nil, logger),
		ingestSvc,
		health.New(st),
		apiKeys,
		logger,
	)
}

func seedStore() *store.Store {
	st := store.New()
	st.Replace([]document.Document{
		{ID: "tax-1", Title: "VAT in the digital age", Topic: "tax", Source: "EURACTIV",
			DocType: "news", Published: time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC)},
		{ID: "tax-2", Title: "Excise duty overhaul", Topic: "tax", Source: "EUR-Lex",
			DocType: "regulation", Published: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "health-1", Title: "Pharma strategy vote", Topic: "health", Source: "EP Open Data",
			DocType: "procedure", Published: time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC)},
	})
	return st
}

func doRequest(t *testing.T, srv *Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestAPIHealthBeforeInitialization(t *testing.T) {
	srv := newTestServer(store.New(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp healthResponse
	decode(t, rec, &resp)
	if resp.Status != "starting" {
		t.Errorf("status = %q, want starting", resp.Status)
	}
}

func TestAPIHealthReady(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp healthResponse
	decode(t, rec, &resp)
	if resp.Status != "healthy" || resp.Documents != 3 {
		t.Errorf("resp = %+v, want healthy with 3 documents", resp)
	}
	if resp.RAGProvider != health.ProviderDisabled {
		t.Errorf("rag_provider = %q, want %q", resp.RAGProvider, health.ProviderDisabled)
	}
}

func TestListDocumentsBeforeInitialization(t *testing.T) {
	srv := newTestServer(store.New(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/documents", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp errorResponse
	decode(t, rec, &resp)
	if resp.Code != codeStoreUnavailable {
		t.Errorf("code = %q, want %q", resp.Code, codeStoreUnavailable)
	}
}

func TestListDocumentsFiltered(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/documents?topic=tax&days=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp documentListResponse
	decode(t, rec, &resp)
	if resp.Total != 1 || len(resp.Documents) != 1 {
		t.Fatalf("resp = %+v, want exactly tax-1", resp)
	}
	if resp.Documents[0].ID != "tax-1" {
		t.Errorf("document = %q, want tax-1", resp.Documents[0].ID)
	}
}

func TestListDocumentsWildcard(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/documents?topic=all&source=all", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp documentListResponse
	decode(t, rec, &resp)
	if resp.Total != 3 {
		t.Errorf("Total = %d, want all 3", resp.Total)
	}
}

func TestListDocumentsInvalidDays(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	for _, q := range []string{"days=abc", "days=-1", "limit=xyz"} {
		rec := doRequest(t, srv, http.MethodGet, "/api/documents?"+q, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestListDocumentsConfiguredLimits(t *testing.T) {
	st := store.New()
	docs := make([]document.Document, 5)
	for i := range docs {
		docs[i] = document.Document{
			ID:        "doc-" + string(rune('a'+i)),
			Published: time.Date(2026, 8, 10+i, 0, 0, 0, 0, time.UTC),
		}
	}
	st.Replace(docs)
	srv := newTestServer(st, nil, nil).WithQueryLimits(2, 3)

	// Omitted limit uses the configured default.
	rec := doRequest(t, srv, http.MethodGet, "/api/documents", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp documentListResponse
	decode(t, rec, &resp)
	if resp.Total != 2 {
		t.Errorf("Total = %d, want configured default of 2", resp.Total)
	}

	// An explicit limit is capped at the configured maximum.
	rec = doRequest(t, srv, http.MethodGet, "/api/documents?limit=5", "", nil)
	decode(t, rec, &resp)
	if resp.Total != 3 {
		t.Errorf("Total = %d, want configured maximum of 3", resp.Total)
	}
}

func TestGetDocument(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/documents/health-1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp documentDTO
	decode(t, rec, &resp)
	if resp.Title != "Pharma strategy vote" {
		t.Errorf("title = %q", resp.Title)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/documents/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var errResp errorResponse
	decode(t, rec, &errResp)
	if errResp.Code != codeNotFound {
		t.Errorf("code = %q, want %q", errResp.Code, codeNotFound)
	}
}

func TestGetStats(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp statsResponse
	decode(t, rec, &resp)
	if resp.TotalDocuments != 3 {
		t.Errorf("TotalDocuments = %d, want 3", resp.TotalDocuments)
	}
	if resp.ActiveProcedures != 1 {
		t.Errorf("ActiveProcedures = %d, want 1", resp.ActiveProcedures)
	}
	if resp.ThisWeek != 2 {
		t.Errorf("ThisWeek = %d, want 2", resp.ThisWeek)
	}
	sum := 0
	for _, nc := range resp.Topics {
		sum += nc.Count
	}
	if sum != resp.TotalDocuments {
		t.Errorf("topic counts sum to %d, want %d", sum, resp.TotalDocuments)
	}
}

func TestGetTopicsAndSources(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/topics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("topics status = %d", rec.Code)
	}
	var topics topicsResponse
	decode(t, rec, &topics)
	if len(topics.Topics) != 2 || topics.Topics[0].Name != "tax" {
		t.Errorf("topics = %+v, want tax first", topics.Topics)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/sources", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sources status = %d", rec.Code)
	}
	var sources sourcesResponse
	decode(t, rec, &sources)
	if len(sources.Sources) != 3 {
		t.Errorf("sources = %+v, want 3 entries", sources.Sources)
	}
}

func TestRAGQueryEndpoint(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/rag/query",
		`{"query":"pharma strategy"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ragResponse
	decode(t, rec, &resp)
	if len(resp.Sources) == 0 {
		t.Fatal("no sources in response")
	}
	if resp.Sources[0].ID != "health-1" {
		t.Errorf("top source = %q, want health-1", resp.Sources[0].ID)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/rag/query", `{"query":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/rag/query", `{not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestIngestEndpoint(t *testing.T) {
	src := &stubSource{docs: []document.Document{
		{ID: "new-1", Title: "Fresh article", Source: "EURACTIV", DocType: "news",
			Published: time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)},
	}}
	srv := newTestServer(store.New(), nil, src)

	rec := doRequest(t, srv, http.MethodPost, "/api/ingest", `{"topic":"tax"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ingestResponse
	decode(t, rec, &resp)
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	if resp.TotalDocumentsNow != 1 || resp.Results.TotalNewDocuments != 1 {
		t.Errorf("resp = %+v, want 1 new of 1 total", resp)
	}

	// Missing topic is rejected.
	rec = doRequest(t, srv, http.MethodPost, "/api/ingest", `{}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing topic status = %d, want 400", rec.Code)
	}

	// Unknown source set.
	rec = doRequest(t, srv, http.MethodPost, "/api/ingest",
		`{"topic":"tax","sources":["bogus"]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown source status = %d, want 400", rec.Code)
	}
}

func TestIngestRequiresAuthWhenConfigured(t *testing.T) {
	src := &stubSource{}
	srv := newTestServer(store.New(), []string{"secret"}, src)

	rec := doRequest(t, srv, http.MethodPost, "/api/ingest", `{"topic":"tax"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without token", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/ingest", `{"topic":"tax"}`,
		map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with token, body = %s", rec.Code, rec.Body.String())
	}

	// Read endpoints stay public.
	rec = doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200", rec.Code)
	}
}

func TestRootDirectory(t *testing.T) {
	srv := newTestServer(seedStore(), nil, nil)

	rec := doRequest(t, srv, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	decode(t, rec, &resp)
	if resp["name"] != "Policy Radar API" {
		t.Errorf("name = %v", resp["name"])
	}
	if resp["documents"].(float64) != 3 {
		t.Errorf("documents = %v, want 3", resp["documents"])
	}
}
